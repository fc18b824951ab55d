// Package slack posts export summaries to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/a-steris/paydash/internal/app/domain"
)

// Preview length is capped so large exports never blow past Slack's
// message size limit.
const previewLimit = 1000

// Notifier renders a Block Kit message with a report header, summary
// fields and a code-fenced CSV preview.
type Notifier struct {
	httpClient *http.Client
}

func NewNotifier() *Notifier {
	return &Notifier{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

func (n *Notifier) Post(ctx context.Context, webhookURL string, artifact domain.ExportArtifact, stats domain.SummaryStats) error {
	if strings.TrimSpace(webhookURL) == "" {
		return &domain.DeliveryError{Channel: "webhook", Message: "Please configure Slack webhook URL"}
	}

	payload := map[string]any{"blocks": buildBlocks(artifact, stats)}
	raw, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(raw))
	if err != nil {
		return &domain.DeliveryError{Channel: "webhook", Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return &domain.DeliveryError{Channel: "webhook", Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &domain.DeliveryError{
			Channel: "webhook",
			Message: fmt.Sprintf("slack responded %s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}
	return nil
}

func buildBlocks(artifact domain.ExportArtifact, stats domain.SummaryStats) []map[string]any {
	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{"type": "plain_text", "text": headerText(artifact.ReportType), "emoji": true},
		},
		{
			"type":   "section",
			"fields": summaryFields(artifact.ReportType, stats),
		},
	}

	preview := string(artifact.Bytes)
	if len(preview) > previewLimit {
		// Back off to a rune boundary so the cut never splits a
		// multibyte character.
		cut := previewLimit
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut]
	}
	blocks = append(blocks,
		map[string]any{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": "```" + preview + "```"},
		},
		map[string]any{
			"type": "context",
			"elements": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("Generated %s | %s", time.Now().Format("2006-01-02 15:04:05"), artifact.Filename)},
			},
		},
	)
	return blocks
}

func headerText(rt domain.ReportType) string {
	switch rt {
	case domain.ReportCustomers:
		return "👥 Stripe Customers Report"
	case domain.ReportInvoices:
		return "🧾 Stripe Invoices Report"
	default:
		return "🏦 Stripe Payments Report"
	}
}

func summaryFields(rt domain.ReportType, stats domain.SummaryStats) []map[string]any {
	field := func(label, value string) map[string]any {
		return map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*%s:*\n%s", label, value)}
	}
	switch rt {
	case domain.ReportCustomers:
		return []map[string]any{
			field("Total Customers", fmt.Sprintf("%d", stats.TotalCustomers)),
		}
	case domain.ReportInvoices:
		return []map[string]any{
			field("Total Invoices", fmt.Sprintf("%d", stats.TotalInvoices)),
			field("Paid", fmt.Sprintf("%d", stats.PaidInvoices)),
		}
	default:
		return []map[string]any{
			field("Total Amount", stats.TotalAmount),
			field("Payments", fmt.Sprintf("%d", stats.TotalCount)),
			field("Succeeded", fmt.Sprintf("%d", stats.Successful)),
			field("Failed", fmt.Sprintf("%d", stats.Failed)),
		}
	}
}
