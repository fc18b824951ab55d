// Package anticaptcha solves reCAPTCHA challenges through the
// anti-captcha.com task API.
package anticaptcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.anti-captcha.com"

// Client submits RecaptchaV2 proxyless tasks and polls until the service
// returns a token or gives up.
type Client struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		baseURL:      defaultBaseURL,
		apiKey:       strings.TrimSpace(apiKey),
		pollInterval: 5 * time.Second,
		maxWait:      2 * time.Minute,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL exists for tests against a stub server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	c.pollInterval = 10 * time.Millisecond
	return c
}

// Solve runs the full create-then-poll cycle and returns the
// g-recaptcha-response token.
func (c *Client) Solve(ctx context.Context, websiteURL, siteKey string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("anti-captcha api key not configured")
	}

	taskID, err := c.createTask(ctx, websiteURL, siteKey)
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(c.maxWait)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		token, ready, err := c.taskResult(ctx, taskID)
		if err != nil {
			return "", err
		}
		if ready {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("captcha task %d not solved within %s", taskID, c.maxWait)
		}
	}
}

func (c *Client) createTask(ctx context.Context, websiteURL, siteKey string) (int64, error) {
	body := map[string]any{
		"clientKey": c.apiKey,
		"task": map[string]any{
			"type":       "RecaptchaV2TaskProxyless",
			"websiteURL": websiteURL,
			"websiteKey": siteKey,
		},
	}
	var parsed struct {
		ErrorID          int    `json:"errorId"`
		ErrorDescription string `json:"errorDescription"`
		TaskID           int64  `json:"taskId"`
	}
	if err := c.post(ctx, "/createTask", body, &parsed); err != nil {
		return 0, err
	}
	if parsed.ErrorID != 0 {
		return 0, fmt.Errorf("create captcha task failed: %s", parsed.ErrorDescription)
	}
	return parsed.TaskID, nil
}

func (c *Client) taskResult(ctx context.Context, taskID int64) (string, bool, error) {
	body := map[string]any{
		"clientKey": c.apiKey,
		"taskId":    taskID,
	}
	var parsed struct {
		ErrorID          int    `json:"errorId"`
		ErrorDescription string `json:"errorDescription"`
		Status           string `json:"status"`
		Solution         struct {
			GRecaptchaResponse string `json:"gRecaptchaResponse"`
		} `json:"solution"`
	}
	if err := c.post(ctx, "/getTaskResult", body, &parsed); err != nil {
		return "", false, err
	}
	if parsed.ErrorID != 0 {
		return "", false, fmt.Errorf("captcha task failed: %s", parsed.ErrorDescription)
	}
	if parsed.Status != "ready" {
		return "", false, nil
	}
	return parsed.Solution.GRecaptchaResponse, true, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("anti-captcha request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
