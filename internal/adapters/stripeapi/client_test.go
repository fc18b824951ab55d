package stripeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	stripe "github.com/stripe/stripe-go/v79"

	"github.com/a-steris/paydash/internal/app/domain"
)

func stubClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:           stripe.String(srv.URL),
		LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelError},
	})
	backends := &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	return NewWithBackends(backends), srv
}

func TestListPaymentsMapsRawRecords(t *testing.T) {
	var authHeader string
	client, _ := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			http.NotFound(w, r)
			return
		}
		authHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"object": "list",
			"url": "/v1/payment_intents",
			"has_more": false,
			"data": [
				{"id":"pi_1","object":"payment_intent","amount":1000,"currency":"usd","status":"succeeded","created":1700000000,"receipt_email":"a@example.com"},
				{"id":"pi_2","object":"payment_intent","amount":2000,"currency":"usd","status":"succeeded","created":1700000100,"receipt_email":"b@example.com"}
			]
		}`))
	}))

	payments, err := client.ListPayments(context.Background(), "sk_test_scoped", 2, 0)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(payments))
	}
	if payments[0].AmountCents != 1000 || payments[1].AmountCents != 2000 {
		t.Fatalf("unexpected amounts: %+v", payments)
	}
	if payments[0].CustomerEmail != "a@example.com" {
		t.Fatalf("unexpected email: %q", payments[0].CustomerEmail)
	}
	if authHeader != "Bearer sk_test_scoped" {
		t.Fatalf("expected per-call key on request, got %q", authHeader)
	}
}

func TestListPaymentsPaginatesLargeLimits(t *testing.T) {
	var served int
	var limits []string
	client, _ := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limits = append(limits, r.URL.Query().Get("limit"))

		var page strings.Builder
		page.WriteString(`{"object":"list","url":"/v1/payment_intents","has_more":true,"data":[`)
		for i := 0; i < 100; i++ {
			if i > 0 {
				page.WriteString(",")
			}
			served++
			fmt.Fprintf(&page, `{"id":"pi_%d","object":"payment_intent","amount":100,"currency":"usd","status":"succeeded","created":1700000000}`, served)
		}
		page.WriteString(`]}`)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(page.String()))
	}))

	payments, err := client.ListPayments(context.Background(), "sk_test_1", 150, 0)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 150 {
		t.Fatalf("expected 150 payments across pages, got %d", len(payments))
	}
	for _, limit := range limits {
		if limit != "100" {
			t.Fatalf("page size above the API maximum: %q", limit)
		}
	}
	if len(limits) < 2 {
		t.Fatalf("expected pagination, got %d requests", len(limits))
	}
}

func TestVerifyMapsRejectionToUpstreamError(t *testing.T) {
	client, _ := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid API Key provided","type":"invalid_request_error"}}`))
	}))

	err := client.Verify(context.Background(), "sk_bad")
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Message != "Invalid API Key provided" {
		t.Fatalf("unexpected message: %q", upstream.Message)
	}
}

func TestGetBalance(t *testing.T) {
	client, _ := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/balance" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"balance","available":[{"amount":123456,"currency":"usd"}],"pending":[]}`))
	}))

	amounts, err := client.GetBalance(context.Background(), "sk_test_1")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if len(amounts) != 1 || amounts[0].AmountCents != 123456 || amounts[0].Currency != "usd" {
		t.Fatalf("unexpected balance: %+v", amounts)
	}
}

func TestListInvoicesCapsUnboundedQueries(t *testing.T) {
	calls := 0
	client, _ := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		// Always claims more pages; the cap must stop the iteration.
		w.Write([]byte(`{
			"object": "list",
			"url": "/v1/invoices",
			"has_more": true,
			"data": [
				{"id":"in_1","object":"invoice","amount_due":990,"currency":"usd","status":"paid","created":1700000000,"due_date":1700600000,"customer_email":"a@example.com"}
			]
		}`))
	}))

	invoices, err := client.ListInvoices(context.Background(), "sk_test_1", 0, 3)
	if err != nil {
		t.Fatalf("list invoices: %v", err)
	}
	if len(invoices) != 3 {
		t.Fatalf("expected maxCount to stop pagination at 3, got %d", len(invoices))
	}
	if !invoices[0].Paid {
		t.Fatal("expected paid flag derived from status")
	}
}
