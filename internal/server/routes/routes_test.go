package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/a-steris/paydash/internal/app/domain"
	"github.com/a-steris/paydash/internal/creds"
	"github.com/a-steris/paydash/internal/vault"
)

// fakeStripeAPI records calls and serves canned records.
type fakeStripeAPI struct {
	verifyErr   error
	verifiedKey string
	balance     []domain.BalanceAmount
	payments    []domain.RawPayment
	customers   []domain.RawCustomer
	invoices    []domain.RawInvoice
	listErr     error
}

func (f *fakeStripeAPI) Verify(ctx context.Context, key string) error {
	f.verifiedKey = key
	return f.verifyErr
}

func (f *fakeStripeAPI) GetBalance(ctx context.Context, key string) ([]domain.BalanceAmount, error) {
	return f.balance, f.listErr
}

func (f *fakeStripeAPI) ListPayments(ctx context.Context, key string, limit int, since int64) ([]domain.RawPayment, error) {
	return f.payments, f.listErr
}

func (f *fakeStripeAPI) ListCustomers(ctx context.Context, key string, limit int) ([]domain.RawCustomer, error) {
	return f.customers, f.listErr
}

func (f *fakeStripeAPI) ListInvoices(ctx context.Context, key string, since int64, maxCount int) ([]domain.RawInvoice, error) {
	return f.invoices, f.listErr
}

func newTestCredsStore(t *testing.T) *creds.Store {
	t.Helper()
	v, err := vault.New("routes-test-vault")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return creds.NewStore("routes-test-secret", false, v)
}

// seedSession saves credentials through the store and returns cookies a
// follow-up request should carry.
func seedSession(t *testing.T, store *creds.Store, kinds map[string]string) []*http.Cookie {
	t.Helper()
	var cookies []*http.Cookie
	for kind, value := range kinds {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		for _, cookie := range cookies {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		if err := store.Save(req, rec, kind, value); err != nil {
			t.Fatalf("seed credential %s: %v", kind, err)
		}
		if set := rec.Result().Cookies(); len(set) > 0 {
			cookies = set
		}
	}
	return cookies
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}
