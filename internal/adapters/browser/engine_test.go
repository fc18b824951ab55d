package browser

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a-steris/paydash/internal/app/domain"
	"github.com/a-steris/paydash/internal/app/ports"
	"github.com/a-steris/paydash/internal/downloads"
)

// fakeDriver scripts one browser session. Selector waits succeed with
// the first candidate unless the step is listed in failSteps.
type fakeDriver struct {
	loginError     string
	captchaKey     string
	injectResult   string
	location       string
	dashboard      bool
	dashboardAfter int
	dashboardPolls int
	download       string
	failSteps      map[string]bool
	typed          map[string]string
	clicked        []string
	submitted      bool
	closed         bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		injectResult: "ok",
		location:     "https://dashboard.stripe.com/login",
		failSteps:    map[string]bool{},
		typed:        map[string]string{},
	}
}

func (f *fakeDriver) Navigate(ctx context.Context, url string) error { return nil }

func (f *fakeDriver) WaitAny(ctx context.Context, step string, candidates []string, timeout time.Duration) (string, error) {
	if f.failSteps[step] {
		return "", &domain.NavigationError{Step: step, Selectors: candidates}
	}
	if step == "dashboard" {
		f.dashboardPolls++
		if !f.dashboard || f.dashboardPolls <= f.dashboardAfter {
			return "", &domain.NavigationError{Step: step, Selectors: candidates}
		}
	}
	return candidates[0], nil
}

func (f *fakeDriver) TypeHuman(ctx context.Context, selector, text string) error {
	f.typed[selector] = text
	return nil
}

func (f *fakeDriver) Click(ctx context.Context, selector string) error {
	f.clicked = append(f.clicked, selector)
	if strings.Contains(selector, "submit") {
		f.submitted = true
	}
	return nil
}

func (f *fakeDriver) EvaluateString(ctx context.Context, script string) (string, error) {
	switch {
	case strings.Contains(script, "g-recaptcha-response"):
		return f.injectResult, nil
	case strings.Contains(script, "recaptcha"):
		return f.captchaKey, nil
	default:
		return f.loginError, nil
	}
}

func (f *fakeDriver) Location(ctx context.Context) (string, error) { return f.location, nil }

func (f *fakeDriver) AwaitDownload(ctx context.Context, timeout time.Duration) (string, error) {
	return f.download, nil
}

func (f *fakeDriver) Close() error {
	f.closed = true
	return nil
}

type fakeSolver struct {
	gotAPIKey  string
	gotSiteKey string
	token      string
}

func (s *fakeSolver) Solve(ctx context.Context, websiteURL, siteKey string) (string, error) {
	s.gotSiteKey = siteKey
	return s.token, nil
}

func testEngine(t *testing.T, d *fakeDriver, solver *fakeSolver) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := downloads.NewStore(dir)
	if err != nil {
		t.Fatalf("downloads store: %v", err)
	}
	factory := func(ctx context.Context) (Driver, error) { return d, nil }
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	var solverFor SolverFactory
	if solver != nil {
		solverFor = func(apiKey string) ports.CaptchaSolver {
			solver.gotAPIKey = apiKey
			return solver
		}
	}
	return NewEngine(factory, solverFor, store, 50*time.Millisecond, log), dir
}

func stageDownload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("stage download: %v", err)
	}
	return path
}

func TestSyncHappyPath(t *testing.T) {
	d := newFakeDriver()
	d.dashboard = true
	d.download = stageDownload(t, "Invoice ID,Amount\nin_1,10.00\n")

	engine, dir := testEngine(t, d, nil)
	res := engine.SyncInvoices(context.Background(), domain.BrowserStrategy{
		Email:    "owner@example.com",
		Password: "hunter2",
	})

	if !res.OK {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if !strings.HasPrefix(filepath.Base(res.FilePath), "stripe_invoices_") {
		t.Fatalf("unexpected saved name: %s", res.FilePath)
	}
	if filepath.Dir(res.FilePath) != dir {
		t.Fatalf("file saved outside downloads dir: %s", res.FilePath)
	}
	if d.typed[`input[name="email"]`] != "owner@example.com" {
		t.Fatalf("email not typed into login form: %+v", d.typed)
	}
	if !d.closed {
		t.Fatal("driver not torn down after success")
	}
}

func TestSyncLoginErrorFailsWithoutFile(t *testing.T) {
	d := newFakeDriver()
	d.loginError = "Invalid email or password"

	engine, dir := testEngine(t, d, nil)
	res := engine.SyncInvoices(context.Background(), domain.BrowserStrategy{
		Email:    "owner@example.com",
		Password: "wrong",
	})

	if res.OK {
		t.Fatal("expected failure on rejected login")
	}
	if !strings.Contains(res.Message, "Invalid") {
		t.Fatalf("expected login rejection message, got %q", res.Message)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read downloads dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed sync must not leave files, found %d", len(entries))
	}
	if !d.closed {
		t.Fatal("driver not torn down after failure")
	}
}

func TestSyncCaptchaWithoutSolverKeyFailsBeforeSubmit(t *testing.T) {
	d := newFakeDriver()
	d.captchaKey = "6LdSiteKey"

	engine, _ := testEngine(t, d, nil)
	res := engine.SyncInvoices(context.Background(), domain.BrowserStrategy{
		Email:    "owner@example.com",
		Password: "hunter2",
	})

	if res.OK {
		t.Fatal("expected failure when a challenge is present with no solver key")
	}
	if res.Message != domain.ErrCaptchaUnsolvable.Error() {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if d.submitted {
		t.Fatal("must not submit credentials past an unsolvable challenge")
	}
	if !d.closed {
		t.Fatal("driver not torn down")
	}
}

func TestSyncCaptchaSolvedWithConfiguredKey(t *testing.T) {
	d := newFakeDriver()
	d.captchaKey = "6LdSiteKey"
	d.dashboard = true
	d.download = stageDownload(t, "Invoice ID\nin_1\n")
	solver := &fakeSolver{token: "solved-token"}

	engine, _ := testEngine(t, d, solver)
	res := engine.SyncInvoices(context.Background(), domain.BrowserStrategy{
		Email:      "owner@example.com",
		Password:   "hunter2",
		CaptchaKey: "anticaptcha-key",
	})

	if !res.OK {
		t.Fatalf("expected success with solver, got %q", res.Message)
	}
	if solver.gotSiteKey != "6LdSiteKey" {
		t.Fatalf("solver received wrong site key: %q", solver.gotSiteKey)
	}
	if solver.gotAPIKey != "anticaptcha-key" {
		t.Fatalf("solver scoped to wrong account key: %q", solver.gotAPIKey)
	}
}

func TestSyncWaitsForSlowDashboard(t *testing.T) {
	d := newFakeDriver()
	d.dashboard = true
	// Dashboard only renders on a later poll, well past the per-step
	// selector wait. The attempt deadline, not the step wait, bounds
	// result detection.
	d.dashboardAfter = 2
	d.download = stageDownload(t, "Invoice ID\nin_1\n")

	engine, _ := testEngine(t, d, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res := engine.SyncInvoices(ctx, domain.BrowserStrategy{
		Email:    "owner@example.com",
		Password: "hunter2",
	})

	if !res.OK {
		t.Fatalf("expected slow dashboard to still succeed, got %q", res.Message)
	}
	if d.dashboardPolls < 3 {
		t.Fatalf("expected repeated dashboard polls, got %d", d.dashboardPolls)
	}
}

func TestSyncCaptchaInjectionMissingFieldFails(t *testing.T) {
	d := newFakeDriver()
	d.captchaKey = "6LdSiteKey"
	d.injectResult = "missing"
	solver := &fakeSolver{token: "solved-token"}

	engine, _ := testEngine(t, d, solver)
	res := engine.SyncInvoices(context.Background(), domain.BrowserStrategy{
		Email:      "owner@example.com",
		Password:   "hunter2",
		CaptchaKey: "anticaptcha-key",
	})

	if res.OK {
		t.Fatal("expected failure when the response field is absent")
	}
	if !strings.Contains(res.Message, "response field not found") {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if d.submitted {
		t.Fatal("must not submit with an uninjected token")
	}
}

func TestSyncSelectorExhaustionNamesStep(t *testing.T) {
	d := newFakeDriver()
	d.dashboard = true
	d.failSteps["invoices navigation"] = true

	engine, _ := testEngine(t, d, nil)
	res := engine.SyncInvoices(context.Background(), domain.BrowserStrategy{
		Email:    "owner@example.com",
		Password: "hunter2",
	})

	if res.OK {
		t.Fatal("expected failure on selector exhaustion")
	}
	if !strings.Contains(res.Message, "invoices navigation") {
		t.Fatalf("failure must name the step, got %q", res.Message)
	}
}

func TestSyncTwoFactorRedirectDetected(t *testing.T) {
	d := newFakeDriver()
	d.location = "https://dashboard.stripe.com/login/2fa"

	engine, _ := testEngine(t, d, nil)
	res := engine.SyncInvoices(context.Background(), domain.BrowserStrategy{
		Email:    "owner@example.com",
		Password: "hunter2",
	})

	if res.OK {
		t.Fatal("expected failure on two-factor redirect")
	}
	if res.Message != domain.ErrTwoFactorRequired.Error() {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestKeystrokeDelayBounds(t *testing.T) {
	seen := map[time.Duration]bool{}
	for range 200 {
		delay := keystrokeDelay()
		if delay < keystrokeDelayMin || delay >= keystrokeDelayMin+keystrokeJitter {
			t.Fatalf("delay out of range: %s", delay)
		}
		seen[delay] = true
	}
	if len(seen) < 2 {
		t.Fatal("keystroke delay shows no jitter")
	}
}
