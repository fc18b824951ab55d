package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a-steris/paydash/internal/app/domain"
	"github.com/a-steris/paydash/internal/app/ports"
	"github.com/a-steris/paydash/internal/downloads"
)

const (
	resultPollInterval = 500 * time.Millisecond

	// Login result detection waits far longer than a single selector
	// step: slow logins are normal. Used only when the caller's context
	// carries no deadline of its own.
	defaultLoginWait = 5 * time.Minute
)

// SolverFactory builds a captcha solver scoped to one session's solver
// account key.
type SolverFactory func(apiKey string) ports.CaptchaSolver

// Engine walks a browser session through the interactive invoice export
// flow as an explicit state machine. Each attempt gets its own driver
// and tears it down on every exit path.
type Engine struct {
	newDriver    DriverFactory
	solverFor    SolverFactory
	downloads    *downloads.Store
	selectorWait time.Duration
	log          *slog.Logger
}

func NewEngine(factory DriverFactory, solverFor SolverFactory, dl *downloads.Store, selectorWait time.Duration, log *slog.Logger) *Engine {
	if selectorWait <= 0 {
		selectorWait = 10 * time.Second
	}
	return &Engine{
		newDriver:    factory,
		solverFor:    solverFor,
		downloads:    dl,
		selectorWait: selectorWait,
		log:          log,
	}
}

type attempt struct {
	id       string
	driver   Driver
	creds    domain.BrowserStrategy
	savedCSV string
}

// SyncInvoices runs one full login-navigate-export-download attempt and
// reports the outcome. It never panics across the driver boundary and
// never returns credentials in the result.
func (e *Engine) SyncInvoices(ctx context.Context, creds domain.BrowserStrategy) domain.SyncResult {
	a := &attempt{id: uuid.NewString(), creds: creds}
	log := e.log.With(slog.String("attempt", a.id))
	log.Info("starting invoice sync")

	state := domain.StateInit
	var runErr error
	for !state.Terminal() {
		if err := ctx.Err(); err != nil {
			runErr = err
			state = domain.StateFailed
			break
		}
		log.Debug("sync step", slog.String("state", string(state)))
		state, runErr = e.step(ctx, a, state)
		if runErr != nil {
			state = domain.StateFailed
		}
	}

	if a.driver != nil {
		if err := a.driver.Close(); err != nil {
			log.Warn("browser teardown failed", slog.Any("error", err))
		}
	}

	if state == domain.StateDone {
		log.Info("invoice sync finished", slog.String("file", a.savedCSV))
		return domain.SyncResult{
			OK:       true,
			Message:  "Invoices exported successfully",
			FilePath: a.savedCSV,
		}
	}

	msg := "invoice sync failed"
	if runErr != nil {
		msg = runErr.Error()
	}
	log.Warn("invoice sync failed", slog.String("reason", msg))
	return domain.SyncResult{OK: false, Message: msg}
}

func (e *Engine) step(ctx context.Context, a *attempt, state domain.SyncState) (domain.SyncState, error) {
	switch state {
	case domain.StateInit:
		d, err := e.newDriver(ctx)
		if err != nil {
			return state, fmt.Errorf("open browser: %w", err)
		}
		a.driver = d
		return domain.StateNavigateLogin, nil

	case domain.StateNavigateLogin:
		if err := a.driver.Navigate(ctx, loginURL); err != nil {
			return state, fmt.Errorf("open login page: %w", err)
		}
		return domain.StateFillCredentials, nil

	case domain.StateFillCredentials:
		return e.fillCredentials(ctx, a)

	case domain.StateCaptchaCheck:
		return e.checkCaptcha(ctx, a)

	case domain.StateSubmit:
		sel, err := a.driver.WaitAny(ctx, "submit button", submitButtonSelectors, e.selectorWait)
		if err != nil {
			return state, err
		}
		if err := a.driver.Click(ctx, sel); err != nil {
			return state, fmt.Errorf("submit login: %w", err)
		}
		return domain.StateAwaitResult, nil

	case domain.StateAwaitResult:
		return e.awaitLoginResult(ctx, a)

	case domain.StateNavigateInvoices:
		if err := e.clickFirst(ctx, a, "invoices navigation", invoicesNavSelectors); err != nil {
			return state, err
		}
		if _, err := a.driver.WaitAny(ctx, "invoice list", invoiceListSelectors, e.selectorWait); err != nil {
			return state, err
		}
		return domain.StateSetDateRange, nil

	case domain.StateSetDateRange:
		if err := e.clickFirst(ctx, a, "date range picker", dateRangeSelectors); err != nil {
			return state, err
		}
		if err := e.clickFirst(ctx, a, "all-time range option", allTimeOptionSelectors); err != nil {
			return state, err
		}
		return domain.StateTriggerExport, nil

	case domain.StateTriggerExport:
		if err := e.clickFirst(ctx, a, "export button", exportButtonSelectors); err != nil {
			return state, err
		}
		return domain.StateAwaitDownload, nil

	case domain.StateAwaitDownload:
		path, err := a.driver.AwaitDownload(ctx, e.selectorWait*6)
		if err != nil {
			return state, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
		}
		a.savedCSV = path
		return domain.StateSaveFile, nil

	case domain.StateSaveFile:
		saved, err := e.downloads.SaveAs(a.savedCSV, time.Now())
		if err != nil {
			return state, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
		}
		a.savedCSV = saved
		return domain.StateDone, nil
	}

	return state, fmt.Errorf("unexpected sync state %q", state)
}

func (e *Engine) fillCredentials(ctx context.Context, a *attempt) (domain.SyncState, error) {
	emailSel, err := a.driver.WaitAny(ctx, "login form", emailFieldSelectors, e.selectorWait)
	if err != nil {
		return domain.StateFillCredentials, err
	}
	if err := a.driver.TypeHuman(ctx, emailSel, a.creds.Email); err != nil {
		return domain.StateFillCredentials, fmt.Errorf("fill email: %w", err)
	}

	passSel, err := a.driver.WaitAny(ctx, "password field", passwordFieldSelectors, e.selectorWait)
	if err != nil {
		return domain.StateFillCredentials, err
	}
	if err := a.driver.TypeHuman(ctx, passSel, a.creds.Password); err != nil {
		return domain.StateFillCredentials, fmt.Errorf("fill password: %w", err)
	}
	return domain.StateCaptchaCheck, nil
}

func (e *Engine) checkCaptcha(ctx context.Context, a *attempt) (domain.SyncState, error) {
	siteKey, err := a.driver.EvaluateString(ctx, captchaProbe)
	if err != nil {
		return domain.StateCaptchaCheck, fmt.Errorf("probe captcha: %w", err)
	}
	if siteKey == "" {
		return domain.StateSubmit, nil
	}

	// A challenge is on the page. Without a solver key the attempt
	// cannot proceed, so fail before submitting anything.
	if e.solverFor == nil || a.creds.CaptchaKey == "" {
		return domain.StateCaptchaCheck, domain.ErrCaptchaUnsolvable
	}

	pageURL, err := a.driver.Location(ctx)
	if err != nil {
		pageURL = loginURL
	}
	token, err := e.solverFor(a.creds.CaptchaKey).Solve(ctx, pageURL, siteKey)
	if err != nil {
		return domain.StateCaptchaCheck, fmt.Errorf("%w: %v", domain.ErrCaptchaUnsolvable, err)
	}
	injected, err := a.driver.EvaluateString(ctx, fmt.Sprintf(captchaInject, token))
	if err != nil {
		return domain.StateCaptchaCheck, fmt.Errorf("inject captcha token: %w", err)
	}
	if injected != "ok" {
		return domain.StateCaptchaCheck, fmt.Errorf("%w: response field not found for solved token", domain.ErrCaptchaUnsolvable)
	}
	return domain.StateSubmit, nil
}

// awaitLoginResult polls for the first of three outcomes: an on-page
// login error, a two-factor redirect, or a rendered dashboard. The wait
// is bounded by the attempt's context, not the per-step selector wait.
func (e *Engine) awaitLoginResult(ctx context.Context, a *attempt) (domain.SyncState, error) {
	deadline := time.Now().Add(defaultLoginWait)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	for {
		if errText, err := a.driver.EvaluateString(ctx, loginErrorProbe); err == nil && errText != "" {
			return domain.StateAwaitResult, &domain.UpstreamError{Message: errText}
		}

		if loc, err := a.driver.Location(ctx); err == nil && isTwoFactorURL(loc) {
			return domain.StateAwaitResult, domain.ErrTwoFactorRequired
		}

		if _, err := a.driver.WaitAny(ctx, "dashboard", dashboardSelectors, resultPollInterval); err == nil {
			return domain.StateNavigateInvoices, nil
		} else if !isNavigationMiss(err) {
			return domain.StateAwaitResult, err
		}

		if time.Now().After(deadline) {
			return domain.StateAwaitResult, &domain.NavigationError{
				Step:      "post-login result",
				Selectors: dashboardSelectors,
			}
		}
		select {
		case <-ctx.Done():
			return domain.StateAwaitResult, ctx.Err()
		case <-time.After(resultPollInterval):
		}
	}
}

func (e *Engine) clickFirst(ctx context.Context, a *attempt, step string, candidates []string) error {
	sel, err := a.driver.WaitAny(ctx, step, candidates, e.selectorWait)
	if err != nil {
		return err
	}
	if err := a.driver.Click(ctx, sel); err != nil {
		return fmt.Errorf("click %s: %w", step, err)
	}
	return nil
}

func isTwoFactorURL(loc string) bool {
	lower := strings.ToLower(loc)
	return strings.Contains(lower, "2fa") || strings.Contains(lower, "mfa") ||
		strings.Contains(lower, "two_factor") || strings.Contains(lower, "verify")
}

// isNavigationMiss reports whether the error only means "none of the
// candidates appeared yet", which the result poll treats as retryable.
func isNavigationMiss(err error) bool {
	var nav *domain.NavigationError
	return errors.As(err, &nav)
}
