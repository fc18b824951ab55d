package domain

import (
	"errors"
	"fmt"
)

// Sentinel failures recovered locally by clearing state and redirecting
// to the settings surface.
var (
	ErrCredentialMissing = errors.New("credential missing")
	ErrDecryption        = errors.New("credential decryption failed")
)

// Terminal browser-sync failures. None of these are retried by the engine;
// retry policy belongs to the caller.
var (
	ErrCaptchaUnsolvable = errors.New("captcha detected but no solver key configured")
	ErrTwoFactorRequired = errors.New("2FA required - please disable 2FA on your Stripe account first")
	ErrDownloadFailed    = errors.New("export download missing or empty")
)

// UpstreamError wraps any rejection from the structured API: auth failures,
// rate limits and network errors all surface through it.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// NavigationError reports selector exhaustion at a named engine step.
type NavigationError struct {
	Step      string
	Selectors []string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed at step %s: no candidate selector matched (%d tried)", e.Step, len(e.Selectors))
}

// DeliveryError reports a notification channel failure. It is returned as
// a structured outcome, never thrown across the collaborator boundary.
type DeliveryError struct {
	Channel string
	Message string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery via %s failed: %s", e.Channel, e.Message)
}
