package browser

import (
	"context"
	"time"
)

// Driver is the minimal browser surface the sync engine needs. The
// chromedp implementation carries the real behavior; tests drive the
// state machine with a scripted fake.
type Driver interface {
	// Navigate loads a URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// WaitAny tries an ordered list of candidate selectors and returns
	// the first that appears. Exhausting the list within the timeout
	// yields *domain.NavigationError naming the step.
	WaitAny(ctx context.Context, step string, candidates []string, timeout time.Duration) (string, error)
	// TypeHuman fills a field character by character with randomized
	// inter-keystroke delay.
	TypeHuman(ctx context.Context, selector, text string) error
	// Click hovers briefly, then clicks the selector.
	Click(ctx context.Context, selector string) error
	// EvaluateString runs a script expected to return a string.
	EvaluateString(ctx context.Context, script string) (string, error)
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// AwaitDownload blocks until a triggered download completes and
	// returns the on-disk path of the received file.
	AwaitDownload(ctx context.Context, timeout time.Duration) (string, error)
	// Close tears the browser context down. Must be called on every
	// path, success or failure.
	Close() error
}

// DriverFactory opens a fresh, isolated browser context for one sync
// attempt. Contexts are never shared between attempts.
type DriverFactory func(ctx context.Context) (Driver, error)
