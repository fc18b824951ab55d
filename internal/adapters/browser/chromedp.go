package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/a-steris/paydash/internal/app/domain"
)

// chromeDriver drives a real headless Chrome through the DevTools
// protocol. One instance owns one isolated browser context.
type chromeDriver struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	downloadDir string

	mu         sync.Mutex
	downloaded chan string
}

// NewChromeFactory returns a DriverFactory that launches a fresh Chrome
// per attempt. Downloads land in a throwaway directory under tmpDir
// until the engine files them.
func NewChromeFactory(headless bool, tmpDir string) DriverFactory {
	return func(ctx context.Context) (Driver, error) {
		return newChromeDriver(ctx, headless, tmpDir)
	}
}

func newChromeDriver(ctx context.Context, headless bool, tmpDir string) (*chromeDriver, error) {
	downloadDir, err := os.MkdirTemp(tmpDir, "paydash-dl-")
	if err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	d := &chromeDriver{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		downloadDir: downloadDir,
		downloaded:  make(chan string, 1),
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if progress, ok := ev.(*cdpbrowser.EventDownloadProgress); ok {
			if progress.State == cdpbrowser.DownloadProgressStateCompleted {
				d.mu.Lock()
				select {
				case d.downloaded <- filepath.Join(d.downloadDir, progress.GUID):
				default:
				}
				d.mu.Unlock()
			}
		}
	})

	// Stealth and download wiring must happen before the first
	// navigation.
	if err := chromedp.Run(tabCtx,
		cdpbrowser.
			SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(downloadDir).
			WithEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("prepare browser: %w", err)
	}

	return d, nil
}

func (d *chromeDriver) Navigate(ctx context.Context, url string) error {
	return chromedp.Run(d.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (d *chromeDriver) WaitAny(ctx context.Context, step string, candidates []string, timeout time.Duration) (string, error) {
	perCandidate := timeout / time.Duration(len(candidates))
	if perCandidate < 250*time.Millisecond {
		perCandidate = 250 * time.Millisecond
	}
	for _, sel := range candidates {
		waitCtx, cancel := context.WithTimeout(d.ctx, perCandidate)
		err := chromedp.Run(waitCtx, chromedp.WaitVisible(sel, chromedp.ByQuery))
		cancel()
		if err == nil {
			return sel, nil
		}
	}
	return "", &domain.NavigationError{Step: step, Selectors: candidates}
}

func (d *chromeDriver) TypeHuman(ctx context.Context, selector, text string) error {
	if err := chromedp.Run(d.ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return err
	}
	for _, r := range text {
		if err := chromedp.Run(d.ctx, chromedp.SendKeys(selector, string(r), chromedp.ByQuery)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(keystrokeDelay()):
		}
	}
	return nil
}

func (d *chromeDriver) Click(ctx context.Context, selector string) error {
	if err := chromedp.Run(d.ctx, chromedp.ScrollIntoView(selector, chromedp.ByQuery)); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(hoverDelay()):
	}
	return chromedp.Run(d.ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (d *chromeDriver) EvaluateString(ctx context.Context, script string) (string, error) {
	var out string
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(script, &out)); err != nil {
		return "", err
	}
	return out, nil
}

func (d *chromeDriver) Location(ctx context.Context) (string, error) {
	var loc string
	if err := chromedp.Run(d.ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func (d *chromeDriver) AwaitDownload(ctx context.Context, timeout time.Duration) (string, error) {
	select {
	case path := <-d.downloaded:
		return path, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(timeout):
		return "", fmt.Errorf("no download completed within %s", timeout)
	}
}

func (d *chromeDriver) Close() error {
	d.cancelTab()
	d.cancelAlloc()
	return os.RemoveAll(d.downloadDir)
}
