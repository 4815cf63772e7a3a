// -----------------------------------------------------------------------
// Scripted browser session for the calendar source. The page builds its
// event table client-side, so a plain HTTP GET returns an empty shell;
// rendering through Chrome is the only way to see the rows.
// -----------------------------------------------------------------------

package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/auspex/internal/common"
)

// PageFetcher renders a URL and returns the resulting HTML. Satisfied by
// Browser; tests substitute a canned implementation.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
	Close() error
}

// Browser owns a single headless Chrome session, started lazily on the
// first fetch and reused until Close. One instance is enough for a
// single-user calendar pull; there is no pool.
type Browser struct {
	config *common.CalendarConfig
	logger arbor.ILogger

	renderWait  time.Duration
	pageTimeout time.Duration

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	started       bool

	// Paces successive page loads so the source never sees a burst.
	pacer *rate.Limiter
}

// NewBrowser creates a browser session manager for the calendar source
func NewBrowser(config *common.CalendarConfig, logger arbor.ILogger) *Browser {
	return &Browser{
		config:      config,
		logger:      logger,
		renderWait:  parseDurationOr(config.RenderWait, 5*time.Second),
		pageTimeout: parseDurationOr(config.PageTimeout, 45*time.Second),
		pacer:       rate.NewLimiter(rate.Every(parseDurationOr(config.RequestDelay, time.Second)), 1),
	}
}

// parseDurationOr parses a config duration string, falling back when the
// value is empty or invalid
func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ensureStarted launches Chrome on first use. Must be called with the
// mutex held.
func (b *Browser) ensureStarted() error {
	if b.started {
		return nil
	}

	startTime := time.Now()

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(b.config.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Startup probe so a missing Chrome binary fails here, not mid-fetch.
	probeCtx, probeCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer probeCancel()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("browser failed startup probe: %w", err)
	}

	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	b.started = true

	b.logger.Info().
		Bool("headless", b.config.Headless).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser session started")

	return nil
}

// FetchPage navigates to the URL, waits for client-side rendering, and
// returns the full document HTML. Successive calls are spaced by the
// configured request delay.
func (b *Browser) FetchPage(ctx context.Context, url string) (string, error) {
	if err := b.pacer.Wait(ctx); err != nil {
		return "", fmt.Errorf("fetch cancelled while pacing: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureStarted(); err != nil {
		return "", err
	}

	fetchCtx, cancel := context.WithTimeout(b.browserCtx, b.pageTimeout)
	defer cancel()

	// Honor caller cancellation even though chromedp runs on the
	// browser's own context tree.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	b.logger.Debug().
		Str("url", url).
		Dur("render_wait", b.renderWait).
		Msg("Fetching calendar page")

	startTime := time.Now()
	var html string
	err := chromedp.Run(fetchCtx,
		network.Enable(),
		// The source localizes on Accept-Language; the parser expects the
		// English labels ("All Day", tentative markers).
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "en-US,en;q=0.9",
		}),
		chromedp.Navigate(url),
		chromedp.Sleep(b.renderWait), // Wait for the event table to render
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("fetch cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}

	b.logger.Debug().
		Str("url", url).
		Int("content_size", len(html)).
		Dur("fetch_time", time.Since(startTime)).
		Msg("Calendar page rendered")

	return html, nil
}

// Close shuts down the browser session. Safe to call when the session
// never started.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}

	b.browserCancel()
	b.allocCancel()
	b.started = false

	b.logger.Info().Msg("Browser session closed")
	return nil
}
