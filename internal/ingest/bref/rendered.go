package bref

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Rendered fetches pages through a headless browser. Basketball Reference
// keeps some tables out of the static HTML; rendering the page surfaces
// them. Used only as a fallback, so one browser instance is shared across
// fetches.
type Rendered struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewRendered creates the shared headless browser allocator.
func NewRendered() (*Rendered, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Rendered{
		allocCtx: allocCtx,
		cancel:   cancel,
	}, nil
}

// Close releases browser resources.
func (r *Rendered) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Fetch navigates to url and returns the fully rendered page HTML.
func (r *Rendered) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second), // Allow JS to render
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)

	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}

	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}

	return htmlContent, nil
}
