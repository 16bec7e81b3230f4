package browser

import (
	"context"

	"github.com/chromedp/chromedp"
)

// Chrome renders pages with a headless Chrome instance via chromedp. The
// browser process persists across renders; each render runs in its own tab.
type Chrome struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChrome creates an unlaunched Chrome renderer.
func NewChrome() *Chrome {
	return &Chrome{}
}

// Launch starts the browser process. The process outlives the call that
// launched it, so it is anchored to the background context.
func (c *Chrome) Launch() error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions forces the browser to start now, so launch
	// failures surface here instead of on the first render.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return err
	}

	c.allocCancel = allocCancel
	c.browserCtx = browserCtx
	c.browserCancel = browserCancel
	return nil
}

// Render opens a fresh tab, navigates to url, waits for the page to load,
// and returns the rendered document. The tab is closed before returning.
func (c *Chrome) Render(ctx context.Context, url string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		tabCtx, cancelDeadline = context.WithDeadline(tabCtx, deadline)
		defer cancelDeadline()
	}

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts down the browser process.
func (c *Chrome) Close() error {
	if c.browserCancel != nil {
		c.browserCancel()
		c.browserCancel = nil
	}
	if c.allocCancel != nil {
		c.allocCancel()
		c.allocCancel = nil
	}
	c.browserCtx = nil
	return nil
}
