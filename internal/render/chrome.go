package render

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	pkgerrors "github.com/UH-CI/course-text-extraction/pkg/errors"
)

// ChromeRenderer renders JavaScript-heavy catalog pages in a headless
// browser. Each renderer owns its own browser context; workers never share
// one, which keeps tab state and navigation isolated per worker.
type ChromeRenderer struct {
	Source  string
	Timeout time.Duration
	Settle  time.Duration

	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
}

// NewChromeRenderer starts a headless browser session for one worker.
func NewChromeRenderer(source string, timeout, settle time.Duration) (*ChromeRenderer, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	return &ChromeRenderer{
		Source:      source,
		Timeout:     timeout,
		Settle:      settle,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		browserStop: browserStop,
	}, nil
}

// Open navigates a fresh tab to the location and returns the rendered HTML.
func (r *ChromeRenderer) Open(ctx context.Context, location string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, r.Timeout)
	defer cancelTimeout()

	// Propagate caller cancellation into the tab
	go func() {
		select {
		case <-ctx.Done():
			cancelTimeout()
		case <-timeoutCtx.Done():
		}
	}()

	tasks := []chromedp.Action{
		chromedp.Navigate(location),
		chromedp.WaitReady("body"),
	}
	if r.Settle > 0 {
		tasks = append(tasks, chromedp.Sleep(r.Settle))
	}

	var pageHTML string
	tasks = append(tasks, chromedp.OuterHTML("html", &pageHTML))

	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return "", pkgerrors.NewTransport(r.Source, fmt.Sprintf("render %s", location), err)
	}

	return pageHTML, nil
}

// Close shuts the browser session down.
func (r *ChromeRenderer) Close() error {
	r.browserStop()
	r.allocCancel()
	return nil
}
