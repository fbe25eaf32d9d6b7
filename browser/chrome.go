package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromePage drives a headless Chrome tab through the DevTools protocol.
type ChromePage struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewChromePage launches a browser and opens one tab. The caller owns the
// page and must Close it.
func NewChromePage(headless bool) (*ChromePage, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1920, 1080),
	)
	if !headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	p := &ChromePage{ctx: ctx, cancelCtx: cancelCtx, cancelAlloc: cancelAlloc}
	// an empty Run launches the browser process up front, so scenario
	// timings are not skewed by startup cost
	if err := chromedp.Run(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *ChromePage) Navigate(url string) error {
	return chromedp.Run(p.ctx, chromedp.Navigate(url))
}

func (p *ChromePage) SetValue(selector, value string) error {
	return chromedp.Run(p.ctx, chromedp.SendKeys(selector, value, chromedp.ByQuery))
}

func (p *ChromePage) Click(selector string) error {
	return chromedp.Run(p.ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (p *ChromePage) WaitVisible(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *ChromePage) Text(selector string) (string, error) {
	var out string
	err := chromedp.Run(p.ctx, chromedp.Text(selector, &out, chromedp.ByQuery))
	return out, err
}

func (p *ChromePage) IsVisible(selector string, timeout time.Duration) bool {
	return p.WaitVisible(selector, timeout) == nil
}

func (p *ChromePage) Title() (string, error) {
	var title string
	err := chromedp.Run(p.ctx, chromedp.Title(&title))
	return title, err
}

func (p *ChromePage) Close() {
	p.cancelCtx()
	p.cancelAlloc()
}
