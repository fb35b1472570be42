// Package browser drives a live Chrome page for bulk traversal.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// ErrElementGone is returned when a referenced element is no longer in the live page.
var ErrElementGone = errors.New("element no longer present")

// ElementRef addresses an element of the live page: the Index-th match of Selector,
// then Up parent hops. Refs are computed on a snapshot and resolved against the live DOM.
type ElementRef struct {
	Selector string `json:"selector"`
	Index    int    `json:"index"`
	Up       int    `json:"up"`
}

// Size is an element's rendered box size in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LinkBox describes one link of the live page and the box sizes of the link and its
// ancestors, nearest first.
type LinkBox struct {
	Href      string `json:"href"`
	Index     int    `json:"index"`
	Ancestors []Size `json:"sizes"`
}

// SessionOptions configures the headless browser.
type SessionOptions struct {
	// RemoteURL attaches to an already running browser (its DevTools websocket URL)
	// so an existing logged-in session is reused. Empty launches a new browser.
	RemoteURL   string
	Headless    bool
	UserDataDir string
	OpenSettle  time.Duration
	// Viewport is the emulated window size. Listing pages lazy-load cards as they
	// enter it, so a desktop size keeps the card layout stable.
	Width, Height int64
}

// DefaultSessionOptions returns headless defaults.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		Headless:   true,
		OpenSettle: 3 * time.Second,
		Width:      1366,
		Height:     900,
	}
}

// Session is a browser tab that the bulk controller drives. Opened profiles load in
// separate tabs of the same browser so the listing tab keeps its scroll position.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	opts    SessionOptions
}

// NewSession starts (or attaches to) a browser and opens its first tab.
// Requires Chrome/Chromium to be installed on the system unless RemoteURL is set.
func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if opts.UserDataDir != "" {
			execOpts = append(execOpts, chromedp.UserDataDir(opts.UserDataDir))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, execOpts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	s := &Session{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{browserCancel, allocCancel},
		opts:    opts,
	}

	// Starts the browser.
	var actions []chromedp.Action
	if opts.Width > 0 && opts.Height > 0 {
		actions = append(actions, emulation.SetDeviceMetricsOverride(opts.Width, opts.Height, 1, false))
	}
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser start failed: %w", err)
	}
	return s, nil
}

// Close shuts the browser down (or detaches from a remote one).
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// run executes actions on the session tab, aborting when ctx is cancelled.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads url in the session tab and waits for the body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	log.Debug().Str("url", url).Msg("navigating")
	return s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body"))
}

// URL returns the current location of the session tab.
func (s *Session) URL(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, chromedp.Location(&loc))
	return loc, err
}

// ScrollHeight returns the document's scrollable height.
func (s *Session) ScrollHeight(ctx context.Context) (int64, error) {
	var h float64
	err := s.run(ctx, chromedp.Evaluate(`document.documentElement.scrollHeight`, &h))
	return int64(h), err
}

// ScrollTo scrolls the window to the vertical offset y.
func (s *Session) ScrollTo(ctx context.Context, y int64) error {
	return s.run(ctx, chromedp.Evaluate(fmt.Sprintf(`window.scrollTo(0, %d)`, y), nil))
}

// HTML returns the rendered document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html))
	return html, err
}

// LinkBoxes reports every element matching selector with the sizes of up to depth ancestors.
func (s *Session) LinkBoxes(ctx context.Context, selector string, depth int) ([]LinkBox, error) {
	sel, _ := json.Marshal(selector)
	script := fmt.Sprintf(`(function(sel, depth) {
  return Array.from(document.querySelectorAll(sel)).map(function(a, i) {
    var sizes = [];
    for (var el = a, d = 0; el && d <= depth; el = el.parentElement, d++) {
      var r = el.getBoundingClientRect();
      sizes.push({width: r.width, height: r.height});
    }
    return {href: a.getAttribute('href') || '', index: i, sizes: sizes};
  });
})(%s, %d)`, sel, depth)

	var boxes []LinkBox
	if err := s.run(ctx, chromedp.Evaluate(script, &boxes)); err != nil {
		return nil, fmt.Errorf("link boxes: %w", err)
	}
	return boxes, nil
}

// ScrollIntoView centers the referenced element in the viewport.
func (s *Session) ScrollIntoView(ctx context.Context, ref ElementRef) error {
	return s.onElement(ctx, ref, `el.scrollIntoView({behavior: 'smooth', block: 'center'});`)
}

// Highlight draws (or clears) an outline around the referenced element.
func (s *Session) Highlight(ctx context.Context, ref ElementRef, on bool) error {
	style := `''`
	if on {
		style = `'3px solid #0a66c2'`
	}
	return s.onElement(ctx, ref, `el.style.outline = `+style+`;`)
}

func (s *Session) onElement(ctx context.Context, ref ElementRef, body string) error {
	sel, _ := json.Marshal(ref.Selector)
	script := fmt.Sprintf(`(function(sel, idx, up) {
  var el = document.querySelectorAll(sel)[idx];
  for (var k = 0; el && k < up; k++) { el = el.parentElement; }
  if (!el) { return false; }
  %s
  return true;
})(%s, %d, %d)`, body, sel, ref.Index, ref.Up)

	var found bool
	if err := s.run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return err
	}
	if !found {
		return ErrElementGone
	}
	return nil
}

// Open loads url in a new tab, waits for it to settle, and returns the rendered document.
// The tab is closed afterwards.
func (s *Session) Open(ctx context.Context, url string) (string, error) {
	tabCtx, closeTab := chromedp.NewContext(s.ctx)
	defer closeTab()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(s.opts.OpenSettle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug().Str("url", url).Int("bytes", len(html)).Msg("rendered profile tab")
	return html, nil
}
