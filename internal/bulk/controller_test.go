package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-scraper/internal/browser"
	"github.com/jonathan/profile-scraper/internal/types"
)

const listingURL = "https://www.linkedin.com/search/results/people/?keywords=go"

const listingHTML = `
<html><body><ul>
  <li class="reusable-search__result-container">
    <div class="entity-result__title-text"><a href="/in/jane-doe?miniProfileUrn=1"><span aria-hidden="true">Jane Doe</span></a></div>
    <div class="entity-result__primary-subtitle">Staff Engineer at Initech</div>
  </li>
  <li class="reusable-search__result-container">
    <div class="entity-result__title-text"><a href="https://www.linkedin.com/in/jane-doe/"><span aria-hidden="true">Jane Doe</span></a></div>
  </li>
  <li class="reusable-search__result-container">
    <div class="entity-result__title-text"><a href="/in/sam-rivera"><span aria-hidden="true">Sam Rivera</span></a></div>
    <div class="entity-result__primary-subtitle">Designer at Globex</div>
  </li>
  <li class="reusable-search__result-container">
    <div class="entity-result__title-text"><a href="/in/ana-lima"><span aria-hidden="true">Ana Lima</span></a></div>
  </li>
</ul></body></html>`

const profileHTML = `
<html><head><title>Jane Doe | LinkedIn</title></head><body>
  <h1 class="text-heading-xlarge">Jane Doe</h1>
  <div class="text-body-medium break-words">Staff Engineer at Initech</div>
</body></html>`

type fakePage struct {
	url      string
	html     string
	htmlErr  error
	boxesErr error

	heights     func(call int) int64
	heightCalls int
	scrolls     []int64
	focused     []browser.ElementRef
	lit         map[browser.ElementRef]bool
	onFocus     func(index int)
}

func (p *fakePage) URL(context.Context) (string, error) { return p.url, nil }

func (p *fakePage) ScrollHeight(context.Context) (int64, error) {
	h := p.heights(p.heightCalls)
	p.heightCalls++
	return h, nil
}

func (p *fakePage) ScrollTo(_ context.Context, y int64) error {
	p.scrolls = append(p.scrolls, y)
	return nil
}

func (p *fakePage) HTML(context.Context) (string, error) { return p.html, p.htmlErr }

func (p *fakePage) LinkBoxes(context.Context, string, int) ([]browser.LinkBox, error) {
	return nil, p.boxesErr
}

func (p *fakePage) ScrollIntoView(_ context.Context, ref browser.ElementRef) error {
	p.focused = append(p.focused, ref)
	if p.onFocus != nil {
		p.onFocus(len(p.focused))
	}
	return nil
}

func (p *fakePage) Highlight(_ context.Context, ref browser.ElementRef, on bool) error {
	if p.lit == nil {
		p.lit = make(map[browser.ElementRef]bool)
	}
	p.lit[ref] = on
	return nil
}

type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
	onWait func(d time.Duration)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	hook := c.onWait
	c.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

// delays returns the inter-item waits, which are the only sleeps of at least MinDelay.
func (c *fakeClock) delays() []time.Duration {
	var out []time.Duration
	for _, d := range c.sleeps {
		if d >= DefaultTiming().MinDelay {
			out = append(out, d)
		}
	}
	return out
}

type seqRand struct {
	values []int
	args   []int
}

func (r *seqRand) Intn(n int) int {
	r.args = append(r.args, n)
	v := r.values[(len(r.args)-1)%len(r.values)]
	return v % n
}

type memPersister struct {
	saved []*types.Profile
	fail  map[string]error
}

func (m *memPersister) Persist(_ context.Context, p *types.Profile) error {
	if err := m.fail[p.ProfileURL]; err != nil {
		return err
	}
	m.saved = append(m.saved, p)
	return nil
}

type harness struct {
	page  *fakePage
	clock *fakeClock
	rand  *seqRand
	store *memPersister
	rec   *Recorder
	ctrl  *Controller
}

func newHarness(page *fakePage, opts ...Option) *harness {
	h := &harness{
		page:  page,
		clock: &fakeClock{},
		rand:  &seqRand{values: []int{0, 9000}},
		store: &memPersister{},
		rec:   &Recorder{},
	}
	if page.heights == nil {
		page.heights = func(int) int64 { return 1000 }
	}
	base := []Option{
		WithClock(h.clock),
		WithRand(h.rand),
		WithPersister(h.store),
		WithLogger(zerolog.Nop()),
	}
	h.ctrl = NewController(page, h.rec.Emitter(), append(base, opts...)...)
	return h
}

func (h *harness) eventsOf(t EventType) []Event {
	var out []Event
	for _, e := range h.rec.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func savedURLs(store *memPersister) []string {
	var urls []string
	for _, p := range store.saved {
		urls = append(urls, p.ProfileURL)
	}
	return urls
}

func TestStart_CardsComplete(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, html: listingHTML})

	res, err := h.ctrl.Start(context.Background(), Config{})
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, StateCompleted, h.ctrl.State())
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, []string{
		"https://www.linkedin.com/in/jane-doe",
		"https://www.linkedin.com/in/sam-rivera",
		"https://www.linkedin.com/in/ana-lima",
	}, savedURLs(h.store))

	jane := h.store.saved[0]
	assert.Equal(t, types.SourceCard, jane.Source)
	assert.Equal(t, "Staff Engineer", jane.Title)
	assert.Equal(t, "Initech", jane.Company)

	assert.Equal(t, []Event{
		{Type: EventProgress, Current: 1, Total: 3},
		{Type: EventProgress, Current: 2, Total: 3},
		{Type: EventProgress, Current: 3, Total: 3},
	}, h.eventsOf(EventProgress))

	last, ok := h.rec.Last()
	require.True(t, ok)
	assert.Equal(t, EventComplete, last.Type)
	assert.Equal(t, "Successfully processed 3 profiles!", last.Message)

	assert.Len(t, h.page.focused, 3)
	for ref, on := range h.page.lit {
		assert.False(t, on, "highlight left on %v", ref)
	}
}

func TestStart_DelaysOnlyBetweenItems(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, html: listingHTML})

	_, err := h.ctrl.Start(context.Background(), Config{})
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{5 * time.Second, 14 * time.Second}, h.clock.delays())
	assert.Equal(t, []int{9001, 9001}, h.rand.args)
}

func TestNextDelay_Range(t *testing.T) {
	c := NewController(&fakePage{}, nil, WithRand(NewRand(42)))
	for range 200 {
		d := c.nextDelay()
		assert.GreaterOrEqual(t, d, 5*time.Second)
		assert.LessOrEqual(t, d, 14*time.Second)
		assert.Zero(t, d%time.Millisecond)
	}
}

func TestNewRand_Reproducible(t *testing.T) {
	a, b := NewRand(7), NewRand(7)
	for range 10 {
		assert.Equal(t, a.Intn(9001), b.Intn(9001))
	}
}

func TestStart_MaxProfiles(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, html: listingHTML})

	res, err := h.ctrl.Start(context.Background(), Config{MaxProfiles: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Attempted)
	assert.Len(t, h.clock.delays(), 1)
}

func TestStart_StopAfterItem(t *testing.T) {
	page := &fakePage{url: listingURL, html: listingHTML}
	h := newHarness(page)
	page.onFocus = func(n int) {
		if n == 2 {
			h.ctrl.Stop()
		}
	}

	res, err := h.ctrl.Start(context.Background(), Config{})
	require.NoError(t, err)

	assert.Equal(t, StateStopped, res.State)
	assert.Equal(t, 2, res.Attempted)
	assert.Len(t, h.store.saved, 2, "item in flight completes")
	assert.Len(t, h.clock.delays(), 1, "no delay after the stop")
	assert.Empty(t, h.eventsOf(EventComplete))

	last, _ := h.rec.Last()
	assert.Equal(t, EventStopped, last.Type)
	assert.Equal(t, "Stopped after 2/3 profiles", last.Message)
	assert.False(t, h.ctrl.Running())
}

func TestStart_StopDuringLastItemStillStopped(t *testing.T) {
	page := &fakePage{url: listingURL, html: listingHTML}
	h := newHarness(page)
	page.onFocus = func(n int) {
		if n == 3 {
			h.ctrl.Stop()
		}
	}

	res, err := h.ctrl.Start(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded)
	last, _ := h.rec.Last()
	assert.Equal(t, EventStopped, last.Type)
}

func TestStart_StopInterruptsDelay(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, html: listingHTML})
	h.clock.onWait = func(d time.Duration) {
		if d >= DefaultTiming().MinDelay {
			h.ctrl.Stop()
		}
	}

	res, err := h.ctrl.Start(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, StateStopped, res.State)
	assert.Equal(t, 1, res.Attempted)
}

func TestStart_NoProfiles(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, html: `<html><body><a href="/feed">feed</a></body></html>`})

	res, err := h.ctrl.Start(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrNoProfiles)
	assert.Equal(t, StateErrored, res.State)
	assert.Zero(t, res.Attempted)

	last, _ := h.rec.Last()
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Message, "No profiles found")
}

func TestStart_DiscoveryFailureIsFatal(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, htmlErr: errors.New("target closed")})

	res, err := h.ctrl.Start(context.Background(), Config{})
	require.Error(t, err)
	assert.Equal(t, StateErrored, res.State)

	last, _ := h.rec.Last()
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Message, "target closed")
}

func TestStart_SingleProfilePage(t *testing.T) {
	h := newHarness(&fakePage{url: "https://www.linkedin.com/in/jane-doe/", html: profileHTML})

	res, err := h.ctrl.Start(context.Background(), Config{AutoScroll: true})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, 1, res.Succeeded)
	assert.Empty(t, h.page.scrolls, "no scrolling on a profile page")

	require.Len(t, h.store.saved, 1)
	p := h.store.saved[0]
	assert.Equal(t, "Jane Doe", p.FullName)
	assert.Equal(t, types.SourcePage, p.Source)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", p.ProfileURL)

	assert.Equal(t, []Event{{Type: EventProgress, Current: 1, Total: 1}}, h.eventsOf(EventProgress))
	last, _ := h.rec.Last()
	assert.Equal(t, "Successfully processed 1 profile!", last.Message)
}

func TestStart_FailureIsolation(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, html: listingHTML})
	h.store.fail = map[string]error{
		"https://www.linkedin.com/in/sam-rivera": errors.New("disk full"),
	}

	res, err := h.ctrl.Start(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)

	var warned bool
	for _, e := range h.eventsOf(EventStatus) {
		if e.Severity == types.SeverityWarning && strings.Contains(e.Message, "disk full") {
			warned = true
		}
	}
	assert.True(t, warned)
	assert.Equal(t, []Event{
		{Type: EventProgress, Current: 1, Total: 3},
		{Type: EventProgress, Current: 2, Total: 3},
	}, h.eventsOf(EventProgress))
}

func TestStart_OpenProfiles(t *testing.T) {
	var opened []string
	opener := OpenerFunc(func(_ context.Context, url string) (*types.Profile, error) {
		opened = append(opened, url)
		if strings.HasSuffix(url, "sam-rivera") {
			panic("renderer crashed")
		}
		return types.NewProfileBuilder(types.SourcePage, time.Now()).Name("Jane Doe").ProfileURL(url).Build(), nil
	})
	h := newHarness(&fakePage{url: listingURL, html: listingHTML}, WithOpener(opener))

	res, err := h.ctrl.Start(context.Background(), Config{OpenProfiles: true})
	require.NoError(t, err)
	assert.Len(t, opened, 3)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)

	var settles int
	for _, d := range h.clock.sleeps {
		if d == DefaultTiming().OpenSettle {
			settles++
		}
	}
	assert.Equal(t, 2, settles)
}

func TestStart_OpenProfilesNeedsOpener(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, html: listingHTML})
	_, err := h.ctrl.Start(context.Background(), Config{OpenProfiles: true})
	assert.Error(t, err)
	assert.Equal(t, StateIdle, h.ctrl.State())
}

func TestStart_InvalidConfig(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, html: listingHTML})
	_, err := h.ctrl.Start(context.Background(), Config{MaxProfiles: -1})
	assert.Error(t, err)
}

func TestStart_AlreadyRunning(t *testing.T) {
	page := &fakePage{url: listingURL, html: listingHTML}
	h := newHarness(page)
	var nested error
	page.onFocus = func(n int) {
		if n == 1 {
			_, nested = h.ctrl.Start(context.Background(), Config{})
		}
	}

	_, err := h.ctrl.Start(context.Background(), Config{})
	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrAlreadyRunning)
}

func TestStop_Idle(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, html: listingHTML})
	assert.False(t, h.ctrl.Stop())
}

func TestStart_AutoScrollBeforeDiscovery(t *testing.T) {
	heights := []int64{1000, 2000, 2000, 2000}
	page := &fakePage{url: listingURL, html: listingHTML, heights: func(i int) int64 {
		return heights[min(i, len(heights)-1)]
	}}
	h := newHarness(page)

	_, err := h.ctrl.Start(context.Background(), Config{AutoScroll: true, MaxProfiles: 1})
	require.NoError(t, err)

	assert.Equal(t, []int64{1000, 2000, 0}, page.scrolls)
	timing := DefaultTiming()
	assert.Equal(t, []time.Duration{
		timing.ScrollSettle, timing.ScrollSettle, timing.ScrollGrace,
		timing.TopSettle, timing.PostScrollSettle, timing.FocusSettle,
	}, h.clock.sleeps)
}

func TestAutoScroll(t *testing.T) {
	timing := DefaultTiming()
	tests := []struct {
		name       string
		heights    func(call int) int64
		wantPasses int
		wantSleeps []time.Duration
	}{
		{
			name:       "stops when height settles",
			heights:    seq(1000, 2000, 3000, 3000, 3000),
			wantPasses: 3,
			wantSleeps: []time.Duration{
				timing.ScrollSettle, timing.ScrollSettle, timing.ScrollSettle, timing.ScrollGrace, timing.TopSettle,
			},
		},
		{
			name:       "grace wait absorbs late content",
			heights:    seq(1000, 1000, 2000, 2000, 2000),
			wantPasses: 2,
			wantSleeps: []time.Duration{
				timing.ScrollSettle, timing.ScrollGrace, timing.ScrollSettle, timing.ScrollGrace, timing.TopSettle,
			},
		},
		{
			name:       "bounded pass count",
			heights:    func(call int) int64 { return int64(1000 * (call + 1)) },
			wantPasses: 20,
		},
		{
			name:       "empty document",
			heights:    seq(0),
			wantPasses: 0,
			wantSleeps: []time.Duration{timing.TopSettle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &fakePage{heights: tt.heights}
			clock := &fakeClock{}
			c := NewController(page, nil, WithClock(clock), WithLogger(zerolog.Nop()))

			passes, err := c.autoScroll(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantPasses, passes)
			assert.Equal(t, int64(0), page.scrolls[len(page.scrolls)-1])
			if tt.wantSleeps != nil {
				assert.Equal(t, tt.wantSleeps, clock.sleeps)
			}
		})
	}
}

func TestStart_StopDuringAutoScroll(t *testing.T) {
	h := newHarness(&fakePage{url: listingURL, html: listingHTML, heights: seq(1000, 2000, 3000)})
	h.clock.onWait = func(d time.Duration) {
		if d == DefaultTiming().ScrollSettle {
			h.ctrl.Stop()
		}
	}

	res, err := h.ctrl.Start(context.Background(), Config{AutoScroll: true})
	require.NoError(t, err)
	assert.Equal(t, StateStopped, res.State)
	assert.Zero(t, res.Attempted)
}

func TestExtractingOpener(t *testing.T) {
	r := renderFunc(func(_ context.Context, url string) (string, error) {
		if strings.Contains(url, "broken") {
			return "", fmt.Errorf("browser rendering failed")
		}
		return profileHTML, nil
	})
	opener := ExtractingOpener(r)

	p, err := opener.OpenAndExtract(context.Background(), "https://www.linkedin.com/in/jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.FullName)
	assert.Equal(t, "Staff Engineer", p.Title)

	_, err = opener.OpenAndExtract(context.Background(), "https://www.linkedin.com/in/broken")
	assert.Error(t, err)
}

type renderFunc func(ctx context.Context, url string) (string, error)

func (f renderFunc) Open(ctx context.Context, url string) (string, error) { return f(ctx, url) }

func seq(values ...int64) func(int) int64 {
	return func(call int) int64 { return values[min(call, len(values)-1)] }
}
