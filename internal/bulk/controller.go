package bulk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/profile-scraper/internal/crawling"
	"github.com/jonathan/profile-scraper/internal/platform"
	"github.com/jonathan/profile-scraper/internal/types"
)

var (
	// ErrAlreadyRunning is returned by Start while another run is active.
	ErrAlreadyRunning = errors.New("bulk run already in progress")
	// ErrNoProfiles ends a run whose page yielded no entries.
	ErrNoProfiles = errors.New("no profiles found on this page")
)

// linkBoxDepth is how many ancestors of each profile link get measured.
const linkBoxDepth = 2

// Result summarizes a finished run.
type Result struct {
	State     State `json:"state"`
	Total     int   `json:"total"`
	Attempted int   `json:"attempted"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithOpener sets the collaborator used when a run opens each profile.
func WithOpener(o Opener) Option { return func(c *Controller) { c.opener = o } }

// WithPersister sets where extracted profiles are stored.
func WithPersister(p Persister) Option { return func(c *Controller) { c.persister = p } }

// WithClock replaces the real clock.
func WithClock(clk Clock) Option { return func(c *Controller) { c.clock = clk } }

// WithRand replaces the delay source.
func WithRand(r Rand) Option { return func(c *Controller) { c.rand = r } }

// WithTiming replaces the default pacing.
func WithTiming(t Timing) Option { return func(c *Controller) { c.timing = t } }

// WithLogger sets the controller's logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Controller) { c.logger = l } }

// Controller runs bulk traversals over one page, one run at a time.
type Controller struct {
	page      Page
	emitter   Emitter
	opener    Opener
	persister Persister
	clock     Clock
	rand      Rand
	timing    Timing
	logger    zerolog.Logger

	mu    sync.Mutex
	state State
	run   *RunContext
}

// NewController creates an idle controller for page. A nil emitter discards events.
func NewController(page Page, emitter Emitter, opts ...Option) *Controller {
	if emitter == nil {
		emitter = EmitFunc(func(Event) {})
	}
	c := &Controller{
		page:    page,
		emitter: emitter,
		clock:   SystemClock(),
		rand:    NewRand(time.Now().UnixNano()),
		timing:  DefaultTiming(),
		logger:  log.Logger,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.logger.Debug().Str("state", string(s)).Msg("bulk state")
}

// Running reports whether a run is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run != nil
}

// Stop asks the active run to end at its next item boundary. It reports whether a run
// was active.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()
	if run == nil {
		return false
	}
	run.Cancel()
	c.logger.Info().Msg("bulk stop requested")
	return true
}

// Start runs one traversal to its end and blocks until then. The outcome is reported
// through the emitter and the returned Result; the error is non-nil only for an Errored
// run or a rejected start.
func (c *Controller) Start(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validate.Struct(c.timing); err != nil {
		return nil, fmt.Errorf("invalid bulk timing: %w", err)
	}
	if cfg.OpenProfiles && c.opener == nil {
		return nil, fmt.Errorf("invalid bulk config: open_profiles needs a profile opener")
	}

	c.mu.Lock()
	if c.run != nil {
		c.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	run := NewRunContext(ctx)
	c.run = run
	c.mu.Unlock()
	defer func() {
		run.release()
		c.mu.Lock()
		c.run = nil
		c.mu.Unlock()
	}()

	c.setState(StateScanning)
	c.emitter.Status("Checking page...", types.SeverityInfo)

	res := &Result{}
	err := c.execute(ctx, run, cfg, res)

	switch {
	case run.IsCancelled():
		res.State = StateStopped
		c.setState(StateStopped)
		c.emitter.Stopped(fmt.Sprintf("Stopped after %d/%d profiles", res.Succeeded, res.Total))
		return res, nil
	case err != nil:
		res.State = StateErrored
		c.setState(StateErrored)
		c.logger.Error().Err(err).Msg("bulk run failed")
		if errors.Is(err, ErrNoProfiles) {
			c.emitter.Error("No profiles found. Check the page layout and try again.")
		} else {
			c.emitter.Error(fmt.Sprintf("Error: %v", err))
		}
		return res, err
	default:
		res.State = StateCompleted
		c.setState(StateCompleted)
		noun := "profiles"
		if res.Succeeded == 1 {
			noun = "profile"
		}
		c.emitter.Complete(fmt.Sprintf("Successfully processed %d %s!", res.Succeeded, noun))
		return res, nil
	}
}

// execute walks the run's states. Page access and delays use the run's context so a
// stop interrupts them; item work uses ctx so an item in flight always finishes.
func (c *Controller) execute(ctx context.Context, run *RunContext, cfg Config, res *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	rctx := run.Context()

	pageURL, err := c.page.URL(rctx)
	if err != nil {
		return fmt.Errorf("failed to read page location: %w", err)
	}
	if platform.DetectPage(pageURL) == platform.PageProfile {
		return c.single(ctx, pageURL, res)
	}

	c.emitter.Status("Scanning for profiles...", types.SeverityInfo)
	if cfg.AutoScroll {
		c.setState(StateAutoScrolling)
		c.emitter.Status("Auto-scrolling to load all profiles...", types.SeverityInfo)
		passes, err := c.autoScroll(rctx)
		if err != nil {
			return fmt.Errorf("auto-scroll failed: %w", err)
		}
		c.logger.Debug().Int("passes", passes).Msg("auto-scroll finished")
		if err := c.clock.Sleep(rctx, c.timing.PostScrollSettle); err != nil {
			return err
		}
	}

	entries, err := c.discover(rctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrNoProfiles
	}

	res.Total = cfg.limit(len(entries))
	c.emitter.Status(fmt.Sprintf("Found %d profiles. Starting download...", len(entries)), types.SeverityInfo)
	c.setState(StateIterating)
	c.iterate(ctx, run, cfg, entries[:res.Total], res)
	return nil
}

// single handles a run started on a profile page: the page itself is the only item.
func (c *Controller) single(ctx context.Context, pageURL string, res *Result) error {
	c.emitter.Status("Downloading current profile...", types.SeverityInfo)
	res.Total = 1
	res.Attempted = 1

	html, err := c.page.HTML(ctx)
	if err != nil {
		return fmt.Errorf("failed to read profile page: %w", err)
	}
	p, err := crawling.ExtractProfileHTML(html, pageURL)
	if err != nil {
		return err
	}
	if err := c.persist(ctx, p); err != nil {
		return err
	}
	res.Succeeded = 1
	c.emitter.Progress(1, 1)
	return nil
}

func (c *Controller) discover(ctx context.Context) ([]crawling.Entry, error) {
	html, err := c.page.HTML(ctx)
	if err != nil {
		return nil, &crawling.DiscoveryError{Message: "failed to snapshot page", Cause: err}
	}
	pageURL, _ := c.page.URL(ctx)
	doc, err := crawling.ParseHTML(html, pageURL)
	if err != nil {
		return nil, &crawling.DiscoveryError{Message: "failed to parse page", Cause: err}
	}
	boxes, err := c.page.LinkBoxes(ctx, crawling.ProfileLinkSelector, linkBoxDepth)
	if err != nil {
		// Without sizes every profile link is kept; avatars may then duplicate cards,
		// but dedup by URL collapses them.
		c.logger.Warn().Err(err).Msg("link sizes unavailable")
		boxes = nil
	}
	return crawling.DiscoverEntries(doc, boxes)
}

// iterate processes entries strictly one at a time. The stop flag is checked before
// each item and before each delay.
func (c *Controller) iterate(ctx context.Context, run *RunContext, cfg Config, entries []crawling.Entry, res *Result) {
	for i, entry := range entries {
		if run.IsCancelled() {
			return
		}
		res.Attempted++

		name := crawling.CardName(entry.Node)
		c.emitter.Status(fmt.Sprintf("Processing %d/%d: %s", i+1, res.Total, name), types.SeverityInfo)
		if err := c.processEntry(ctx, cfg, entry, name); err != nil {
			res.Failed++
			c.logger.Warn().Err(err).Int("index", i).Str("url", entry.URL).Msg("profile failed")
			c.emitter.Status(fmt.Sprintf("Failed %s: %v", name, err), types.SeverityWarning)
		} else {
			res.Succeeded++
			c.emitter.Progress(res.Succeeded, res.Total)
		}

		if i == len(entries)-1 || run.IsCancelled() {
			continue
		}
		delay := c.nextDelay()
		c.emitter.Status(fmt.Sprintf("Waiting %.1fs before next profile...", delay.Seconds()), types.SeverityInfo)
		if err := c.clock.Sleep(run.Context(), delay); err != nil {
			return
		}
	}
}

// nextDelay draws a uniform delay in [MinDelay, MaxDelay] at millisecond resolution.
func (c *Controller) nextDelay() time.Duration {
	lo := c.timing.MinDelay.Milliseconds()
	span := c.timing.MaxDelay.Milliseconds() - lo
	return time.Duration(lo+int64(c.rand.Intn(int(span)+1))) * time.Millisecond
}

// processEntry extracts one entry. A panic is contained to the entry.
func (c *Controller) processEntry(ctx context.Context, cfg Config, entry crawling.Entry, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing entry: %v", r)
		}
	}()

	if err := c.page.ScrollIntoView(ctx, entry.Ref); err != nil {
		return fmt.Errorf("failed to focus entry: %w", err)
	}
	_ = c.clock.Sleep(ctx, c.timing.FocusSettle)
	if err := c.page.Highlight(ctx, entry.Ref, true); err != nil {
		c.logger.Debug().Err(err).Msg("highlight failed")
	}
	defer func() {
		if err := c.page.Highlight(ctx, entry.Ref, false); err != nil {
			c.logger.Debug().Err(err).Msg("highlight reset failed")
		}
	}()

	var p *types.Profile
	if cfg.OpenProfiles {
		p, err = c.opener.OpenAndExtract(ctx, entry.URL)
		if err != nil {
			return err
		}
		_ = c.clock.Sleep(ctx, c.timing.OpenSettle)
	} else {
		p = crawling.ExtractCard(entry.Node, entry.Href, name)
	}
	return c.persist(ctx, p)
}

func (c *Controller) persist(ctx context.Context, p *types.Profile) error {
	if p == nil {
		return fmt.Errorf("no profile extracted")
	}
	if c.persister == nil {
		return nil
	}
	if err := c.persister.Persist(ctx, p); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}
