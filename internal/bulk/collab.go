package bulk

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonathan/profile-scraper/internal/browser"
	"github.com/jonathan/profile-scraper/internal/crawling"
	"github.com/jonathan/profile-scraper/internal/types"
)

// Page is the live listing tab. Only the controller's goroutine touches it during a run.
// *browser.Session satisfies it.
type Page interface {
	URL(ctx context.Context) (string, error)
	ScrollHeight(ctx context.Context) (int64, error)
	ScrollTo(ctx context.Context, y int64) error
	HTML(ctx context.Context) (string, error)
	LinkBoxes(ctx context.Context, selector string, depth int) ([]browser.LinkBox, error)
	ScrollIntoView(ctx context.Context, ref browser.ElementRef) error
	Highlight(ctx context.Context, ref browser.ElementRef, on bool) error
}

// Opener loads a profile by absolute URL and extracts it.
type Opener interface {
	OpenAndExtract(ctx context.Context, url string) (*types.Profile, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string) (*types.Profile, error)

// OpenAndExtract calls f.
func (f OpenerFunc) OpenAndExtract(ctx context.Context, url string) (*types.Profile, error) {
	return f(ctx, url)
}

// Renderer returns the rendered document of a URL. *browser.Session satisfies it.
type Renderer interface {
	Open(ctx context.Context, url string) (string, error)
}

// ExtractingOpener renders each profile with r and runs the page extractor on it.
func ExtractingOpener(r Renderer) Opener {
	return OpenerFunc(func(ctx context.Context, url string) (*types.Profile, error) {
		html, err := r.Open(ctx, url)
		if err != nil {
			return nil, err
		}
		return crawling.ExtractProfileHTML(html, url)
	})
}

// Persister stores an extracted profile, upserting by its key.
type Persister interface {
	Persist(ctx context.Context, p *types.Profile) error
}

// Clock suspends the run. Sleep returns early with ctx's error when ctx ends.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Rand is the source of the inter-item delay.
type Rand interface {
	Intn(n int) int
}

type systemClock struct{}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SystemClock sleeps on real timers.
func SystemClock() Clock { return systemClock{} }

// lockedRand makes a *rand.Rand safe to share.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// NewRand returns a Rand seeded with seed. Equal seeds give equal delay sequences.
func NewRand(seed int64) Rand {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}
