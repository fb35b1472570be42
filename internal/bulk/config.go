package bulk

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the start command of one run.
type Config struct {
	AutoScroll bool `json:"auto_scroll"`
	// MaxProfiles bounds the number of entries processed. Zero means unbounded.
	MaxProfiles  int  `json:"max_profiles" validate:"gte=0"`
	OpenProfiles bool `json:"open_profiles"`
}

var validate = validator.New()

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid bulk config: %w", err)
	}
	return nil
}

// limit returns how many of n discovered entries the run processes.
func (c Config) limit(n int) int {
	if c.MaxProfiles > 0 && c.MaxProfiles < n {
		return c.MaxProfiles
	}
	return n
}

// Timing holds the fixed waits of a run.
type Timing struct {
	ScrollSettle     time.Duration `validate:"gte=0"`
	ScrollGrace      time.Duration `validate:"gte=0"`
	MaxScrollPasses  int           `validate:"gt=0"`
	TopSettle        time.Duration `validate:"gte=0"`
	PostScrollSettle time.Duration `validate:"gte=0"`
	FocusSettle      time.Duration `validate:"gte=0"`
	OpenSettle       time.Duration `validate:"gte=0"`
	MinDelay         time.Duration `validate:"gte=0"`
	MaxDelay         time.Duration `validate:"gtefield=MinDelay"`
}

// DefaultTiming returns the pacing used against the live site.
func DefaultTiming() Timing {
	return Timing{
		ScrollSettle:     1500 * time.Millisecond,
		ScrollGrace:      1000 * time.Millisecond,
		MaxScrollPasses:  20,
		TopSettle:        500 * time.Millisecond,
		PostScrollSettle: 2 * time.Second,
		FocusSettle:      500 * time.Millisecond,
		OpenSettle:       3 * time.Second,
		MinDelay:         5 * time.Second,
		MaxDelay:         14 * time.Second,
	}
}
