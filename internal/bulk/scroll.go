package bulk

import "context"

// autoScroll loads lazily rendered entries. Each pass scrolls to the bottom, waits for
// the settle delay, and re-measures; an unchanged height earns one more measurement after
// the grace delay. Scrolling ends when the height stops growing or after MaxScrollPasses,
// and the page is returned to the top. It reports the number of passes made.
func (c *Controller) autoScroll(ctx context.Context) (int, error) {
	t := c.timing
	var last int64
	current, err := c.page.ScrollHeight(ctx)
	if err != nil {
		return 0, err
	}

	passes := 0
	for current > last && passes < t.MaxScrollPasses {
		last = current
		if err := c.page.ScrollTo(ctx, current); err != nil {
			return passes, err
		}
		if err := c.clock.Sleep(ctx, t.ScrollSettle); err != nil {
			return passes, err
		}
		if current, err = c.page.ScrollHeight(ctx); err != nil {
			return passes, err
		}
		passes++

		if current == last {
			if err := c.clock.Sleep(ctx, t.ScrollGrace); err != nil {
				return passes, err
			}
			if current, err = c.page.ScrollHeight(ctx); err != nil {
				return passes, err
			}
		}
		c.logger.Debug().Int("pass", passes).Int64("height", current).Msg("scroll pass")
	}

	if err := c.page.ScrollTo(ctx, 0); err != nil {
		return passes, err
	}
	if err := c.clock.Sleep(ctx, t.TopSettle); err != nil {
		return passes, err
	}
	return passes, nil
}
