package scraper

import (
	"context"
	"time"
)

// ConvergeOptions bounds a convergence loop.
type ConvergeOptions struct {
	// MaxAttempts caps the number of scroll actions.
	MaxAttempts int
	// StabilityWindow is how many consecutive unchanged measurements end the loop.
	StabilityWindow int
	// SettleDelay is waited after each scroll before measuring.
	SettleDelay time.Duration
	// Sleep waits for d or until ctx is done. Defaults to sleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
}

const (
	DefaultMaxAttempts     = 15
	DefaultStabilityWindow = 2
)

func (o ConvergeOptions) withDefaults() ConvergeOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.StabilityWindow <= 0 {
		o.StabilityWindow = DefaultStabilityWindow
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	return o
}

// Converge repeats scroll, settle and measure until the measured count has
// not changed for StabilityWindow consecutive attempts, or MaxAttempts is
// reached. The baseline count is zero. A failed scroll or measurement is
// treated as "no change". Only context cancellation is returned as an error.
func Converge(ctx context.Context, measure func(context.Context) (int, error), scroll func(context.Context) error, opts ConvergeOptions) (int, error) {
	opts = opts.withDefaults()

	previous, stable := 0, 0
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return previous, err
		}
		_ = scroll(ctx)
		if err := opts.Sleep(ctx, opts.SettleDelay); err != nil {
			return previous, err
		}

		current, err := measure(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return previous, ctx.Err()
			}
			current = previous
		}

		if current == previous {
			stable++
			if stable >= opts.StabilityWindow {
				return current, nil
			}
			continue
		}
		stable = 0
		previous = current
	}
	return previous, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
