package calabash

import (
	"context"
	"time"

	"github.com/devicelab-dev/calabash-bridge/pkg/config"
	"github.com/devicelab-dev/calabash-bridge/pkg/core"
	"github.com/devicelab-dev/calabash-bridge/pkg/logger"
)

// Built-in wait defaults, used when neither the call nor the configuration
// sets a value.
const (
	DefaultWaitTimeout    = 30 * time.Second
	DefaultRetryFrequency = 300 * time.Millisecond
	DefaultTimeoutMessage = "Timed out waiting..."
)

// WaitOptions configure one wait. Zero fields fall back to the bridge
// defaults.
type WaitOptions struct {
	Timeout           time.Duration
	RetryFrequency    time.Duration
	PostTimeout       time.Duration // sleep after the condition holds
	TimeoutMessage    string        // returned verbatim on timeout
	ScreenshotOnError *bool
}

// Condition is polled by WaitFor. Returning an error stops the wait.
type Condition func(ctx context.Context) (bool, error)

func resolveWaitDefaults(w config.WaitDefaults) config.WaitDefaults {
	if w.Timeout <= 0 {
		w.Timeout = DefaultWaitTimeout
	}
	if w.RetryFrequency <= 0 {
		w.RetryFrequency = DefaultRetryFrequency
	}
	if w.TimeoutMessage == "" {
		w.TimeoutMessage = DefaultTimeoutMessage
	}
	if w.ScreenshotOnError == nil {
		on := true
		w.ScreenshotOnError = &on
	}
	return w
}

func mergeWaitOptions(base, over WaitOptions) WaitOptions {
	if over.Timeout > 0 {
		base.Timeout = over.Timeout
	}
	if over.RetryFrequency > 0 {
		base.RetryFrequency = over.RetryFrequency
	}
	if over.PostTimeout > 0 {
		base.PostTimeout = over.PostTimeout
	}
	if over.TimeoutMessage != "" {
		base.TimeoutMessage = over.TimeoutMessage
	}
	if over.ScreenshotOnError != nil {
		base.ScreenshotOnError = over.ScreenshotOnError
	}
	return base
}

func (b *Bridge) waitOptions(opts *WaitOptions) WaitOptions {
	o := WaitOptions{
		Timeout:           b.waits.Timeout,
		RetryFrequency:    b.waits.RetryFrequency,
		PostTimeout:       b.waits.PostTimeout,
		TimeoutMessage:    b.waits.TimeoutMessage,
		ScreenshotOnError: b.waits.ScreenshotOnError,
	}
	if opts != nil {
		o = mergeWaitOptions(o, *opts)
	}
	return o
}

// WaitFor polls cond until it holds, the timeout passes or ctx is done.
//
// A false result is retried after RetryFrequency. An error from cond is
// returned at once and never retried. On timeout a screenshot is taken when
// enabled and core.ErrWaitTimeout is returned carrying the timeout message.
// Cancelling ctx returns core.ErrWaitCancelled.
func (b *Bridge) WaitFor(ctx context.Context, cond Condition, opts *WaitOptions) error {
	if err := b.ensureNotDisposed(); err != nil {
		return err
	}
	if cond == nil {
		return core.ErrInvalidArgument.WithMessage("wait condition is required")
	}

	o := b.waitOptions(opts)
	logger.Info("Waiting for condition (timeout %v, retry %v)", o.Timeout, o.RetryFrequency)

	start := time.Now()
	deadline := start.Add(o.Timeout)
	for polls := 1; ; polls++ {
		if err := ctx.Err(); err != nil {
			return cancelled(err, polls-1)
		}

		ok, err := cond(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return cancelled(ctxErr, polls)
			}
			logger.Error("Failed to wait for condition. %v", err)
			if core.CategoryOf(err) == core.ErrCategoryNone {
				return core.ErrActionFailed.WithMessage("Failed to wait for condition").WithCause(err)
			}
			return err
		}
		if ok {
			logger.Debug("Condition met after %d polls in %v", polls, time.Since(start))
			b.sleep(ctx, o.PostTimeout)
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			logger.Error("Timedout waiting")
			if o.ScreenshotOnError != nil && *o.ScreenshotOnError {
				b.screenshotOnTimeout(ctx)
			}
			return core.ErrWaitTimeout.
				WithMessage(o.TimeoutMessage).
				WithDetails(map[string]interface{}{"timeout": o.Timeout.String(), "polls": polls})
		}

		interval := o.RetryFrequency
		if interval > remaining {
			interval = remaining
		}
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return cancelled(ctx.Err(), polls)
		case <-t.C:
		}
	}
}

func cancelled(err error, polls int) error {
	logger.Warn("Wait cancelled after %d polls", polls)
	return core.ErrWaitCancelled.WithCause(err).WithDetails(map[string]interface{}{"polls": polls})
}

func (b *Bridge) screenshotOnTimeout(ctx context.Context) {
	if _, err := b.TakeScreenshot(ctx, b.cfg.Screenshots(), ""); err != nil {
		logger.Warn("Failed to take screenshot after timeout: %v", err)
	}
}

// WaitForElementsExist waits until every query matches an element.
func (b *Bridge) WaitForElementsExist(ctx context.Context, queries []string, opts *WaitOptions) error {
	logger.Info("Waiting for elements to exist: %v", queries)
	return b.WaitFor(ctx, allExist(b, queries, true), opts)
}

// WaitForElementsToNotExist waits until no query matches an element.
func (b *Bridge) WaitForElementsToNotExist(ctx context.Context, queries []string, opts *WaitOptions) error {
	logger.Info("Waiting for elements to not exist: %v", queries)
	return b.WaitFor(ctx, allExist(b, queries, false), opts)
}

func allExist(b *Bridge, queries []string, want bool) Condition {
	return func(ctx context.Context) (bool, error) {
		for _, q := range queries {
			found, err := b.ElementExists(ctx, q)
			if err != nil {
				return false, err
			}
			if found != want {
				return false, nil
			}
		}
		return true, nil
	}
}
