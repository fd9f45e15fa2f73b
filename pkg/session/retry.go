package session

import (
	"context"
	"errors"
	"time"

	"github.com/docentlabs/docent/pkg/embeddings"
	"github.com/docentlabs/docent/pkg/llm"
)

// Retry defaults for transient embedder and generator failures.
const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 200 * time.Millisecond
	DefaultRetryMaxDelay  = 5 * time.Second
)

// RetryConfig bounds the backoff loop around suspension points.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// BaseDelay is the delay before the first retry; it doubles per retry.
	BaseDelay time.Duration

	// MaxDelay caps the per-retry delay.
	MaxDelay time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = DefaultRetryAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultRetryBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultRetryMaxDelay
	}
	return c
}

// transient reports whether err is worth retrying. Config and data errors
// (invalid parameters, dimension mismatches, empty corpus) are never
// retried; only backend availability failures are.
func transient(err error) bool {
	return errors.Is(err, embeddings.ErrUnavailable) || errors.Is(err, llm.ErrGenerationFailed)
}

// withBackoff runs op up to cfg.Attempts times with exponential backoff,
// stopping early on success, a non-transient error, or context cancellation.
func withBackoff(ctx context.Context, cfg RetryConfig, op func(ctx context.Context) error) error {
	delay := cfg.BaseDelay
	var err error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if !transient(err) {
			return err
		}
	}
	return err
}
