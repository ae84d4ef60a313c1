package ai

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

type RetryConfig struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       time.Second,
		BackoffMultiplier: 2,
		MaxBackoff:        20 * time.Second,
	}
}

// withRetry runs fn until it succeeds, returns a non-transient error, or
// attempts run out.
func withRetry(ctx context.Context, cfg RetryConfig, log *zap.Logger, fn func() (string, error)) (string, error) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return "", err
		}
		if attempt < cfg.MaxAttempts {
			backoff := cfg.backoff(attempt)
			log.Debug("llm request failed, retrying",
				zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return "", lastErr
}

// backoff is exponential with +/-25% jitter.
func (c RetryConfig) backoff(attempt int) time.Duration {
	mult := 1.0
	for i := 1; i < attempt; i++ {
		mult *= c.BackoffMultiplier
	}
	d := time.Duration(float64(c.BackoffBase) * mult)
	if c.MaxBackoff > 0 && d > c.MaxBackoff {
		d = c.MaxBackoff
	}
	jitter := float64(d) * 0.25 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}
