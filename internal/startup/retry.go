// Package startup holds helpers used while the process boots.
package startup

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// RetryConfig configures the exponential backoff retry behavior.
type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64

	// Retryable decides whether an error is worth another attempt.
	// Defaults to IsNetworkError.
	Retryable func(error) bool
	// Clock drives the backoff waits. Defaults to the real clock.
	Clock clockwork.Clock
}

// DefaultRetryConfig returns sensible defaults for network retry.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		MaxAttempts:  5,
		Multiplier:   2.0,
	}
}

var networkIndicators = []string{
	"connection refused",
	"no such host",
	"timeout",
	"network is unreachable",
	"no route to host",
	"host is down",
	"dial tcp",
	"dial udp",
	"i/o timeout",
	"connection reset",
	"temporary failure in name resolution",
}

// IsNetworkError checks if an error is likely due to network unavailability.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	var dnsErr *net.DNSError
	if errors.As(err, &netErr) || errors.As(err, &dnsErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range networkIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// WithRetry executes fn with exponential backoff while it fails with a
// retryable error. Other errors are returned immediately.
func WithRetry(ctx context.Context, name string, cfg RetryConfig, fn func(ctx context.Context) error, logger zerolog.Logger) error {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsNetworkError
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().Str("operation", name).Int("attempt", attempt).Msg("Operation succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if !retryable(err) {
			logger.Error().Err(err).Str("operation", name).Msg("Non-retryable error, giving up")
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn().
			Err(err).
			Str("operation", name).
			Int("attempt", attempt).
			Int("maxAttempts", cfg.MaxAttempts).
			Dur("nextRetryIn", delay).
			Msg("Retryable error, will retry")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	logger.Error().Err(lastErr).Str("operation", name).Int("attempts", cfg.MaxAttempts).
		Msg("Operation failed after all retries")
	return lastErr
}
