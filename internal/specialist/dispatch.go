package specialist

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/careerforge/internal/common"
	"golang.org/x/time/rate"
)

// RetryPolicy is the exponential backoff policy for transient specialist
// failures: initial delay 4s, multiplier 2, max delay 60s, max 5 attempts.
type RetryPolicy struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	MaxAttempts  int
}

// Attempt is one specialist call. success/errMsg mirror the specialist
// response envelope; err is a transport-level failure (network,
// context cancellation) independent of that envelope.
type Attempt func(ctx context.Context) (success bool, errMsg string, err error)

// Dispatcher owns retry/backoff and per-specialist rate limiting before each
// attempt, grounded on the teacher's eodhd client's rate-limited get() helper.
type Dispatcher struct {
	policy   RetryPolicy
	limiters map[string]*rate.Limiter
	logger   *common.Logger
}

// NewDispatcher builds a Dispatcher with the given retry policy and a
// per-specialist rate limit (requests per second), one limiter per name.
func NewDispatcher(policy RetryPolicy, ratePerSecond int, names []string, logger *common.Logger) *Dispatcher {
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	limiters := make(map[string]*rate.Limiter, len(names))
	for _, name := range names {
		limiters[name] = rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond)
	}
	return &Dispatcher{policy: policy, limiters: limiters, logger: logger}
}

// Call runs attempt for specialistName, retrying transient failures with
// exponential backoff up to the policy's maximum attempts. It
// returns whichever success/errMsg/err the loop stopped on.
func (d *Dispatcher) Call(ctx context.Context, specialistName string, attempt Attempt) (success bool, errMsg string, err error) {
	delay := d.policy.InitialDelay
	if delay <= 0 {
		delay = 4 * time.Second
	}
	multiplier := d.policy.Multiplier
	if multiplier <= 1 {
		multiplier = 2
	}
	maxDelay := d.policy.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 60 * time.Second
	}
	maxAttempts := d.policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	for n := 1; n <= maxAttempts; n++ {
		if limiter, ok := d.limiters[specialistName]; ok {
			if werr := limiter.Wait(ctx); werr != nil {
				return false, "", fmt.Errorf("rate limit wait: %w", werr)
			}
		}

		success, errMsg, err = attempt(ctx)

		classifyErr := err
		if classifyErr == nil && !success && errMsg != "" {
			classifyErr = fmt.Errorf("%s", errMsg)
		}
		if classifyErr == nil {
			return success, errMsg, nil
		}
		if Classify(classifyErr) != ClassTransient || n == maxAttempts {
			return success, errMsg, err
		}

		if d.logger != nil {
			d.logger.Warn().
				Str("specialist", specialistName).
				Int("attempt", n).
				Str("delay", delay.String()).
				Msg("specialist call failed transiently, retrying")
		}

		select {
		case <-ctx.Done():
			return false, "", ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * multiplier)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return success, errMsg, err
}
