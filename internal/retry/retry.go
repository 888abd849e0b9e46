// Package retry derives retry policies from priority tiers and computes
// backoff delays between attempts.
package retry

import (
	"math/rand"
	"time"

	"github.com/mugisham37/mobile-sync-engine/pkg/types"
)

// PolicyFor returns the retry policy for a priority tier. The mapping is
// fixed: it is consulted once at schedule creation and the resulting policy
// is embedded in the schedule.
func PolicyFor(priority types.Priority) types.RetryPolicy {
	switch priority {
	case types.PriorityCritical:
		return types.RetryPolicy{
			MaxRetries:      5,
			BackoffStrategy: types.BackoffExponential,
			BaseDelay:       30 * time.Second,
			MaxDelay:        300 * time.Second,
		}
	case types.PriorityHigh:
		return types.RetryPolicy{
			MaxRetries:      3,
			BackoffStrategy: types.BackoffExponential,
			BaseDelay:       60 * time.Second,
			MaxDelay:        600 * time.Second,
		}
	case types.PriorityMedium:
		return types.RetryPolicy{
			MaxRetries:      2,
			BackoffStrategy: types.BackoffLinear,
			BaseDelay:       300 * time.Second,
			MaxDelay:        1800 * time.Second,
		}
	default:
		return types.RetryPolicy{
			MaxRetries:      1,
			BackoffStrategy: types.BackoffFixed,
			BaseDelay:       3600 * time.Second,
			MaxDelay:        3600 * time.Second,
		}
	}
}

// Delay computes the delay before the given attempt (1-based), capped at
// the policy's MaxDelay.
func Delay(policy types.RetryPolicy, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var delay time.Duration
	switch policy.BackoffStrategy {
	case types.BackoffExponential:
		delay = policy.BaseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay >= policy.MaxDelay {
				delay = policy.MaxDelay
				break
			}
		}
	case types.BackoffLinear:
		delay = policy.BaseDelay * time.Duration(attempt)
	default:
		delay = policy.BaseDelay
	}

	if delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	return delay
}

// Jitter spreads a delay by up to 10% in either direction so retries from
// many devices do not land on the same instant.
func Jitter(delay time.Duration) time.Duration {
	jitter := time.Duration(float64(delay) * 0.1 * (rand.Float64()*2 - 1))
	return delay + jitter
}
