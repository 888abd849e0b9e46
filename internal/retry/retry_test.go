package retry

import (
	"testing"
	"time"

	"github.com/mugisham37/mobile-sync-engine/pkg/types"
)

func TestPolicyForTiers(t *testing.T) {
	tests := []struct {
		priority   types.Priority
		maxRetries int
		strategy   types.BackoffStrategy
		baseDelay  time.Duration
		maxDelay   time.Duration
	}{
		{types.PriorityCritical, 5, types.BackoffExponential, 30 * time.Second, 300 * time.Second},
		{types.PriorityHigh, 3, types.BackoffExponential, 60 * time.Second, 600 * time.Second},
		{types.PriorityMedium, 2, types.BackoffLinear, 300 * time.Second, 1800 * time.Second},
		{types.PriorityLow, 1, types.BackoffFixed, 3600 * time.Second, 3600 * time.Second},
	}

	for _, tt := range tests {
		policy := PolicyFor(tt.priority)
		if policy.MaxRetries != tt.maxRetries {
			t.Errorf("%s: MaxRetries = %d, want %d", tt.priority, policy.MaxRetries, tt.maxRetries)
		}
		if policy.BackoffStrategy != tt.strategy {
			t.Errorf("%s: BackoffStrategy = %s, want %s", tt.priority, policy.BackoffStrategy, tt.strategy)
		}
		if policy.BaseDelay != tt.baseDelay {
			t.Errorf("%s: BaseDelay = %s, want %s", tt.priority, policy.BaseDelay, tt.baseDelay)
		}
		if policy.MaxDelay != tt.maxDelay {
			t.Errorf("%s: MaxDelay = %s, want %s", tt.priority, policy.MaxDelay, tt.maxDelay)
		}
	}
}

func TestDelayExponential(t *testing.T) {
	policy := PolicyFor(types.PriorityCritical)

	if got := Delay(policy, 1); got != 30*time.Second {
		t.Errorf("attempt 1 = %s, want 30s", got)
	}
	if got := Delay(policy, 2); got != 60*time.Second {
		t.Errorf("attempt 2 = %s, want 60s", got)
	}
	if got := Delay(policy, 3); got != 120*time.Second {
		t.Errorf("attempt 3 = %s, want 120s", got)
	}
	// Doubling past the cap stops at MaxDelay.
	if got := Delay(policy, 10); got != 300*time.Second {
		t.Errorf("attempt 10 = %s, want 300s cap", got)
	}
}

func TestDelayLinear(t *testing.T) {
	policy := PolicyFor(types.PriorityMedium)

	if got := Delay(policy, 1); got != 300*time.Second {
		t.Errorf("attempt 1 = %s, want 300s", got)
	}
	if got := Delay(policy, 2); got != 600*time.Second {
		t.Errorf("attempt 2 = %s, want 600s", got)
	}
	if got := Delay(policy, 100); got != 1800*time.Second {
		t.Errorf("attempt 100 = %s, want 1800s cap", got)
	}
}

func TestDelayFixed(t *testing.T) {
	policy := PolicyFor(types.PriorityLow)

	for attempt := 1; attempt <= 5; attempt++ {
		if got := Delay(policy, attempt); got != 3600*time.Second {
			t.Errorf("attempt %d = %s, want 3600s", attempt, got)
		}
	}
}

func TestDelayClampsBadAttempt(t *testing.T) {
	policy := PolicyFor(types.PriorityHigh)
	if got := Delay(policy, 0); got != policy.BaseDelay {
		t.Errorf("attempt 0 = %s, want base delay %s", got, policy.BaseDelay)
	}
	if got := Delay(policy, -3); got != policy.BaseDelay {
		t.Errorf("attempt -3 = %s, want base delay %s", got, policy.BaseDelay)
	}
}

func TestJitterStaysWithinBounds(t *testing.T) {
	base := 100 * time.Second
	for i := 0; i < 100; i++ {
		got := Jitter(base)
		if got < 90*time.Second || got > 110*time.Second {
			t.Fatalf("jittered delay %s outside [90s, 110s]", got)
		}
	}
}
