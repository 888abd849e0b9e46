package ratelimit

import (
	"testing"
)

func TestSlotLimiter(t *testing.T) {
	sl := NewSlotLimiter(2)

	if !sl.Acquire() || !sl.Acquire() {
		t.Fatal("first two acquires should succeed")
	}
	if sl.Acquire() {
		t.Error("third acquire should fail at max 2")
	}

	sl.Release()
	if !sl.Acquire() {
		t.Error("acquire after release should succeed")
	}
	if sl.Active() != 2 {
		t.Errorf("active = %d, want 2", sl.Active())
	}
}

func TestSlotLimiterReleaseFloor(t *testing.T) {
	sl := NewSlotLimiter(1)
	sl.Release()
	if sl.Active() != 0 {
		t.Errorf("active = %d, want 0 after spurious release", sl.Active())
	}
}

func TestLimiterAllowBurst(t *testing.T) {
	l := NewLimiter(&Config{DefaultRPS: 5, BurstMultiplier: 2})

	// The burst allows 10 immediate requests, the 11th is throttled.
	for i := 0; i < 10; i++ {
		if !l.Allow("device-1") {
			t.Fatalf("request %d should be allowed within the burst", i+1)
		}
	}
	if l.Allow("device-1") {
		t.Error("request beyond the burst should be throttled")
	}

	// Other keys have their own budget.
	if !l.Allow("device-2") {
		t.Error("a fresh key should not be throttled")
	}
}

func TestLimiterSyncSlots(t *testing.T) {
	l := NewLimiter(&Config{DefaultRPS: 50, BurstMultiplier: 2, MaxConcurrentSyncs: 2})

	if !l.AcquireSync("device-1") || !l.AcquireSync("device-1") {
		t.Fatal("two concurrent syncs should be allowed")
	}
	if l.AcquireSync("device-1") {
		t.Error("third concurrent sync should be refused")
	}
	if !l.AcquireSync("device-2") {
		t.Error("other devices have their own slots")
	}

	l.ReleaseSync("device-1")
	if !l.AcquireSync("device-1") {
		t.Error("sync slot should be reusable after release")
	}
}

func TestLimiterStats(t *testing.T) {
	l := NewLimiter(&Config{DefaultRPS: 50, BurstMultiplier: 2, MaxConcurrentSyncs: 2})

	l.Allow("a")
	l.AcquireSync("b")

	stats := l.GetStats()
	if stats.TrackedKeys != 2 {
		t.Errorf("tracked keys = %d, want 2", stats.TrackedKeys)
	}
	if stats.ActiveSyncs != 1 {
		t.Errorf("active syncs = %d, want 1", stats.ActiveSyncs)
	}
}
