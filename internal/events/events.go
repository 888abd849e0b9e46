// Package events provides the in-process event bus for sync lifecycle
// notifications.
package events

import (
	"github.com/olebedev/emitter"
)

// Topics emitted by the engine. Patterns with wildcards are supported by
// On, so "schedule.*" subscribes to every schedule lifecycle event.
const (
	TopicScheduleCreated     = "schedule.created"
	TopicScheduleExecuted    = "schedule.executed"
	TopicScheduleCancelled   = "schedule.cancelled"
	TopicScheduleRescheduled = "schedule.rescheduled"
	TopicUsageThreshold      = "usage.threshold"
)

// Bus wraps an emitter with non-blocking publish semantics. Subscribers that
// fall behind miss events rather than stalling the scheduler.
type Bus struct {
	emitter *emitter.Emitter
}

// NewBus creates an event bus with the given per-listener buffer capacity.
func NewBus(capacity uint) *Bus {
	e := emitter.New(capacity)
	e.Use("*", emitter.Skip)
	return &Bus{emitter: e}
}

// Emit publishes an event without waiting on slow listeners.
func (b *Bus) Emit(topic string, args ...interface{}) {
	b.emitter.Emit(topic, args...)
}

// On subscribes to a topic pattern.
func (b *Bus) On(pattern string) <-chan emitter.Event {
	return b.emitter.On(pattern)
}

// Off removes a subscription.
func (b *Bus) Off(pattern string, ch <-chan emitter.Event) {
	b.emitter.Off(pattern, ch)
}
