package events

import (
	"testing"
	"time"
)

func TestEmitReachesSubscriber(t *testing.T) {
	bus := NewBus(4)
	ch := bus.On("schedule.*")
	defer bus.Off("schedule.*", ch)

	bus.Emit(TopicScheduleCreated, "s1")

	select {
	case ev := <-ch:
		if ev.OriginalTopic != TopicScheduleCreated {
			t.Errorf("topic = %q, want %q", ev.OriginalTopic, TopicScheduleCreated)
		}
		if len(ev.Args) != 1 || ev.Args[0] != "s1" {
			t.Errorf("args = %v", ev.Args)
		}
	case <-time.After(time.Second):
		t.Fatal("event never arrived")
	}
}

func TestEmitWithoutSubscribersDoesNotBlock(t *testing.T) {
	bus := NewBus(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Emit(TopicUsageThreshold, "t1", "u1", 95.0)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked with no subscribers")
	}
}
