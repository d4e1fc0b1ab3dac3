package agent

import "testing"

func TestEmitterIsolatesPanickingListener(t *testing.T) {
	e := NewEmitter()
	var secondCalled bool
	e.On(func(Event) { panic("boom") })
	e.On(func(Event) { secondCalled = true })

	e.Emit(Event{Type: EventTurnStart})

	if !secondCalled {
		t.Fatalf("expected second listener to run despite first panicking")
	}
}

func TestEmitterUnsubscribe(t *testing.T) {
	e := NewEmitter()
	var count int
	unsub := e.On(func(Event) { count++ })
	e.Emit(Event{Type: EventTurnStart})
	unsub()
	e.Emit(Event{Type: EventTurnStart})

	if count != 1 {
		t.Fatalf("expected 1 call after unsubscribe, got %d", count)
	}
}
