package pipeline

import "testing"

func TestObserversFanOut(t *testing.T) {
	var first, second []EventType
	observers := NewObservers(
		ObserverFunc(func(e Event) { first = append(first, e.Type) }),
		nil,
		ObserverFunc(func(e Event) { second = append(second, e.Type) }),
	)

	observers.Notify(Event{Type: EventRunStarted})
	observers.Notify(Event{Type: EventRunCompleted})

	want := []EventType{EventRunStarted, EventRunCompleted}
	for _, got := range [][]EventType{first, second} {
		if len(got) != len(want) {
			t.Fatalf("observer saw %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("observer saw %v, want %v", got, want)
			}
		}
	}

	var nilObservers *Observers
	nilObservers.Notify(Event{Type: EventRunStarted})
}

func TestBusRetainsBoundedSequencedEvents(t *testing.T) {
	bus := NewBus(3)
	for i := 0; i < 5; i++ {
		bus.Notify(Event{Type: EventStepProgress, Progress: i})
	}

	events := bus.Since(0)
	if len(events) != 3 {
		t.Fatalf("bus retained %d events, want 3", len(events))
	}
	wantSeqs := []uint64{3, 4, 5}
	for i, event := range events {
		if event.Seq != wantSeqs[i] {
			t.Fatalf("event %d seq = %d, want %d", i, event.Seq, wantSeqs[i])
		}
	}
	if events[0].Progress != 2 {
		t.Fatalf("oldest retained progress = %d, want 2", events[0].Progress)
	}

	tail := bus.Since(4)
	if len(tail) != 1 || tail[0].Seq != 5 {
		t.Fatalf("Since(4) = %+v", tail)
	}

	if got := NewBus(0).Since(0); got != nil {
		t.Fatalf("empty bus Since = %v, want nil", got)
	}
}
