package rotation

import "sync"

// Trigger is an external event source emitting screen-off style ticks. The
// engine subscribes on Start and unsubscribes on Stop; it runs no timer of
// its own.
type Trigger interface {
	Subscribe() (<-chan struct{}, func())
}

// EventTrigger is a Trigger fed by explicit Emit calls, standing in for a
// platform broadcast such as the display turning off.
type EventTrigger struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func NewEventTrigger() *EventTrigger {
	return &EventTrigger{subs: make(map[int]chan struct{})}
}

func (t *EventTrigger) Subscribe() (<-chan struct{}, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.next
	t.next++
	ch := make(chan struct{}, 1)
	t.subs[id] = ch

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// Emit delivers one tick to every subscriber. A subscriber that still has an
// undelivered tick pending does not accumulate more.
func (t *EventTrigger) Emit() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ch := range t.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
