package database

import "sync"

// changeNotifier fans out "something changed" signals to subscribers without
// blocking the mutating caller. A subscriber that has not drained its channel
// still holds one pending signal, which is enough to trigger a reload.
type changeNotifier struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func newChangeNotifier() *changeNotifier {
	return &changeNotifier{subs: make(map[int]chan struct{})}
}

func (n *changeNotifier) subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *changeNotifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
