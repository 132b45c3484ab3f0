package syncengine

import (
	"time"

	"github.com/spincycle/backend/internal/domain"
)

type EventKind string

const (
	EventMutated  EventKind = "mutated"
	EventHydrated EventKind = "hydrated"
	EventDeleted  EventKind = "deleted"
)

// Event reports a cache change. Customer is a private copy and is nil for
// deletions.
type Event struct {
	Kind     EventKind        `json:"kind"`
	ID       string           `json:"id"`
	Customer *domain.Customer `json:"customer,omitempty"`
	At       time.Time        `json:"at"`
}

// Listener is called synchronously after the cache change, outside the
// engine lock. It must not block.
type Listener func(Event)

// Subscribe registers fn and returns a function that removes it.
func (e *Engine) Subscribe(fn Listener) func() {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	return func() {
		e.listenersMu.Lock()
		defer e.listenersMu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *Engine) notify(ev Event) {
	e.listenersMu.RLock()
	fns := make([]Listener, 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.listenersMu.RUnlock()

	for _, fn := range fns {
		if len(fns) > 1 && ev.Customer != nil {
			copied := ev
			copied.Customer = ev.Customer.Clone()
			fn(copied)
			continue
		}
		fn(ev)
	}
}
