package registry

import (
	"github.com/GriffinCanCode/appsync/internal/domain/record"
)

// EventType names a registry notification
type EventType string

const (
	EventAdd     EventType = "add"
	EventRemove  EventType = "remove"
	EventChange  EventType = "change"
	EventReset   EventType = "reset"
	EventRequest EventType = "request"
	EventSync    EventType = "sync"
	EventError   EventType = "error"
)

// Event is delivered to handlers after the mutation it describes has committed
type Event struct {
	Type EventType
	// Record is set for add, remove and change
	Record *record.Record
	// Index is the record's position for add and remove, -1 otherwise
	Index int
	// Err is set for error events
	Err error
}

// Handler receives registry events
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// On registers handler for events of type t and returns a function that removes it
func (r *Registry) On(t EventType, handler Handler) func() {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()

	r.nextHandler++
	subID := r.nextHandler
	r.handlers[t] = append(r.handlers[t], subscription{id: subID, handler: handler})

	return func() {
		r.handlersMu.Lock()
		defer r.handlersMu.Unlock()

		subs := r.handlers[t]
		for i, sub := range subs {
			if sub.id == subID {
				r.handlers[t] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// emit delivers events in order. Must be called without r.mu held.
func (r *Registry) emit(events ...Event) {
	for _, ev := range events {
		r.handlersMu.RLock()
		subs := append([]subscription(nil), r.handlers[ev.Type]...)
		r.handlersMu.RUnlock()

		for _, sub := range subs {
			sub.handler(ev)
		}
	}
}
