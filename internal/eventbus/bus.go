// Package eventbus provides an in-process pub/sub bus for index events.
// The indexer publishes as it writes; subscribers run on a single consumer
// goroutine.
package eventbus

import (
	"context"
	"log"
	"sync"

	"github.com/matthewbaird/mdb/internal/event"
)

// Handler processes an index event.
type Handler interface {
	HandleEvent(ctx context.Context, evt event.IndexEvent) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt event.IndexEvent) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt event.IndexEvent) error {
	return f(ctx, evt)
}

// Bus dispatches events from a buffered channel to every subscriber, one
// event at a time.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedHandler
	events      chan event.IndexEvent
	done        chan struct{}
	closed      bool
}

type namedHandler struct {
	name    string
	handler Handler
}

// New creates a Bus with the given channel buffer size.
func New(bufSize int) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	return &Bus{
		events: make(chan event.IndexEvent, bufSize),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a named handler.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedHandler{name: name, handler: h})
}

// Publish queues an event without blocking. When the buffer is full, or
// the bus is stopped, the event is dropped.
func (b *Bus) Publish(evt event.IndexEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.events <- evt:
	default:
		log.Printf("eventbus: buffer full, dropping event %s (%s)", evt.EventType, evt.ID)
	}
}

// Start runs the consumer goroutine until Stop is called. Events still
// queued at that point are dispatched before it exits.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for evt := range b.events {
			b.dispatch(ctx, evt)
		}
	}()
}

// Stop closes the bus and waits for queued events to be dispatched.
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()
	<-b.done
}

func (b *Bus) dispatch(ctx context.Context, evt event.IndexEvent) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			log.Printf("eventbus: %s handler error for %s: %v", s.name, evt.EventType, err)
		}
	}
}
