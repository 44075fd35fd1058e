package eventbus

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeApplyPreset asks to apply a preset. Payload is the preset id.
	EventTypeApplyPreset EventType = "apply_preset"

	// EventTypeShowWindow asks to show the quick controls.
	EventTypeShowWindow EventType = "show_window"

	// EventTypeToggleQuickControl is published on a left click on the tray
	// icon.
	EventTypeToggleQuickControl EventType = "toggle_quick_control"

	// EventTypeQuit asks the application to exit.
	EventTypeQuit EventType = "quit"

	// EventTypeStateChanged is published when the refresh loop observes a new
	// state. Payload is a gammarelay.State.
	EventTypeStateChanged EventType = "state_changed"
)

// Default configuration
const (
	DefaultWorkerCount = 2
	DefaultQueueSize   = 64
)

// Event represents an event in the system
type Event struct {
	Type    EventType
	Payload any
}

// Handler is a function that handles events
type Handler func(Event)

// work represents a unit of work for the worker pool
type work struct {
	event   Event
	handler Handler
}

// Bus provides event routing with a bounded worker pool
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler

	// Worker pool
	workQueue chan work
	wg        sync.WaitGroup

	// Closing this channel signals publishers to stop. sendMu keeps the work
	// queue open while a publisher is sending.
	sendMu    sync.RWMutex
	closing   chan struct{}
	closeOnce sync.Once
}

// New creates a new event bus with default settings
func New() *Bus {
	return NewWithConfig(DefaultWorkerCount, DefaultQueueSize)
}

// NewWithConfig creates a new event bus with custom worker count and queue size
func NewWithConfig(workerCount, queueSize int) *Bus {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	b := &Bus{
		handlers:  make(map[EventType][]Handler),
		workQueue: make(chan work, queueSize),
		closing:   make(chan struct{}),
	}

	for i := 0; i < workerCount; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}

	log.Debug().Int("workers", workerCount).Int("queue_size", queueSize).Msg("Event bus worker pool started")
	return b
}

// worker processes events from the work queue
func (b *Bus) worker(id int) {
	defer b.wg.Done()

	for w := range b.workQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("event_type", string(w.event.Type)).
						Int("worker", id).
						Msg("Event handler panicked")
				}
			}()
			w.handler(w.event)
		}()
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish sends an event to all subscribed handlers and reports whether every
// handler was queued.
//
// Non-blocking: if the work queue is full or the bus is closing, the event is
// dropped for the remaining handlers.
func (b *Bus) Publish(event Event) bool {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		log.Trace().Str("event_type", string(event.Type)).Msg("No handlers for event")
		return true
	}

	b.sendMu.RLock()
	defer b.sendMu.RUnlock()

	for _, handler := range handlers {
		select {
		case <-b.closing:
			log.Warn().Str("event_type", string(event.Type)).Msg("Event bus closing, dropping event")
			return false
		default:
		}

		select {
		case b.workQueue <- work{event: event, handler: handler}:
		default:
			log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event bus queue full, dropping event")
			return false
		}
	}

	return true
}

// Close shuts down the worker pool gracefully.
// First signals publishers to stop, then closes the work queue and waits for workers.
func (b *Bus) Close(ctx context.Context) {
	b.closeOnce.Do(func() {
		close(b.closing)

		b.sendMu.Lock()
		close(b.workQueue)
		b.sendMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Debug().Msg("Event bus workers stopped gracefully")
	case <-ctx.Done():
		log.Warn().Msg("Event bus shutdown timed out, some events may be lost")
	}
}
