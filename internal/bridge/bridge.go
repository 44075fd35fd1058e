// Package bridge runs blocking gammarelay calls on a worker pool so that
// event-driven callers never block on the bus.
//
// Every call opens its own connection and closes it when done; connections are
// never shared between calls. Results are not cached.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shelepuginivan/sunshift/internal/gammarelay"
)

// Default configuration
const (
	DefaultWorkerCount = 4
	DefaultQueueSize   = 32
)

// task is a unit of work for the worker pool
type task struct {
	id     string
	future *Future
}

// Bridge dispatches calls to a bounded worker pool.
type Bridge struct {
	dial gammarelay.Dialer

	workers   int
	queueSize int

	queue chan task
	wg    sync.WaitGroup

	// sendMu is held for reading while a task is being queued and for writing
	// while the queue is closed.
	sendMu    sync.RWMutex
	closing   chan struct{}
	closeOnce sync.Once
}

type Option func(*Bridge)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithQueueSize sets the number of calls that can wait for a free worker.
func WithQueueSize(n int) Option {
	return func(b *Bridge) {
		if n >= 0 {
			b.queueSize = n
		}
	}
}

// New starts a [Bridge] that opens connections with dial.
func New(dial gammarelay.Dialer, opts ...Option) *Bridge {
	b := &Bridge{
		dial:      dial,
		workers:   DefaultWorkerCount,
		queueSize: DefaultQueueSize,
		closing:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.queue = make(chan task, b.queueSize)

	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}

	log.Debug().Int("workers", b.workers).Int("queue_size", b.queueSize).Msg("Bridge worker pool started")
	return b
}

// Submit queues call and returns its future without waiting for the result.
//
// If the queue is full, Submit blocks until a slot frees up, ctx is done, or
// the bridge is closed. In the last two cases the future resolves with a
// [*WorkerError].
func (b *Bridge) Submit(ctx context.Context, call Call) *Future {
	future := newFuture(call)
	t := task{id: uuid.NewString(), future: future}

	b.sendMu.RLock()
	defer b.sendMu.RUnlock()

	select {
	case <-b.closing:
		future.resolve(Result{}, &WorkerError{Op: call.Op, Err: ErrClosed})
		return future
	default:
	}

	select {
	case b.queue <- t:
		log.Trace().Str("call_id", t.id).Str("op", string(call.Op)).Msg("Bridge call queued")
	case <-b.closing:
		future.resolve(Result{}, &WorkerError{Op: call.Op, Err: ErrClosed})
	case <-ctx.Done():
		future.resolve(Result{}, &WorkerError{Op: call.Op, Err: ctx.Err()})
	}

	return future
}

// Do submits call and waits for its result.
func (b *Bridge) Do(ctx context.Context, call Call) (Result, error) {
	return b.Submit(ctx, call).Wait(ctx)
}

// GetTemperature returns the current color temperature.
func (b *Bridge) GetTemperature(ctx context.Context) (uint16, error) {
	res, err := b.Do(ctx, Call{Op: OpGetTemperature})
	return res.Temperature, err
}

// SetTemperature sets the color temperature.
func (b *Bridge) SetTemperature(ctx context.Context, temperature uint16) error {
	_, err := b.Do(ctx, Call{Op: OpSetTemperature, Temperature: temperature})
	return err
}

// GetBrightness returns the current brightness.
func (b *Bridge) GetBrightness(ctx context.Context) (float64, error) {
	res, err := b.Do(ctx, Call{Op: OpGetBrightness})
	return res.Brightness, err
}

// SetBrightness sets the brightness.
func (b *Bridge) SetBrightness(ctx context.Context, brightness float64) error {
	_, err := b.Do(ctx, Call{Op: OpSetBrightness, Brightness: brightness})
	return err
}

// GetState reads temperature and brightness over one connection.
func (b *Bridge) GetState(ctx context.Context) (gammarelay.State, error) {
	res, err := b.Do(ctx, Call{Op: OpGetState})
	return res.State, err
}

// SetState writes temperature and brightness over one connection. See
// [gammarelay.Client.SetState] for the non-atomic semantics.
func (b *Bridge) SetState(ctx context.Context, state gammarelay.State) error {
	_, err := b.Do(ctx, Call{Op: OpSetState, State: state})
	return err
}

// Close stops accepting calls, lets the workers finish queued calls, and waits
// for them until ctx is done.
func (b *Bridge) Close(ctx context.Context) {
	b.closeOnce.Do(func() {
		close(b.closing)

		// Blocked senders observe closing and release sendMu.
		b.sendMu.Lock()
		close(b.queue)
		b.sendMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Debug().Msg("Bridge workers stopped gracefully")
	case <-ctx.Done():
		log.Warn().Msg("Bridge shutdown timed out, calls are still in flight")
	}
}

// worker runs tasks from the queue
func (b *Bridge) worker(id int) {
	defer b.wg.Done()

	for t := range b.queue {
		b.run(id, t)
	}
}

func (b *Bridge) run(worker int, t task) {
	call := t.future.call
	start := time.Now()

	var (
		result Result
		err    error
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("call_id", t.id).
				Str("op", string(call.Op)).
				Int("worker", worker).
				Msg("Bridge call panicked")
			result, err = Result{}, &WorkerError{Op: call.Op, Err: fmt.Errorf("panic: %v", r)}
		}

		log.Debug().
			Err(err).
			Str("call_id", t.id).
			Str("op", string(call.Op)).
			Dur("took", time.Since(start)).
			Msg("Bridge call finished")

		t.future.resolve(result, err)
	}()

	result, err = execute(b.dial, call)
}

// execute opens a connection, runs call over it, and closes it.
func execute(dial gammarelay.Dialer, call Call) (Result, error) {
	conn, err := dial()
	if err != nil {
		return Result{}, err
	}

	client := gammarelay.New(conn)
	defer client.Close()

	var result Result

	switch call.Op {
	case OpGetTemperature:
		result.Temperature, err = client.Temperature()
	case OpSetTemperature:
		err = client.SetTemperature(call.Temperature)
	case OpGetBrightness:
		result.Brightness, err = client.Brightness()
	case OpSetBrightness:
		err = client.SetBrightness(call.Brightness)
	case OpGetState:
		result.State, err = client.State()
	case OpSetState:
		err = client.SetState(call.State)
	default:
		err = &WorkerError{Op: call.Op, Err: fmt.Errorf("unknown operation")}
	}

	if err != nil {
		return Result{}, err
	}

	return result, nil
}
