package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/shelepuginivan/sunshift/internal/gammarelay"
)

// Op names a bridged operation.
type Op string

const (
	OpGetTemperature Op = "get_temperature"
	OpSetTemperature Op = "set_temperature"
	OpGetBrightness  Op = "get_brightness"
	OpSetBrightness  Op = "set_brightness"
	OpGetState       Op = "get_state"
	OpSetState       Op = "set_state"
)

// Call describes one bridged operation and its arguments. Only the argument
// field matching Op is used.
type Call struct {
	Op          Op
	Temperature uint16
	Brightness  float64
	State       gammarelay.State
}

// Result holds the value produced by a call. Only the field matching the
// operation is set.
type Result struct {
	Temperature uint16
	Brightness  float64
	State       gammarelay.State
}

var (
	// ErrWorkerFailure is matched by [WorkerError].
	ErrWorkerFailure = errors.New("worker failure")

	// ErrClosed is returned for calls submitted to a closed [Bridge].
	ErrClosed = errors.New("bridge is closed")
)

// WorkerError is returned when the worker pool could not run a call. It is
// distinct from connection and remote failures, which are returned as is.
type WorkerError struct {
	Op  Op
	Err error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("bridge: %s: %s: %v", e.Op, ErrWorkerFailure, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

func (e *WorkerError) Is(target error) bool {
	return target == ErrWorkerFailure
}

// Future is the pending result of a submitted call.
type Future struct {
	call   Call
	done   chan struct{}
	result Result
	err    error
}

func newFuture(call Call) *Future {
	return &Future{
		call: call,
		done: make(chan struct{}),
	}
}

func (f *Future) resolve(result Result, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the call completes or ctx is done.
//
// A call that was dispatched to a worker cannot be canceled: if ctx is done
// first, Wait returns ctx.Err() and the call still runs to completion.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
