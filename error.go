// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Engine contract violations. They report misuse of the engine, never
// ordinary protocol completion, and are always returned wrapped in a
// [*ContractError].
var (
	// ErrRequestNotTaken reports a slot write while a request is still pending.
	ErrRequestNotTaken = errors.New("sansio: request not taken")
	// ErrResponseNotTaken reports a slot write while a response is still pending.
	ErrResponseNotTaken = errors.New("sansio: response not taken")
	// ErrNoPendingRequest reports a request read from a slot that holds none.
	ErrNoPendingRequest = errors.New("sansio: no pending request")
	// ErrNoPendingResponse reports a response read from a slot that holds none.
	ErrNoPendingResponse = errors.New("sansio: no pending response")
	// ErrHandleReused reports a Handle that was already consumed.
	ErrHandleReused = errors.New("sansio: handle reused")
	// ErrTaskFinished reports a resume of a task that already completed.
	ErrTaskFinished = errors.New("sansio: task finished")
	// ErrUnknownTask reports a Mux id that is unknown or already completed.
	ErrUnknownTask = errors.New("sansio: unknown task id")
	// ErrUnhandledEffect reports a task suspended on an operation the
	// driver cannot dispatch.
	ErrUnhandledEffect = errors.New("sansio: unhandled effect")
	// ErrNotMultiplexed reports a Spawn performed under a single-task Driver.
	ErrNotMultiplexed = errors.New("sansio: spawn outside a mux")
	// ErrStarted reports a second Start on a Driver or Mux.
	ErrStarted = errors.New("sansio: already started")
	// ErrInvalidHop reports a Hop that does not belong to the running
	// Stack, or that carries a value of the wrong type for its layer.
	ErrInvalidHop = errors.New("sansio: invalid hop")
)

// ErrStaleReference is returned by [Ref.Load] once the task has issued its
// next call and the borrowed response is no longer valid.
var ErrStaleReference = errors.New("sansio: stale reference")

// ErrCanceled is observed by a goroutine-hosted task whose driver was
// closed or whose mux entry was canceled while it was suspended.
var ErrCanceled = errors.New("sansio: task canceled")

// ContractError carries the context of an engine contract violation.
// Task is zero for a single-task [Driver].
type ContractError struct {
	Op     string
	Serial Serial
	Task   ID
	Err    error
}

func (e *ContractError) Error() string {
	if e.Task != 0 {
		return fmt.Sprintf("sansio: %s [serial %d, task %d]: %v", e.Op, e.Serial, e.Task, e.Err)
	}
	return fmt.Sprintf("sansio: %s [serial %d]: %v", e.Op, e.Serial, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

// PanicError is the completion error of a task that panicked.
// The stack is captured at the point of recovery.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("sansio: task panicked: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}
