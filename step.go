// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"runtime"

	"go.uber.org/zap"
)

type driverState uint8

const (
	driverIdle driverState = iota
	driverSuspended
	driverFinished
)

// Driver owns one suspended task and its [Slot], and steps the task one
// suspension at a time. It performs no I/O: the caller reads each request,
// does whatever the request asks for, and hands the result back.
//
// A Driver is not safe for concurrent use. A driver dropped without Close
// cancels a goroutine-hosted task once it is garbage collected; Close
// does the same at once and waits for the task to return.
type Driver[Req, Resp any] struct {
	task    Task[Req, Resp]
	co      coroutine[Req, Resp]
	slot    *Slot[Req, Resp]
	req     Req
	gen     uint64
	state   driverState
	err     error
	serial  Serial
	opts    options
	cleanup runtime.Cleanup
	watched bool
}

// NewDriver creates a driver for task. The task does not run until Start.
func NewDriver[Req, Resp any](task Task[Req, Resp], opts ...Option) *Driver[Req, Resp] {
	return &Driver[Req, Resp]{
		task:   task,
		slot:   new(Slot[Req, Resp]),
		serial: nextSerial(),
		opts:   newOptions(opts),
	}
}

// Serial returns the serial number assigned to this driver.
func (d *Driver[Req, Resp]) Serial() Serial {
	return d.serial
}

// Start runs the task until its first call or completion.
// Returns the zero Handle if the task completes without calling.
func (d *Driver[Req, Resp]) Start() (Handle[Req, Resp], error) {
	if d.state != driverIdle || d.co != nil {
		return Handle[Req, Resp]{}, d.violation("start", ErrStarted)
	}
	d.co = d.task.coroutine()
	if fc, ok := d.co.(*funcCoroutine[Req, Resp]); ok {
		d.cleanup = runtime.AddCleanup(d, (*funcCoroutine[Req, Resp]).abandon, fc)
		d.watched = true
	}
	d.opts.logger.Debug("sansio: task started", zap.Uint32("serial", d.serial))
	return d.settle("start", d.co.start(d.slot))
}

// Handle consumes h, delivers resp to the task and runs it to its next
// call or completion. Returns a fresh Handle, or the zero Handle once the
// task has completed.
//
// h is invalidated before anything else happens, so it cannot be reused
// even when Handle fails.
func (d *Driver[Req, Resp]) Handle(h Handle[Req, Resp], resp Resp) (Handle[Req, Resp], error) {
	if err := d.check(h); err != nil {
		return Handle[Req, Resp]{}, d.violation("handle", err)
	}
	d.gen++
	var zero Req
	d.req = zero
	if err := d.slot.Deliver(resp); err != nil {
		d.teardown()
		return Handle[Req, Resp]{}, d.violation("handle", err)
	}
	return d.settle("handle", d.co.resume(d.slot))
}

// Request returns the request pending behind h without consuming it.
func (d *Driver[Req, Resp]) Request(h Handle[Req, Resp]) (Req, error) {
	if err := d.check(h); err != nil {
		var zero Req
		return zero, d.violation("request", err)
	}
	return d.req, nil
}

// Err returns the task's own completion error. It is nil while the task
// is suspended and for a task that completed normally.
func (d *Driver[Req, Resp]) Err() error {
	return d.err
}

// Done reports whether the task has completed or was torn down.
func (d *Driver[Req, Resp]) Done() bool {
	return d.state == driverFinished
}

// Close tears down a suspended task. Expr and Cont tasks are dropped at
// their suspension; goroutine-hosted tasks observe ErrCanceled from the
// call they are parked in and Close waits for them to return.
// Closing a finished or never-started driver is a no-op.
func (d *Driver[Req, Resp]) Close() error {
	if d.state != driverSuspended {
		d.state = driverFinished
		return nil
	}
	d.gen++
	d.teardown()
	d.opts.logger.Debug("sansio: task closed", zap.Uint32("serial", d.serial))
	return nil
}

func (d *Driver[Req, Resp]) check(h Handle[Req, Resp]) error {
	switch {
	case h.d == nil:
		return ErrTaskFinished
	case h.d != d || h.gen != d.gen:
		return ErrHandleReused
	case d.state != driverSuspended:
		return ErrTaskFinished
	}
	return nil
}

func (d *Driver[Req, Resp]) settle(op string, st step[Req, Resp]) (Handle[Req, Resp], error) {
	switch st.kind {
	case stepCall:
		req, err := d.slot.TakeRequest()
		if err != nil {
			d.teardown()
			return Handle[Req, Resp]{}, d.violation(op, err)
		}
		d.req = req
		d.state = driverSuspended
		return Handle[Req, Resp]{d: d, gen: d.gen}, nil
	case stepDone:
		d.state = driverFinished
		d.err = st.err
		d.co = nil
		d.unwatch()
		d.opts.logger.Debug("sansio: task completed", zap.Uint32("serial", d.serial), zap.Error(st.err))
		d.opts.exited(0, st.err)
		return Handle[Req, Resp]{}, nil
	case stepSpawn:
		d.teardown()
		return Handle[Req, Resp]{}, d.violation(op, ErrNotMultiplexed)
	}
	d.teardown()
	return Handle[Req, Resp]{}, d.violation(op, st.err)
}

// teardown discards the coroutine and empties the slot.
func (d *Driver[Req, Resp]) teardown() {
	if d.co != nil {
		d.co.discard()
		d.co = nil
	}
	d.unwatch()
	var zero Req
	d.req = zero
	d.slot.reset()
	d.state = driverFinished
}

func (d *Driver[Req, Resp]) unwatch() {
	if d.watched {
		d.cleanup.Stop()
		d.watched = false
	}
}

func (d *Driver[Req, Resp]) violation(op string, err error) error {
	d.opts.logger.Warn("sansio: contract violation",
		zap.String("op", op),
		zap.Uint32("serial", d.serial),
		zap.Error(err))
	return &ContractError{Op: op, Serial: d.serial, Err: err}
}

// Handle is the single-use capability to resume a suspended task.
// It is a small value; copies share one identity, and consuming any copy
// through [Driver.Handle] invalidates all of them.
//
// The zero Handle stands for "no further request".
type Handle[Req, Resp any] struct {
	d   *Driver[Req, Resp]
	gen uint64
}

// Pending reports whether h is live: its task is suspended on a request
// and h has not been consumed.
func (h Handle[Req, Resp]) Pending() bool {
	return h.d != nil && h.d.check(h) == nil
}

// Request returns the pending request, or false when h is not live.
// It is the option-style form of [Driver.Request].
func (h Handle[Req, Resp]) Request() (Req, bool) {
	if !h.Pending() {
		var zero Req
		return zero, false
	}
	return h.d.req, true
}
