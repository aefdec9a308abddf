// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Pending is a request produced by the task identified by ID.
type Pending[Req any] struct {
	ID      ID
	Request Req
}

// muxTask is one hosted task. Each task owns its slot, so every task
// has at most one item in flight independently of the others.
type muxTask[Req, Resp any] struct {
	id   ID
	co   coroutine[Req, Resp]
	slot Slot[Req, Resp]
	req  Req
}

// abandonTasks cancels the goroutine-hosted tasks of a mux that became
// unreachable without Close.
func abandonTasks[Req, Resp any](tasks map[ID]*muxTask[Req, Resp]) {
	for _, t := range tasks {
		if fc, ok := t.co.(*funcCoroutine[Req, Resp]); ok {
			fc.abandon()
		}
	}
}

// Mux hosts many independently suspended tasks of one vocabulary under a
// single caller. Every call returns the complete frontier of requests it
// produced: tasks spawned during a call are driven to their first
// suspension before the call returns.
//
// A Mux is not safe for concurrent use. Dropping a Mux without Close
// cancels its goroutine-hosted tasks once it is garbage collected.
type Mux[Req, Resp any] struct {
	tasks   map[ID]*muxTask[Req, Resp]
	queued  []Task[Req, Resp]
	nextID  ID
	started bool
	serial  Serial
	opts    options
}

// NewMux creates an empty multiplexer.
func NewMux[Req, Resp any](opts ...Option) *Mux[Req, Resp] {
	m := &Mux[Req, Resp]{
		tasks:  make(map[ID]*muxTask[Req, Resp]),
		serial: nextSerial(),
		opts:   newOptions(opts),
	}
	runtime.AddCleanup(m, abandonTasks[Req, Resp], m.tasks)
	return m
}

// Serial returns the serial number assigned to this mux.
func (m *Mux[Req, Resp]) Serial() Serial {
	return m.serial
}

// Add registers task to be spawned by Start.
func (m *Mux[Req, Resp]) Add(task Task[Req, Resp]) error {
	if m.started {
		return m.violation("add", 0, ErrStarted)
	}
	m.queued = append(m.queued, task)
	return nil
}

// Start spawns every registered task in registration order and returns
// one pending request per task that suspended. Tasks that complete
// without calling produce nothing.
func (m *Mux[Req, Resp]) Start() ([]Pending[Req], error) {
	if m.started {
		return nil, m.violation("start", 0, ErrStarted)
	}
	m.started = true
	queued := m.queued
	m.queued = nil
	var out []Pending[Req]
	var errs error
	for _, task := range queued {
		var err error
		if out, _, err = m.spawn(out, task); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return out, errs
}

// Spawn starts task from the host side after Start and returns the
// requests it produced.
func (m *Mux[Req, Resp]) Spawn(task Task[Req, Resp]) ([]Pending[Req], error) {
	m.started = true
	out, _, err := m.spawn(nil, task)
	return out, err
}

// Handle delivers resp to the task owning id, drives it to its next call
// or completion, and returns every request produced by that step: the
// task's own next request, preceded by the first requests of any tasks
// it spawned. A completed task contributes nothing.
func (m *Mux[Req, Resp]) Handle(id ID, resp Resp) ([]Pending[Req], error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, m.violation("handle", id, ErrUnknownTask)
	}
	var zero Req
	t.req = zero
	if err := t.slot.Deliver(resp); err != nil {
		m.drop(t)
		return nil, m.violation("handle", id, err)
	}
	return m.drive(nil, t, t.co.resume(&t.slot))
}

// Request returns the request pending on id without consuming it.
func (m *Mux[Req, Resp]) Request(id ID) (Req, error) {
	t, ok := m.tasks[id]
	if !ok {
		var zero Req
		return zero, m.violation("request", id, ErrUnknownTask)
	}
	return t.req, nil
}

// Len returns the number of suspended tasks.
func (m *Mux[Req, Resp]) Len() int {
	return len(m.tasks)
}

// Cancel tears down the task owning id. Expr and Cont tasks are dropped
// at their suspension; goroutine-hosted tasks observe ErrCanceled and
// Cancel waits for them to return. The id is never reused.
func (m *Mux[Req, Resp]) Cancel(id ID) error {
	t, ok := m.tasks[id]
	if !ok {
		return m.violation("cancel", id, ErrUnknownTask)
	}
	m.drop(t)
	m.opts.logger.Debug("sansio: task canceled",
		zap.Uint32("serial", m.serial),
		zap.Uint64("task", uint64(id)))
	return nil
}

// Close cancels every suspended task.
func (m *Mux[Req, Resp]) Close() error {
	var errs error
	for id := range m.tasks {
		errs = multierr.Append(errs, m.Cancel(id))
	}
	m.queued = nil
	return errs
}

// spawn registers task under a fresh id and drives it to its first
// suspension, appending what it produced to out.
func (m *Mux[Req, Resp]) spawn(out []Pending[Req], task Task[Req, Resp]) ([]Pending[Req], ID, error) {
	m.nextID++
	t := &muxTask[Req, Resp]{id: m.nextID, co: task.coroutine()}
	m.tasks[t.id] = t
	m.opts.logger.Debug("sansio: task spawned",
		zap.Uint32("serial", m.serial),
		zap.Uint64("task", uint64(t.id)))
	out, err := m.drive(out, t, t.co.start(&t.slot))
	return out, t.id, err
}

// drive settles t after one step. Spawn requests are served inline:
// the child is settled first, then t resumes with the child's id. A child
// that violates the engine contract is dropped on its own; t carries on.
func (m *Mux[Req, Resp]) drive(out []Pending[Req], t *muxTask[Req, Resp], st step[Req, Resp]) ([]Pending[Req], error) {
	var errs error
	for {
		switch st.kind {
		case stepCall:
			req, err := t.slot.TakeRequest()
			if err != nil {
				m.drop(t)
				return out, multierr.Append(errs, m.violation("step", t.id, err))
			}
			t.req = req
			return append(out, Pending[Req]{ID: t.id, Request: req}), errs
		case stepSpawn:
			var (
				child ID
				err   error
			)
			out, child, err = m.spawn(out, st.spawn)
			errs = multierr.Append(errs, err)
			st = t.co.resume(child)
		case stepDone:
			delete(m.tasks, t.id)
			t.co = nil
			m.opts.logger.Debug("sansio: task completed",
				zap.Uint32("serial", m.serial),
				zap.Uint64("task", uint64(t.id)),
				zap.Error(st.err))
			m.opts.exited(t.id, st.err)
			return out, errs
		default:
			m.drop(t)
			return out, multierr.Append(errs, m.violation("step", t.id, st.err))
		}
	}
}

func (m *Mux[Req, Resp]) drop(t *muxTask[Req, Resp]) {
	delete(m.tasks, t.id)
	if t.co != nil {
		t.co.discard()
		t.co = nil
	}
	var zero Req
	t.req = zero
	t.slot.reset()
}

func (m *Mux[Req, Resp]) violation(op string, id ID, err error) error {
	m.opts.logger.Warn("sansio: contract violation",
		zap.String("op", op),
		zap.Uint32("serial", m.serial),
		zap.Uint64("task", uint64(id)),
		zap.Error(err))
	return &ContractError{Op: op, Serial: m.serial, Task: id, Err: err}
}
