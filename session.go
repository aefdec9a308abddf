// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/lfq"
)

// handoffCapacity is the bounded capacity of each hand-off queue.
// Driver and task strictly alternate, so at most one entry is ever in
// flight; 4 keeps the ring inside a single cache line.
const handoffCapacity = 4

// handoff is one transfer of control between a driver and a
// goroutine-hosted task.
type handoff[Req, Resp any] struct {
	kind   stepKind
	in     kont.Resumed
	task   Task[Req, Resp]
	err    error
	cancel bool
}

// funcCoroutine hosts a blocking Go function on its own goroutine.
// Control moves through two single-producer single-consumer queues:
// toTask carries resumptions, toHost carries suspensions and completion.
// Exactly one side runs at any time.
type funcCoroutine[Req, Resp any] struct {
	fn       func(*Caller[Req, Resp]) error
	slot     *Slot[Req, Resp]
	toTask   lfq.SPSC[handoff[Req, Resp]]
	toHost   lfq.SPSC[handoff[Req, Resp]]
	canceled bool
	running  bool
}

func newFuncCoroutine[Req, Resp any](fn func(*Caller[Req, Resp]) error) *funcCoroutine[Req, Resp] {
	c := &funcCoroutine[Req, Resp]{fn: fn}
	c.toTask.Init(handoffCapacity)
	c.toHost.Init(handoffCapacity)
	return c
}

func (c *funcCoroutine[Req, Resp]) start(s *Slot[Req, Resp]) step[Req, Resp] {
	c.slot = s
	c.running = true
	go c.run()
	return c.wait()
}

func (c *funcCoroutine[Req, Resp]) resume(in kont.Resumed) step[Req, Resp] {
	send(&c.toTask, handoff[Req, Resp]{in: in})
	return c.wait()
}

// discard cancels the task at its current suspension and waits until the
// function returns. Further calls from the task fail fast with ErrCanceled.
func (c *funcCoroutine[Req, Resp]) discard() {
	if !c.running {
		return
	}
	for {
		send(&c.toTask, handoff[Req, Resp]{cancel: true})
		if st := c.wait(); st.kind == stepDone {
			return
		}
	}
}

// abandon cancels a task whose host became unreachable while the task was
// suspended. It runs on the cleanup goroutine and does not wait: the task
// observes ErrCanceled and returns on its own.
func (c *funcCoroutine[Req, Resp]) abandon() {
	if c.running {
		send(&c.toTask, handoff[Req, Resp]{cancel: true})
	}
}

func (c *funcCoroutine[Req, Resp]) wait() step[Req, Resp] {
	h := receive(&c.toHost)
	if h.kind == stepDone {
		c.running = false
	}
	return step[Req, Resp]{kind: h.kind, spawn: h.task, err: h.err}
}

func (c *funcCoroutine[Req, Resp]) run() {
	var err error
	defer func() {
		if v := recover(); v != nil {
			err = newPanicError(v)
		}
		send(&c.toHost, handoff[Req, Resp]{kind: stepDone, err: err})
	}()
	err = c.fn(&Caller[Req, Resp]{co: c})
}

// suspend parks the task goroutine until the driver resumes it.
func (c *funcCoroutine[Req, Resp]) suspend(h handoff[Req, Resp]) (kont.Resumed, error) {
	send(&c.toHost, h)
	in := receive(&c.toTask)
	if in.cancel {
		c.canceled = true
		return nil, ErrCanceled
	}
	return in.in, nil
}

// send enqueues h, backing off while the queue is full.
func send[Req, Resp any](q *lfq.SPSC[handoff[Req, Resp]], h handoff[Req, Resp]) {
	var bo iox.Backoff
	for {
		if err := q.Enqueue(&h); err == nil {
			return
		}
		bo.Wait()
	}
}

// receive dequeues the next hand-off, backing off on iox.ErrWouldBlock.
func receive[Req, Resp any](q *lfq.SPSC[handoff[Req, Resp]]) handoff[Req, Resp] {
	var bo iox.Backoff
	for {
		h, err := q.Dequeue()
		if err == nil {
			return h
		}
		if !iox.IsWouldBlock(err) {
			panic("sansio: hand-off queue: " + err.Error())
		}
		bo.Wait()
	}
}

// Caller is the capability a goroutine-hosted task uses to suspend.
// It must only be used from the task's own goroutine.
type Caller[Req, Resp any] struct {
	co *funcCoroutine[Req, Resp]
}

// Call hands req to the driver and blocks until the driver responds.
// From the task's point of view it is an ordinary synchronous call.
func (c *Caller[Req, Resp]) Call(req Req) (Resp, error) {
	var zero Resp
	if err := c.emit(req); err != nil {
		return zero, err
	}
	return c.co.slot.TakeResponse()
}

// Borrow is Call with the response returned as a generation-tagged [Ref],
// valid until the next Call or Borrow.
func (c *Caller[Req, Resp]) Borrow(req Req) (Ref[Resp], error) {
	if err := c.emit(req); err != nil {
		return Ref[Resp]{}, err
	}
	return c.co.slot.Borrow()
}

// Spawn starts task next to the current one on the hosting [Mux].
// A single-task [Driver] refuses the spawn with ErrNotMultiplexed and tears
// the task down, so the task observes ErrCanceled here.
func (c *Caller[Req, Resp]) Spawn(task Task[Req, Resp]) (ID, error) {
	if c.co.canceled {
		return 0, ErrCanceled
	}
	in, err := c.co.suspend(handoff[Req, Resp]{kind: stepSpawn, task: task})
	if err != nil {
		return 0, err
	}
	return in.(ID), nil
}

func (c *Caller[Req, Resp]) emit(req Req) error {
	if c.co.canceled {
		return ErrCanceled
	}
	if err := c.co.slot.Emit(req); err != nil {
		return err
	}
	_, err := c.co.suspend(handoff[Req, Resp]{kind: stepCall})
	return err
}
