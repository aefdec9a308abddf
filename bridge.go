// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"code.hybscloud.com/kont"
)

// Task is a protocol coroutine speaking the Req/Resp vocabulary.
// A Task value is a recipe: every start builds a fresh coroutine, so one
// Task may be driven any number of times, including concurrently on
// separate drivers.
type Task[Req, Resp any] struct {
	expr  func(Conn[Req, Resp]) kont.Expr[error]
	fn    func(*Caller[Req, Resp]) error
	build func() coroutine[Req, Resp]
}

// NewTask builds a task from a Cont-world body.
// The body is reified into Expr-world when the task starts.
func NewTask[Req, Resp any](body func(Conn[Req, Resp]) kont.Eff[error]) Task[Req, Resp] {
	return Task[Req, Resp]{expr: func(c Conn[Req, Resp]) kont.Expr[error] {
		return kont.Reify(body(c))
	}}
}

// NewTaskExpr builds a task from an Expr-world body.
func NewTaskExpr[Req, Resp any](body func(Conn[Req, Resp]) kont.Expr[error]) Task[Req, Resp] {
	return Task[Req, Resp]{expr: body}
}

// NewTaskFunc builds a task from ordinary blocking Go code.
// fn runs on its own goroutine, but strictly alternates with its driver
// through a one-slot hand-off: it never runs while the driver does.
// fn must return once a call reports ErrCanceled.
func NewTaskFunc[Req, Resp any](fn func(*Caller[Req, Resp]) error) Task[Req, Resp] {
	return Task[Req, Resp]{fn: fn}
}

// newMachineTask builds a task from a hand-written state machine.
func newMachineTask[Req, Resp any](build func() coroutine[Req, Resp]) Task[Req, Resp] {
	return Task[Req, Resp]{build: build}
}

// IsZero reports whether t was built by none of the constructors.
func (t Task[Req, Resp]) IsZero() bool {
	return t.expr == nil && t.fn == nil && t.build == nil
}

func (t Task[Req, Resp]) coroutine() coroutine[Req, Resp] {
	switch {
	case t.expr != nil:
		return &exprCoroutine[Req, Resp]{body: t.expr}
	case t.fn != nil:
		return newFuncCoroutine(t.fn)
	case t.build != nil:
		return t.build()
	}
	return doneCoroutine[Req, Resp]{}
}

// stepKind classifies where a coroutine stopped.
type stepKind uint8

const (
	// stepCall: a request was emitted into the slot.
	stepCall stepKind = iota + 1
	// stepSpawn: the task asks its host to start another task.
	stepSpawn
	// stepDone: the task completed; err is its result.
	stepDone
	// stepFault: an engine contract was violated; err says which.
	stepFault
)

// step is the outcome of running a coroutine for one step.
type step[Req, Resp any] struct {
	kind  stepKind
	spawn Task[Req, Resp]
	err   error
}

// coroutine is one running instance of a Task.
//
// start runs until the first suspension. resume runs until the next one:
// in is the slot for a call, or the child ID for a spawn. discard drops a
// suspended coroutine; it must not be resumed afterwards.
type coroutine[Req, Resp any] interface {
	start(s *Slot[Req, Resp]) step[Req, Resp]
	resume(in kont.Resumed) step[Req, Resp]
	discard()
}

// outcome is the completion value of a task body as kont sees it.
// kont unpacks completion values with a type assertion, and a nil error
// interface does not satisfy one; outcome is never nil. halted is set
// when a handler stopped the body before it completed.
type outcome struct {
	err    error
	halted bool
}

func outcomeUnwind(_, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	err, _ := current.(error)
	return outcome{err: err}, kont.ReturnFrame{}
}

// settled wraps a task body so that it completes with an outcome.
func settled(m kont.Expr[error]) kont.Expr[outcome] {
	if _, ok := m.Frame.(kont.ReturnFrame); ok {
		return kont.ExprReturn(outcome{err: m.Value})
	}
	uf := kont.AcquireUnwindFrame()
	uf.Unwind = outcomeUnwind
	return kont.Expr[outcome]{Frame: kont.ChainFrames(m.Frame, uf)}
}

// exprCoroutine steps a kont Expr one effect at a time.
// A panic in the body completes the task with a *PanicError.
type exprCoroutine[Req, Resp any] struct {
	body func(Conn[Req, Resp]) kont.Expr[error]
	slot *Slot[Req, Resp]
	susp *kont.Suspension[outcome]
}

func (c *exprCoroutine[Req, Resp]) start(s *Slot[Req, Resp]) (st step[Req, Resp]) {
	defer c.catch(&st)
	c.slot = s
	result, susp := kont.StepExpr(settled(c.body(Conn[Req, Resp]{})))
	return c.settle(result, susp)
}

func (c *exprCoroutine[Req, Resp]) resume(in kont.Resumed) (st step[Req, Resp]) {
	defer c.catch(&st)
	susp := c.susp
	c.susp = nil
	result, next := susp.Resume(in)
	return c.settle(result, next)
}

func (c *exprCoroutine[Req, Resp]) catch(st *step[Req, Resp]) {
	if v := recover(); v != nil {
		c.susp = nil
		*st = step[Req, Resp]{kind: stepDone, err: newPanicError(v)}
	}
}

func (c *exprCoroutine[Req, Resp]) settle(result outcome, susp *kont.Suspension[outcome]) step[Req, Resp] {
	if susp == nil {
		return step[Req, Resp]{kind: stepDone, err: result.err}
	}
	c.susp = susp
	switch op := susp.Op().(type) {
	case slotDispatcher[Req, Resp]:
		if err := op.DispatchSlot(c.slot); err != nil {
			return step[Req, Resp]{kind: stepFault, err: err}
		}
		return step[Req, Resp]{kind: stepCall}
	case spawner[Req, Resp]:
		return step[Req, Resp]{kind: stepSpawn, spawn: op.spawned()}
	}
	return step[Req, Resp]{kind: stepFault, err: ErrUnhandledEffect}
}

func (c *exprCoroutine[Req, Resp]) discard() {
	if c.susp != nil {
		c.susp.Discard()
		c.susp = nil
	}
}

// doneCoroutine is the coroutine of the zero Task: it completes at once.
type doneCoroutine[Req, Resp any] struct{}

func (doneCoroutine[Req, Resp]) start(*Slot[Req, Resp]) step[Req, Resp] {
	return step[Req, Resp]{kind: stepDone}
}

func (doneCoroutine[Req, Resp]) resume(kont.Resumed) step[Req, Resp] {
	return step[Req, Resp]{kind: stepFault, err: ErrTaskFinished}
}

func (doneCoroutine[Req, Resp]) discard() {}
