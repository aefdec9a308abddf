// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"code.hybscloud.com/kont"
	"go.uber.org/zap"
)

// Responder performs whatever a request asks for and returns the
// response. It is the outer I/O boundary of a task: a socket loop, a
// timer, or a test harness replaying canned data.
type Responder[Req, Resp any] func(Req) (Resp, error)

// Exec runs task to completion, answering every request with respond.
// Returns the first responder error, or the task's own completion error.
// Options apply as they do to a [Driver]: the exit hook observes the
// task's own result and is not called when a responder error stops it.
//
// Expr and Cont tasks are evaluated by a synchronous effect handler,
// without stepping; other tasks are stepped through a [Driver].
func Exec[Req, Resp any](task Task[Req, Resp], respond Responder[Req, Resp], opts ...Option) error {
	if task.expr != nil {
		return execExpr(task.expr, respond, newOptions(opts))
	}
	d := NewDriver(task, opts...)
	h, err := d.Start()
	for err == nil && h.Pending() {
		req, _ := h.Request()
		resp, rerr := respond(req)
		if rerr != nil {
			d.Close()
			return rerr
		}
		h, err = d.Handle(h, resp)
	}
	if err != nil {
		return err
	}
	return d.Err()
}

// ExecExpr evaluates an Expr-world task body to completion with respond.
// Does not spawn goroutines or create a Driver.
func ExecExpr[Req, Resp any](body func(Conn[Req, Resp]) kont.Expr[error], respond Responder[Req, Resp]) error {
	return execExpr(body, respond, newOptions(nil))
}

func execExpr[Req, Resp any](body func(Conn[Req, Resp]) kont.Expr[error], respond Responder[Req, Resp], o options) (err error) {
	serial := nextSerial()
	h := callHandler[Req, Resp]{slot: new(Slot[Req, Resp]), respond: respond, serial: serial, logger: o.logger}
	o.logger.Debug("sansio: task started", zap.Uint32("serial", serial))
	defer func() {
		if v := recover(); v != nil {
			err = newPanicError(v)
			o.logger.Debug("sansio: task completed", zap.Uint32("serial", serial), zap.Error(err))
			o.exited(0, err)
		}
	}()
	res := kont.HandleExpr(settled(body(Conn[Req, Resp]{})), h)
	if res.halted {
		o.logger.Debug("sansio: task closed", zap.Uint32("serial", serial), zap.Error(res.err))
		return res.err
	}
	o.logger.Debug("sansio: task completed", zap.Uint32("serial", serial), zap.Error(res.err))
	o.exited(0, res.err)
	return res.err
}

// callHandler implements kont.Handler for call effects.
// Value type: passed to the evaluation loop on the stack.
type callHandler[Req, Resp any] struct {
	slot    *Slot[Req, Resp]
	respond Responder[Req, Resp]
	serial  Serial
	logger  *zap.Logger
}

// Dispatch implements kont.Handler via structural interface assertion.
// A responder error or a contract violation halts the computation.
func (h callHandler[Req, Resp]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	sop, ok := op.(slotDispatcher[Req, Resp])
	if !ok {
		if _, ok := op.(spawner[Req, Resp]); ok {
			return h.violation(ErrNotMultiplexed), false
		}
		return h.violation(ErrUnhandledEffect), false
	}
	if err := sop.DispatchSlot(h.slot); err != nil {
		return h.violation(err), false
	}
	req, err := h.slot.TakeRequest()
	if err != nil {
		return h.violation(err), false
	}
	resp, err := h.respond(req)
	if err != nil {
		return outcome{err: err, halted: true}, false
	}
	if err := h.slot.Deliver(resp); err != nil {
		return h.violation(err), false
	}
	return h.slot, true
}

func (h callHandler[Req, Resp]) violation(err error) outcome {
	h.logger.Warn("sansio: contract violation",
		zap.String("op", "exec"),
		zap.Uint32("serial", h.serial),
		zap.Error(err))
	return outcome{err: &ContractError{Op: "exec", Serial: h.serial, Err: err}, halted: true}
}
