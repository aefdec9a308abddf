// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"code.hybscloud.com/kont"
)

// Call is the suspension effect of a protocol task.
// Perform(Call[Req, Resp]{Request: r}) hands r to the driver and resumes
// with the slot holding the driver's response. Task code normally goes
// through [Conn.Call] or [CallBind], which take the response out of the slot.
type Call[Req, Resp any] struct {
	kont.Phantom[*Slot[Req, Resp]]
	Request Req
}

// DispatchSlot emits the request into the driver's slot.
// Fails with ErrRequestNotTaken or ErrResponseNotTaken when the slot
// still holds an item from the previous step.
func (c Call[Req, Resp]) DispatchSlot(s *Slot[Req, Resp]) error {
	return s.Emit(c.Request)
}

// Spawn is the effect operation for starting a sibling task on the [Mux]
// hosting the current one. It resumes with the new task's [ID].
type Spawn[Req, Resp any] struct {
	kont.Phantom[ID]
	Task Task[Req, Resp]
}

func (s Spawn[Req, Resp]) spawned() Task[Req, Resp] {
	return s.Task
}

// slotDispatcher is the structural interface for call operations.
type slotDispatcher[Req, Resp any] interface {
	DispatchSlot(s *Slot[Req, Resp]) error
}

// spawner is the structural interface for spawn operations.
type spawner[Req, Resp any] interface {
	spawned() Task[Req, Resp]
}

// takeResponse is the resume mapping for Call: it moves the response out
// of the slot so the slot is empty again before the task's next call.
func takeResponse[Req, Resp any](s *Slot[Req, Resp]) Resp {
	resp, _ := s.TakeResponse()
	return resp
}

// borrowResponse is the resume mapping for Borrow.
func borrowResponse[Req, Resp any](s *Slot[Req, Resp]) Ref[Resp] {
	ref, _ := s.Borrow()
	return ref
}

// Conn is the typed capability a task body uses to perform effects.
// It binds the request and response vocabulary of the task, so a task
// can only be driven by a driver of the same vocabulary.
type Conn[Req, Resp any] struct{}

// Call suspends with req and resumes with the driver's response.
func (Conn[Req, Resp]) Call(req Req) kont.Eff[Resp] {
	return kont.Map(kont.Perform(Call[Req, Resp]{Request: req}), takeResponse[Req, Resp])
}

// Borrow is Call with the response returned as a generation-tagged [Ref].
func (Conn[Req, Resp]) Borrow(req Req) kont.Eff[Ref[Resp]] {
	return kont.Map(kont.Perform(Call[Req, Resp]{Request: req}), borrowResponse[Req, Resp])
}

// Spawn starts task next to the current one on the hosting [Mux].
func (Conn[Req, Resp]) Spawn(task Task[Req, Resp]) kont.Eff[ID] {
	return kont.Perform(Spawn[Req, Resp]{Task: task})
}

// ExprCall is the Expr-world form of Call.
func (Conn[Req, Resp]) ExprCall(req Req) kont.Expr[Resp] {
	return kont.ExprMap(kont.ExprPerform(Call[Req, Resp]{Request: req}), takeResponse[Req, Resp])
}

// ExprBorrow is the Expr-world form of Borrow.
func (Conn[Req, Resp]) ExprBorrow(req Req) kont.Expr[Ref[Resp]] {
	return kont.ExprMap(kont.ExprPerform(Call[Req, Resp]{Request: req}), borrowResponse[Req, Resp])
}

// ExprSpawn is the Expr-world form of Spawn.
func (Conn[Req, Resp]) ExprSpawn(task Task[Req, Resp]) kont.Expr[ID] {
	return kont.ExprPerform(Spawn[Req, Resp]{Task: task})
}
