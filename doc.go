// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sansio provides a stepping coroutine engine for sans-I/O protocol
// logic, built on the algebraic effects of [code.hybscloud.com/kont].
//
// A protocol task performs no I/O. It emits abstract requests and consumes
// responses supplied from outside; the caller that owns the task decides
// what each request means (read a socket, sleep, print a line) and hands
// the result back. The same task therefore runs unchanged under a
// blocking loop, an event loop, or a test that replays canned data.
//
// # Architecture
//
//   - Exchange: a [Slot] holds at most one item in flight, a request or a
//     response. Every request opens a new generation; borrowed responses
//     ([Ref]) are only readable inside their generation.
//   - Suspension: the [Call] effect emits a request into the slot and
//     suspends the task until its driver delivers the response.
//   - Stepping: a [Driver] runs a task to its next call and returns a
//     single-use [Handle]. [Driver.Handle] consumes the handle, delivers
//     the response, and runs the task to its next call or completion.
//     Consuming a handle twice is reported as ErrHandleReused.
//   - Layering: a [Stack] composes tasks of different vocabularies, for
//     example message logic over a framing layer, into one task.
//   - Multiplexing: a [Mux] hosts many suspended tasks under one caller,
//     keyed by sequential [ID]s. Tasks may [Spawn] siblings.
//
// # Task Forms
//
//   - Cont-world: [NewTask] with [Conn.Call], [CallBind], [CallThen], [Loop].
//   - Expr-world: [NewTaskExpr] with [Conn.ExprCall], [ExprCallBind],
//     [ExprLoop]; fused variants run on pooled frames.
//   - Blocking Go: [NewTaskFunc] runs ordinary code on its own goroutine,
//     handing control to and from the driver through lock-free SPSC queues
//     ([code.hybscloud.com/lfq]). Exactly one side runs at a time.
//
// # Integration
//
//   - Stepping: [Driver] and [Mux] for event loops and proactors.
//   - Blocking: [Exec] runs a task against a [Responder]; [Run] drains a
//     [Mux] the same way.
//
// Subpackages tlv, pingpong and tlvpingpong are complete protocols written
// this way: a framing layer, a message layer, and the two stacked.
//
// Engine misuse is reported as a [*ContractError] wrapping one of the
// sentinel errors, never as a panic.
//
// # Example
//
//	echo := sansio.NewTask(func(c sansio.Conn[string, string]) kont.Eff[error] {
//		return sansio.CallBind(c, "ping", func(s string) kont.Eff[error] {
//			return sansio.Done(nil)
//		})
//	})
//	d := sansio.NewDriver(echo)
//	h, _ := d.Start()
//	for h.Pending() {
//		req, _ := h.Request()
//		h, _ = d.Handle(h, req+" pong")
//	}
package sansio
