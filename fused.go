// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"code.hybscloud.com/kont"
)

// CallBind calls with req and passes the response to f.
// Fuses Perform(Call{Request: req}) + Bind.
func CallBind[Req, Resp, B any](c Conn[Req, Resp], req Req, f func(Resp) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(c.Call(req), f)
}

// CallThen calls with req, discards the response and continues with next.
// Fuses Perform(Call{Request: req}) + Then.
func CallThen[Req, Resp, B any](c Conn[Req, Resp], req Req, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(c.Call(req), next)
}

// SpawnBind spawns task and passes its id to f.
// Fuses Perform(Spawn{Task: task}) + Bind.
func SpawnBind[Req, Resp, B any](c Conn[Req, Resp], task Task[Req, Resp], f func(ID) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(c.Spawn(task), f)
}

// Done finishes a task with err.
func Done(err error) kont.Eff[error] {
	return kont.Pure(err)
}

// Continue is the Loop step result that carries on with next.
func Continue[S any](next S) kont.Eff[kont.Either[S, error]] {
	return kont.Pure(kont.Left[S, error](next))
}

// Finish is the Loop step result that ends the task with err.
func Finish[S any](err error) kont.Eff[kont.Either[S, error]] {
	return kont.Pure(kont.Right[S, error](err))
}
