// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"code.hybscloud.com/kont"
)

// identityResume is the identity resume function for EffectFrame construction.
// Named function produces a static function value, consistent with kont convention.
func identityResume(v kont.Erased) kont.Erased { return v }

func callBindUnwind[Req, Resp, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(Resp) kont.Expr[B])
	result := f(takeResponse(current.(*Slot[Req, Resp])))
	return kont.Erased(result.Value), result.Frame
}

// ExprCallBind calls with req and passes the response to f.
// Fuses ExprPerform(Call{Request: req}) + ExprBind on pooled frames.
func ExprCallBind[Req, Resp, B any](_ Conn[Req, Resp], req Req, f func(Resp) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = callBindUnwind[Req, Resp, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Call[Req, Resp]{Request: req}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

func borrowBindUnwind[Req, Resp, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(Ref[Resp]) kont.Expr[B])
	result := f(borrowResponse(current.(*Slot[Req, Resp])))
	return kont.Erased(result.Value), result.Frame
}

// ExprBorrowBind is ExprCallBind with the response passed as a [Ref].
func ExprBorrowBind[Req, Resp, B any](_ Conn[Req, Resp], req Req, f func(Ref[Resp]) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = borrowBindUnwind[Req, Resp, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Call[Req, Resp]{Request: req}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

func spawnBindUnwind[B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(ID) kont.Expr[B])
	result := f(current.(ID))
	return kont.Erased(result.Value), result.Frame
}

// ExprSpawnBind spawns task and passes its id to f.
// Fuses ExprPerform(Spawn{Task: task}) + ExprBind.
func ExprSpawnBind[Req, Resp, B any](_ Conn[Req, Resp], task Task[Req, Resp], f func(ID) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = spawnBindUnwind[B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Spawn[Req, Resp]{Task: task}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

// ExprContinue is the ExprLoop step result that carries on with next.
func ExprContinue[S any](next S) kont.Expr[kont.Either[S, error]] {
	return kont.ExprReturn(kont.Left[S, error](next))
}

// ExprFinish is the ExprLoop step result that ends the task with err.
func ExprFinish[S any](err error) kont.Expr[kont.Either[S, error]] {
	return kont.ExprReturn(kont.Right[S, error](err))
}
