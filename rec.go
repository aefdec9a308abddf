// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"code.hybscloud.com/kont"
)

// Loop runs a recursive task body (Cont-world).
// step returns Left(nextState) to continue or Right(err) to finish the
// task with err.
func Loop[S any](initial S, step func(S) kont.Eff[kont.Either[S, error]]) kont.Eff[error] {
	return kont.Bind(step(initial), func(e kont.Either[S, error]) kont.Eff[error] {
		if next, ok := e.GetLeft(); ok {
			return Loop(next, step)
		}
		err, _ := e.GetRight()
		return kont.Pure(err)
	})
}

// ExprLoop runs a recursive task body (Expr-world).
// step returns Left(nextState) to continue or Right(err) to finish.
// Iterations that complete without suspending are unrolled in place;
// suspended ones continue through a pooled bind frame.
func ExprLoop[S any](initial S, step func(S) kont.Expr[kont.Either[S, error]]) kont.Expr[error] {
	state := initial
	for {
		m := step(state)
		if _, ok := m.Frame.(kont.ReturnFrame); !ok {
			return exprLoopResume(m, step)
		}
		next, ok := m.Value.GetLeft()
		if !ok {
			err, _ := m.Value.GetRight()
			return kont.ExprReturn(err)
		}
		state = next
	}
}

func exprLoopResume[S any](m kont.Expr[kont.Either[S, error]], step func(S) kont.Expr[kont.Either[S, error]]) kont.Expr[error] {
	bf := kont.AcquireBindFrame()
	bf.F = func(a kont.Erased) kont.Expr[kont.Erased] {
		e := a.(kont.Either[S, error])
		if next, ok := e.GetLeft(); ok {
			result := ExprLoop(next, step)
			return kont.Expr[kont.Erased]{Value: kont.Erased(result.Value), Frame: result.Frame}
		}
		err, _ := e.GetRight()
		return kont.Expr[kont.Erased]{Value: kont.Erased(err), Frame: kont.ReturnFrame{}}
	}
	bf.Next = kont.ReturnFrame{}
	return kont.Expr[error]{
		Frame: kont.ChainFrames(m.Frame, bf),
	}
}
