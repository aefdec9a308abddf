// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/sansio"
)

var errBoom = errors.New("boom")

// drive runs d to completion, answering each request with respond.
// Returns the requests seen, in order.
func drive[Req, Resp any](tb testing.TB, d *sansio.Driver[Req, Resp], respond func(Req) Resp) []Req {
	tb.Helper()
	var seen []Req
	h, err := d.Start()
	for err == nil && h.Pending() {
		req, _ := h.Request()
		seen = append(seen, req)
		h, err = d.Handle(h, respond(req))
	}
	if err != nil {
		tb.Fatalf("drive: %v", err)
	}
	return seen
}

func filled(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

// ownedTask calls with [1;10] expecting [2;20], then [3;10] expecting [4;20].
func ownedTask() sansio.Task[[10]byte, [20]byte] {
	return sansio.NewTask(func(c sansio.Conn[[10]byte, [20]byte]) kont.Eff[error] {
		return sansio.CallBind(c, array10(1), func(r [20]byte) kont.Eff[error] {
			if r != array20(2) {
				return sansio.Done(fmt.Errorf("first response %v", r))
			}
			return sansio.CallBind(c, array10(3), func(r [20]byte) kont.Eff[error] {
				if r != array20(4) {
					return sansio.Done(fmt.Errorf("second response %v", r))
				}
				return sansio.Done(nil)
			})
		})
	})
}

func array10(b byte) (a [10]byte) {
	copy(a[:], filled(b, 10))
	return a
}

func array20(b byte) (a [20]byte) {
	copy(a[:], filled(b, 20))
	return a
}

// borrowTask calls three times with a task-owned buffer and reads every
// response through a borrowed reference. The buffer is refilled in place
// between the first two calls and replaced before the third.
func borrowTask() sansio.Task[[]byte, []byte] {
	return sansio.NewTask(func(c sansio.Conn[[]byte, []byte]) kont.Eff[error] {
		buf := filled(1, 10)
		return kont.Bind(c.Borrow(buf), func(r1 sansio.Ref[[]byte]) kont.Eff[error] {
			if err := expectRef(r1, 2); err != nil {
				return sansio.Done(err)
			}
			copy(buf, filled(3, 10))
			return kont.Bind(c.Borrow(buf), func(r2 sansio.Ref[[]byte]) kont.Eff[error] {
				if _, err := r1.Load(); !errors.Is(err, sansio.ErrStaleReference) {
					return sansio.Done(fmt.Errorf("first ref after next call: %v", err))
				}
				if err := expectRef(r2, 4); err != nil {
					return sansio.Done(err)
				}
				buf = filled(5, 10)
				return kont.Bind(c.Borrow(buf), func(r3 sansio.Ref[[]byte]) kont.Eff[error] {
					return sansio.Done(expectRef(r3, 6))
				})
			})
		})
	})
}

func expectRef(r sansio.Ref[[]byte], b byte) error {
	v, err := r.Load()
	if err != nil {
		return err
	}
	if !bytes.Equal(v, filled(b, 20)) {
		return fmt.Errorf("got %v, want [%d;20]", v, b)
	}
	return nil
}

// counter calls n times with 0..n-1 and finishes with the sum of responses.
func counter(n int, sum *int) sansio.Task[int, int] {
	return sansio.NewTask(func(c sansio.Conn[int, int]) kont.Eff[error] {
		*sum = 0
		return sansio.Loop(0, func(i int) kont.Eff[kont.Either[int, error]] {
			if i == n {
				return sansio.Finish[int](nil)
			}
			return sansio.CallBind(c, i, func(r int) kont.Eff[kont.Either[int, error]] {
				*sum += r
				return sansio.Continue(i + 1)
			})
		})
	})
}

// foreign is an effect no driver knows how to dispatch.
type foreign struct {
	kont.Phantom[int]
}
