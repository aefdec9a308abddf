// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio_test

import (
	"bytes"
	"errors"
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/sansio"
)

func TestDriverNoCall(t *testing.T) {
	d := sansio.NewDriver(sansio.NewTask(func(c sansio.Conn[int, int]) kont.Eff[error] {
		return sansio.Done(nil)
	}))
	h, err := d.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h.Pending() {
		t.Fatal("task without calls returned a live handle")
	}
	if !d.Done() {
		t.Fatal("driver not done")
	}
	if d.Err() != nil {
		t.Fatalf("Err got %v, want nil", d.Err())
	}
}

func TestDriverSingleCall(t *testing.T) {
	var got string
	task := sansio.NewTask(func(c sansio.Conn[string, string]) kont.Eff[error] {
		return sansio.CallBind(c, "ping", func(s string) kont.Eff[error] {
			got = s
			return sansio.Done(nil)
		})
	})
	d := sansio.NewDriver(task)
	h, err := d.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	req, ok := h.Request()
	if !ok || req != "ping" {
		t.Fatalf("request got %q, %v, want %q, true", req, ok, "ping")
	}
	h, err = d.Handle(h, "pong")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if h.Pending() {
		t.Fatal("handle live after last response")
	}
	if got != "pong" {
		t.Fatalf("task got %q, want %q", got, "pong")
	}
}

func TestDriverOwnedPayload(t *testing.T) {
	d := sansio.NewDriver(ownedTask())
	h, err := d.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if req, _ := h.Request(); req != array10(1) {
		t.Fatalf("first request got %v, want [1;10]", req)
	}
	if h, err = d.Handle(h, array20(2)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if req, _ := h.Request(); req != array10(3) {
		t.Fatalf("second request got %v, want [3;10]", req)
	}
	if h, err = d.Handle(h, array20(4)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if h.Pending() {
		t.Fatal("handle live after last response")
	}
	if d.Err() != nil {
		t.Fatalf("task: %v", d.Err())
	}
}

func TestDriverBorrowedPayload(t *testing.T) {
	d := sansio.NewDriver(borrowTask())
	h, err := d.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if req, _ := h.Request(); !bytes.Equal(req, filled(1, 10)) {
		t.Fatalf("first request got %v, want [1;10]", req)
	}

	resp := filled(2, 20)
	if h, err = d.Handle(h, resp); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if req, _ := h.Request(); !bytes.Equal(req, filled(3, 10)) {
		t.Fatalf("second request got %v, want [3;10]", req)
	}

	copy(resp, filled(4, 20))
	if h, err = d.Handle(h, resp); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if req, _ := h.Request(); !bytes.Equal(req, filled(5, 10)) {
		t.Fatalf("third request got %v, want [5;10]", req)
	}

	resp = filled(6, 20)
	if h, err = d.Handle(h, resp); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if h.Pending() {
		t.Fatal("handle live after last response")
	}
	if d.Err() != nil {
		t.Fatalf("task: %v", d.Err())
	}
}

func TestDriverHandleReused(t *testing.T) {
	var sum int
	d := sansio.NewDriver(counter(3, &sum))
	h1, err := d.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	copied := h1
	h2, err := d.Handle(h1, 10)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if _, err := d.Handle(h1, 20); !errors.Is(err, sansio.ErrHandleReused) {
		t.Fatalf("reused handle got %v, want ErrHandleReused", err)
	}
	if _, err := d.Handle(copied, 20); !errors.Is(err, sansio.ErrHandleReused) {
		t.Fatalf("copy of consumed handle got %v, want ErrHandleReused", err)
	}
	if _, err := d.Request(h1); !errors.Is(err, sansio.ErrHandleReused) {
		t.Fatalf("Request on consumed handle got %v, want ErrHandleReused", err)
	}
	if h1.Pending() {
		t.Fatal("consumed handle reports pending")
	}

	// The live handle is unaffected by the rejected ones.
	if !h2.Pending() {
		t.Fatal("live handle not pending")
	}
	h3, err := d.Handle(h2, 20)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if _, err := d.Handle(h3, 30); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if sum != 60 {
		t.Fatalf("sum got %d, want 60", sum)
	}
}

func TestDriverHandleAfterFinish(t *testing.T) {
	var sum int
	d := sansio.NewDriver(counter(1, &sum))
	h, _ := d.Start()
	last, err := d.Handle(h, 1)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if _, err := d.Handle(last, 2); !errors.Is(err, sansio.ErrTaskFinished) {
		t.Fatalf("zero handle got %v, want ErrTaskFinished", err)
	}
	if _, err := d.Handle(h, 2); !errors.Is(err, sansio.ErrHandleReused) {
		t.Fatalf("consumed handle got %v, want ErrHandleReused", err)
	}
}

func TestDriverForeignHandle(t *testing.T) {
	var s1, s2 int
	d1 := sansio.NewDriver(counter(2, &s1))
	d2 := sansio.NewDriver(counter(2, &s2))
	h1, _ := d1.Start()
	if _, err := d2.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := d2.Handle(h1, 1); !errors.Is(err, sansio.ErrHandleReused) {
		t.Fatalf("foreign handle got %v, want ErrHandleReused", err)
	}
}

func TestDriverStartTwice(t *testing.T) {
	var sum int
	d := sansio.NewDriver(counter(1, &sum))
	if _, err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err := d.Start()
	if !errors.Is(err, sansio.ErrStarted) {
		t.Fatalf("second Start got %v, want ErrStarted", err)
	}
	var ce *sansio.ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not a ContractError", err)
	}
	if ce.Op != "start" || ce.Serial != d.Serial() {
		t.Fatalf("ContractError got op %q serial %d, want start %d", ce.Op, ce.Serial, d.Serial())
	}
}

func TestDriverTaskError(t *testing.T) {
	d := sansio.NewDriver(sansio.NewTask(func(c sansio.Conn[int, int]) kont.Eff[error] {
		return sansio.CallThen(c, 1, sansio.Done(errBoom))
	}))
	seen := drive(t, d, func(int) int { return 0 })
	if len(seen) != 1 {
		t.Fatalf("requests got %d, want 1", len(seen))
	}
	if !errors.Is(d.Err(), errBoom) {
		t.Fatalf("Err got %v, want %v", d.Err(), errBoom)
	}
}

func TestDriverUnhandledEffect(t *testing.T) {
	d := sansio.NewDriver(sansio.NewTask(func(c sansio.Conn[int, int]) kont.Eff[error] {
		return kont.Bind(kont.Perform(foreign{}), func(int) kont.Eff[error] {
			return sansio.Done(nil)
		})
	}))
	if _, err := d.Start(); !errors.Is(err, sansio.ErrUnhandledEffect) {
		t.Fatalf("Start got %v, want ErrUnhandledEffect", err)
	}
	if !d.Done() {
		t.Fatal("driver not torn down after violation")
	}
}

func TestDriverSpawnNotMultiplexed(t *testing.T) {
	d := sansio.NewDriver(sansio.NewTask(func(c sansio.Conn[int, int]) kont.Eff[error] {
		return sansio.SpawnBind(c, sansio.Task[int, int]{}, func(sansio.ID) kont.Eff[error] {
			return sansio.Done(nil)
		})
	}))
	if _, err := d.Start(); !errors.Is(err, sansio.ErrNotMultiplexed) {
		t.Fatalf("Start got %v, want ErrNotMultiplexed", err)
	}
}

func TestDriverClose(t *testing.T) {
	var sum int
	d := sansio.NewDriver(counter(5, &sum))
	h, _ := d.Start()
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !d.Done() {
		t.Fatal("driver not done after Close")
	}
	if h.Pending() {
		t.Fatal("handle live after Close")
	}
	if _, err := d.Handle(h, 1); err == nil {
		t.Fatal("Handle after Close succeeded")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestDriverZeroTask(t *testing.T) {
	var task sansio.Task[int, int]
	if !task.IsZero() {
		t.Fatal("zero task not IsZero")
	}
	d := sansio.NewDriver(task)
	h, err := d.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h.Pending() || !d.Done() {
		t.Fatal("zero task did not complete at once")
	}
}

func TestTaskReusable(t *testing.T) {
	var sum int
	task := counter(3, &sum)
	for i := range 3 {
		seen := drive(t, sansio.NewDriver(task), func(n int) int { return n * 2 })
		if len(seen) != 3 {
			t.Fatalf("run %d: requests got %d, want 3", i, len(seen))
		}
		if sum != 6 {
			t.Fatalf("run %d: sum got %d, want 6", i, sum)
		}
	}
}

func TestDriverNilResultAfterCall(t *testing.T) {
	tasks := map[string]sansio.Task[int, int]{
		"cont": sansio.NewTask(func(c sansio.Conn[int, int]) kont.Eff[error] {
			return sansio.CallBind(c, 1, func(int) kont.Eff[error] { return sansio.Done(nil) })
		}),
		"expr": sansio.NewTaskExpr(func(c sansio.Conn[int, int]) kont.Expr[error] {
			return sansio.ExprCallBind(c, 1, func(int) kont.Expr[error] { return kont.ExprReturn[error](nil) })
		}),
		"loop": counter(1, new(int)),
	}
	for name, task := range tasks {
		d := sansio.NewDriver(task)
		h, err := d.Start()
		if err != nil || !h.Pending() {
			t.Fatalf("%s: Start got %v, pending %v", name, err, h.Pending())
		}
		if h, err = d.Handle(h, 2); err != nil {
			t.Fatalf("%s: Handle: %v", name, err)
		}
		if h.Pending() || !d.Done() || d.Err() != nil {
			t.Fatalf("%s: got pending=%v done=%v err=%v, want completed", name, h.Pending(), d.Done(), d.Err())
		}
	}
}

func TestDriverResponseNotTaken(t *testing.T) {
	task := sansio.NewTask(func(c sansio.Conn[int, int]) kont.Eff[error] {
		return kont.Bind(kont.Perform(sansio.Call[int, int]{Request: 1}), func(*sansio.Slot[int, int]) kont.Eff[error] {
			return sansio.CallThen(c, 2, sansio.Done(nil))
		})
	})
	d := sansio.NewDriver(task)
	h, err := d.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = d.Handle(h, 10)
	var ce *sansio.ContractError
	if !errors.As(err, &ce) || !errors.Is(err, sansio.ErrResponseNotTaken) || ce.Op != "handle" {
		t.Fatalf("Handle got %v, want handle ContractError wrapping ErrResponseNotTaken", err)
	}
	if !d.Done() {
		t.Fatal("driver not torn down")
	}
}

func TestDriverTaskPanic(t *testing.T) {
	task := sansio.NewTaskExpr(func(c sansio.Conn[int, int]) kont.Expr[error] {
		return sansio.ExprCallBind(c, 1, func(n int) kont.Expr[error] {
			panic(errBoom)
		})
	})
	d := sansio.NewDriver(task)
	h, _ := d.Start()
	h, err := d.Handle(h, 1)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	var pe *sansio.PanicError
	if h.Pending() || !errors.As(d.Err(), &pe) || !errors.Is(d.Err(), errBoom) {
		t.Fatalf("Err got %v, want *PanicError wrapping %v", d.Err(), errBoom)
	}
}
