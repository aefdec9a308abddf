// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pingpong_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/sansio"
	"code.hybscloud.com/sansio/pingpong"
	"go.uber.org/goleak"
)

func testServer(t *testing.T, task sansio.Task[pingpong.ServerRequest, pingpong.ServerResponse]) {
	d := sansio.NewDriver(task)
	defer d.Close()
	h, err := d.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if req, _ := h.Request(); req != (pingpong.Read{}) {
		t.Fatalf("first request got %#v, want Read", req)
	}

	steps := []struct {
		resp  pingpong.ServerResponse
		check func(pingpong.ServerRequest) bool
	}{
		{pingpong.ReadMessage{Payload: []byte("hi")}, func(r pingpong.ServerRequest) bool {
			w, ok := r.(pingpong.WriteMessage)
			return ok && string(w.Payload) == "Received: hi"
		}},
		{pingpong.ReadMessage{Payload: nil}, func(r pingpong.ServerRequest) bool {
			w, ok := r.(pingpong.WriteMessage)
			return ok && string(w.Payload) == pingpong.ReceivedPrefix
		}},
		{pingpong.ReadSleep{Payload: []byte{30}}, func(r pingpong.ServerRequest) bool {
			return r == pingpong.Sleep{Duration: 30 * time.Millisecond}
		}},
		{pingpong.ReadSleep{Payload: nil}, func(r pingpong.ServerRequest) bool {
			return r == pingpong.Read{}
		}},
		{pingpong.ReadSleep{Payload: []byte{1, 2}}, func(r pingpong.ServerRequest) bool {
			return r == pingpong.Read{}
		}},
	}
	for i, s := range steps {
		if h, err = d.Handle(h, s.resp); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		req, ok := h.Request()
		if !ok || !s.check(req) {
			t.Fatalf("step %d got %#v", i, req)
		}
	}

	if h, err = d.Handle(h, nil); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if h.Pending() || !errors.Is(d.Err(), pingpong.ErrUnexpectedResponse) {
		t.Fatalf("got pending=%v err=%v, want ErrUnexpectedResponse", h.Pending(), d.Err())
	}
}

func TestServer(t *testing.T) {
	testServer(t, pingpong.NewServer())
}

func TestServerFunc(t *testing.T) {
	skipRace(t)
	defer goleak.VerifyNone(t)
	testServer(t, pingpong.NewServerFunc())
}

func TestServerFuncClose(t *testing.T) {
	skipRace(t)
	defer goleak.VerifyNone(t)

	d := sansio.NewDriver(pingpong.NewServerFunc())
	if _, err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !d.Done() {
		t.Fatalf("driver not done after close")
	}
}
