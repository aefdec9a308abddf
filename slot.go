// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

// SlotState is the tag of a [Slot].
type SlotState uint8

const (
	// SlotEmpty holds nothing.
	SlotEmpty SlotState = iota
	// SlotRequest holds a request emitted by the task.
	SlotRequest
	// SlotResponse holds a response delivered by the driver.
	SlotResponse
)

func (s SlotState) String() string {
	switch s {
	case SlotEmpty:
		return "empty"
	case SlotRequest:
		return "request"
	case SlotResponse:
		return "response"
	}
	return "invalid"
}

// Slot is the single-valued exchange cell between a task and its driver.
// It holds at most one item in flight: nothing, a request, or a response.
// A value may only be written while the slot is empty; taking a value
// clears it so the slot never keeps a payload past its window.
//
// The zero value is an empty slot ready for use.
type Slot[Req, Resp any] struct {
	state SlotState
	req   Req
	resp  Resp
	gen   uint64
}

// State returns the current tag.
func (s *Slot[Req, Resp]) State() SlotState {
	return s.state
}

// Generation returns the number of requests emitted so far.
// A response borrowed at generation g is valid while Generation() == g.
func (s *Slot[Req, Resp]) Generation() uint64 {
	return s.gen
}

// Emit writes a request. It opens a new generation, invalidating every
// [Ref] borrowed from earlier responses.
func (s *Slot[Req, Resp]) Emit(req Req) error {
	if err := s.writable(); err != nil {
		return err
	}
	s.gen++
	s.req = req
	s.state = SlotRequest
	return nil
}

// TakeRequest removes and returns the pending request.
func (s *Slot[Req, Resp]) TakeRequest() (Req, error) {
	var zero Req
	if s.state != SlotRequest {
		return zero, ErrNoPendingRequest
	}
	req := s.req
	s.req = zero
	s.state = SlotEmpty
	return req, nil
}

// Deliver writes a response.
func (s *Slot[Req, Resp]) Deliver(resp Resp) error {
	if err := s.writable(); err != nil {
		return err
	}
	s.resp = resp
	s.state = SlotResponse
	return nil
}

// TakeResponse removes and returns the pending response.
func (s *Slot[Req, Resp]) TakeResponse() (Resp, error) {
	var zero Resp
	if s.state != SlotResponse {
		return zero, ErrNoPendingResponse
	}
	resp := s.resp
	s.resp = zero
	s.state = SlotEmpty
	return resp, nil
}

// Borrow takes the pending response as a generation-tagged [Ref].
func (s *Slot[Req, Resp]) Borrow() (Ref[Resp], error) {
	resp, err := s.TakeResponse()
	if err != nil {
		return Ref[Resp]{}, err
	}
	return Ref[Resp]{val: resp, src: &s.gen, gen: s.gen}, nil
}

// reset drops any in-flight value. Used on teardown only.
func (s *Slot[Req, Resp]) reset() {
	var (
		zeroReq  Req
		zeroResp Resp
	)
	s.req = zeroReq
	s.resp = zeroResp
	s.state = SlotEmpty
	s.gen++
}

func (s *Slot[Req, Resp]) writable() error {
	switch s.state {
	case SlotRequest:
		return ErrRequestNotTaken
	case SlotResponse:
		return ErrResponseNotTaken
	}
	return nil
}

// Ref is a borrowed response, valid until the task's next call.
// Payloads that alias caller-owned buffers (slices, pointers) must be read
// through Load so that a read past the window is reported instead of
// observing a buffer the driver has already reused.
type Ref[T any] struct {
	val T
	src *uint64
	gen uint64
}

// Load returns the borrowed value, or ErrStaleReference once the task
// has called again.
func (r Ref[T]) Load() (T, error) {
	if !r.Valid() {
		var zero T
		return zero, ErrStaleReference
	}
	return r.val, nil
}

// Valid reports whether the reference is still inside its window.
func (r Ref[T]) Valid() bool {
	return r.src != nil && *r.src == r.gen
}
