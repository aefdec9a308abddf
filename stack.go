// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"fmt"

	"code.hybscloud.com/kont"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type hopKind uint8

const (
	hopFeed hopKind = iota + 1
	hopEmit
	hopHalt
)

// Hop is the result of translating one value at a layer boundary: feed a
// response to a layer, emit a request at the outer boundary, or halt the
// whole stack. Hops are built with [Layer.Feed], [Stack.Emit] and
// [Stack.Halt], which keep the carried value typed.
//
// A hop is only valid in the stack that built it; any other hop fails the
// stack with ErrInvalidHop.
type Hop struct {
	kind  hopKind
	owner Serial
	layer int
	value any
	err   error
}

// Stack composes independently written protocol tasks into one task.
// Layers are pushed outer to inner; each runs under its own [Driver].
// Translation functions map every request of a layer to a Hop, and every
// response arriving at the outer boundary to a Hop. Nothing in the chain
// performs I/O: the only requests that leave the stack are the ones
// translated with Emit.
//
// Any layer completing tears the whole stack down.
type Stack[Req, Resp any] struct {
	layers  []layerEntry
	respond func(Resp) Hop
	logger  *zap.Logger
	serial  Serial
}

// NewStack creates an empty stack speaking Req/Resp at its outer boundary.
// The logger option is shared with the layer drivers; exit hooks belong to
// whatever hosts the stack's task.
func NewStack[Req, Resp any](opts ...Option) *Stack[Req, Resp] {
	o := newOptions(opts)
	return &Stack[Req, Resp]{logger: o.logger, serial: nextSerial()}
}

// OnResponse sets the translation of outer responses.
func (s *Stack[Req, Resp]) OnResponse(f func(Resp) Hop) {
	s.respond = f
}

// Emit is the hop that leaves the stack with req.
func (s *Stack[Req, Resp]) Emit(req Req) Hop {
	return Hop{kind: hopEmit, owner: s.serial, value: req}
}

// Halt is the hop that tears the stack down; err becomes the task result.
func (s *Stack[Req, Resp]) Halt(err error) Hop {
	return Hop{kind: hopHalt, owner: s.serial, err: err}
}

// Task returns the composed task. Every start opens fresh drivers for all
// layers, so the task may be started any number of times.
func (s *Stack[Req, Resp]) Task() Task[Req, Resp] {
	return newMachineTask(func() coroutine[Req, Resp] {
		return &stackRun[Req, Resp]{stack: s}
	})
}

// Layer is a typed reference to one layer of a [Stack].
type Layer[Req, Resp any] struct {
	owner Serial
	index int
	task  Task[Req, Resp]
	route func(Req) Hop
}

// Push appends a layer running task below the layers pushed before it.
func Push[LReq, LResp, Req, Resp any](s *Stack[Req, Resp], task Task[LReq, LResp]) *Layer[LReq, LResp] {
	l := &Layer[LReq, LResp]{owner: s.serial, index: len(s.layers), task: task}
	s.layers = append(s.layers, l)
	return l
}

// Route sets the translation of the layer's requests.
func (l *Layer[Req, Resp]) Route(f func(Req) Hop) {
	l.route = f
}

// Feed is the hop that delivers resp to this layer.
func (l *Layer[Req, Resp]) Feed(resp Resp) Hop {
	return Hop{kind: hopFeed, owner: l.owner, layer: l.index, value: resp}
}

// layerEntry erases the vocabulary of a Layer so the stack can hold
// layers of different vocabularies in one slice.
type layerEntry interface {
	open(logger *zap.Logger) stage
}

// stage is one running layer. start and feed report whether the layer
// is done; route translates the request it is suspended on.
type stage interface {
	start() (bool, error)
	accepts(v any) bool
	feed(v any) (bool, error)
	route() Hop
	close() error
}

func (l *Layer[Req, Resp]) open(logger *zap.Logger) stage {
	return &layerRun[Req, Resp]{layer: l, d: NewDriver(l.task, WithLogger(logger))}
}

type layerRun[Req, Resp any] struct {
	layer *Layer[Req, Resp]
	d     *Driver[Req, Resp]
	h     Handle[Req, Resp]
}

func (r *layerRun[Req, Resp]) start() (bool, error) {
	h, err := r.d.Start()
	return r.next(h, err)
}

func (r *layerRun[Req, Resp]) accepts(v any) bool {
	_, ok := v.(Resp)
	return ok || v == nil
}

func (r *layerRun[Req, Resp]) feed(v any) (bool, error) {
	resp, _ := v.(Resp)
	h, err := r.d.Handle(r.h, resp)
	return r.next(h, err)
}

func (r *layerRun[Req, Resp]) next(h Handle[Req, Resp], err error) (bool, error) {
	if err != nil {
		return true, err
	}
	r.h = h
	if !h.Pending() {
		return true, r.d.Err()
	}
	return false, nil
}

func (r *layerRun[Req, Resp]) route() Hop {
	if r.layer.route == nil {
		return Hop{kind: hopHalt, owner: r.layer.owner, err: fmt.Errorf("sansio: layer %d has no route", r.layer.index)}
	}
	req, _ := r.h.Request()
	return r.layer.route(req)
}

func (r *layerRun[Req, Resp]) close() error {
	return r.d.Close()
}

// stackRun is the coroutine of a running stack: an explicit state machine
// that pumps hops between layers until one leaves the stack.
type stackRun[Req, Resp any] struct {
	stack  *Stack[Req, Resp]
	slot   *Slot[Req, Resp]
	stages []stage
}

// start opens every layer, outer first. The initial request of the
// outermost layer is routed; inner layers stay parked at their initial
// request until a hop feeds them.
func (r *stackRun[Req, Resp]) start(s *Slot[Req, Resp]) step[Req, Resp] {
	r.slot = s
	r.stages = make([]stage, 0, len(r.stack.layers))
	for _, l := range r.stack.layers {
		st := l.open(r.stack.logger)
		r.stages = append(r.stages, st)
		if done, err := st.start(); done {
			return r.finish(err)
		}
	}
	if len(r.stages) == 0 {
		return r.finish(nil)
	}
	return r.pump(r.stages[0].route())
}

func (r *stackRun[Req, Resp]) resume(in kont.Resumed) step[Req, Resp] {
	resp, err := r.slot.TakeResponse()
	if err != nil {
		return step[Req, Resp]{kind: stepFault, err: err}
	}
	if r.stack.respond == nil {
		return r.finish(fmt.Errorf("sansio: stack has no response route"))
	}
	return r.pump(r.stack.respond(resp))
}

// pump alternates "drive layer k" and "translate" until a hop leaves the
// stack or a layer completes.
func (r *stackRun[Req, Resp]) pump(hop Hop) step[Req, Resp] {
	for {
		if hop.kind != 0 && hop.owner != r.stack.serial {
			return r.fault(fmt.Errorf("%w: built by another stack", ErrInvalidHop))
		}
		switch hop.kind {
		case hopEmit:
			req, ok := hop.value.(Req)
			if !ok {
				return r.fault(fmt.Errorf("%w: emit of %T", ErrInvalidHop, hop.value))
			}
			if err := r.slot.Emit(req); err != nil {
				return step[Req, Resp]{kind: stepFault, err: err}
			}
			return step[Req, Resp]{kind: stepCall}
		case hopFeed:
			if hop.layer < 0 || hop.layer >= len(r.stages) {
				return r.fault(fmt.Errorf("%w: layer %d not running", ErrInvalidHop, hop.layer))
			}
			st := r.stages[hop.layer]
			if !st.accepts(hop.value) {
				return r.fault(fmt.Errorf("%w: feed of %T to layer %d", ErrInvalidHop, hop.value, hop.layer))
			}
			if done, err := st.feed(hop.value); done {
				r.stack.logger.Debug("sansio: layer completed",
					zap.Int("layer", hop.layer),
					zap.Error(err))
				return r.finish(err)
			}
			hop = st.route()
		case hopHalt:
			return r.finish(hop.err)
		default:
			return r.fault(fmt.Errorf("%w: zero hop", ErrInvalidHop))
		}
	}
}

// fault reports a contract violation; the host tears the stack down
// through discard.
func (r *stackRun[Req, Resp]) fault(err error) step[Req, Resp] {
	return step[Req, Resp]{kind: stepFault, err: err}
}

// finish closes every layer; the stack completes with err combined with
// any close errors.
func (r *stackRun[Req, Resp]) finish(err error) step[Req, Resp] {
	for _, st := range r.stages {
		err = multierr.Append(err, st.close())
	}
	r.stages = nil
	return step[Req, Resp]{kind: stepDone, err: err}
}

func (r *stackRun[Req, Resp]) discard() {
	for _, st := range r.stages {
		st.close()
	}
	r.stages = nil
}
