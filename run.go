// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"go.uber.org/multierr"
)

// Run starts m and answers its requests with respond on the calling
// goroutine until every task has completed. Requests are answered in the
// order they were produced, so the tasks interleave round-robin.
// Does not spawn goroutines or create channels.
//
// A responder error closes the mux and is returned. Contract violations
// of individual tasks do not stop the others; they are returned together
// once the mux drains.
func Run[Req, Resp any](m *Mux[Req, Resp], respond Responder[Req, Resp]) error {
	queue, errs := m.Start()
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		resp, err := respond(p.Request)
		if err != nil {
			return multierr.Combine(errs, err, m.Close())
		}
		next, err := m.Handle(p.ID, resp)
		errs = multierr.Append(errs, err)
		queue = append(queue, next...)
	}
	return errs
}

// RunTasks is Run over a fresh mux hosting tasks.
func RunTasks[Req, Resp any](respond Responder[Req, Resp], tasks []Task[Req, Resp], opts ...Option) error {
	m := NewMux[Req, Resp](opts...)
	for _, task := range tasks {
		if err := m.Add(task); err != nil {
			return err
		}
	}
	return Run(m, respond)
}
