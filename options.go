// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import (
	"go.uber.org/zap"
)

// Option configures a [Driver], [Mux] or [Stack].
type Option func(*options)

type options struct {
	logger *zap.Logger
	onExit func(ID, error)
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger routes engine events to l. Steps are logged at debug level,
// contract violations at warn level. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithExitHook registers f to observe task completion. f receives the
// task id (zero under a single-task Driver) and the task's own result.
// Canceled tasks are not reported.
func WithExitHook(f func(ID, error)) Option {
	return func(o *options) {
		o.onExit = f
	}
}

func (o *options) exited(id ID, err error) {
	if o.onExit != nil {
		o.onExit(id, err)
	}
}
