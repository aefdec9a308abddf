// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pingpong

import (
	"fmt"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/sansio"
)

type server struct {
	reply []byte
}

func (s *server) next(resp ServerResponse) (ServerRequest, error) {
	switch r := resp.(type) {
	case ReadMessage:
		s.reply = append(append(s.reply[:0], ReceivedPrefix...), r.Payload...)
		return WriteMessage{Payload: s.reply}, nil
	case ReadSleep:
		if d, ok := DecodeSleep(r.Payload); ok {
			return Sleep{Duration: d}, nil
		}
		return Read{}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnexpectedResponse, resp)
}

func (s *server) serve(c sansio.Conn[ServerRequest, ServerResponse], req ServerRequest) kont.Eff[error] {
	return sansio.CallBind(c, req, func(resp ServerResponse) kont.Eff[error] {
		next, err := s.next(resp)
		if err != nil {
			return sansio.Done(err)
		}
		return s.serve(c, next)
	})
}

// NewServer returns the server task. It starts with [Read] and runs
// until it is resumed with a response outside its vocabulary.
func NewServer() sansio.Task[ServerRequest, ServerResponse] {
	return sansio.NewTask(func(c sansio.Conn[ServerRequest, ServerResponse]) kont.Eff[error] {
		return new(server).serve(c, Read{})
	})
}

// NewServerFunc returns the server as ordinary blocking Go code hosted
// on its own goroutine. It behaves exactly like NewServer, and returns
// sansio.ErrCanceled when its driver is closed.
func NewServerFunc() sansio.Task[ServerRequest, ServerResponse] {
	return sansio.NewTaskFunc(func(c *sansio.Caller[ServerRequest, ServerResponse]) error {
		s := new(server)
		var req ServerRequest = Read{}
		for {
			resp, err := c.Call(req)
			if err != nil {
				return err
			}
			if req, err = s.next(resp); err != nil {
				return err
			}
		}
	})
}
