// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tlvpingpong

import (
	"fmt"

	"code.hybscloud.com/sansio"
	"code.hybscloud.com/sansio/pingpong"
	"code.hybscloud.com/sansio/tlv"
)

// NewServer returns the server stack as a task.
func NewServer(opts ...sansio.Option) sansio.Task[ServerRequest, ServerResponse] {
	return newServer(pingpong.NewServer(), opts)
}

// NewServerFunc is NewServer with the pingpong layer hosted on its own
// goroutine.
func NewServerFunc(opts ...sansio.Option) sansio.Task[ServerRequest, ServerResponse] {
	return newServer(pingpong.NewServerFunc(), opts)
}

func newServer(pp sansio.Task[pingpong.ServerRequest, pingpong.ServerResponse], opts []sansio.Option) sansio.Task[ServerRequest, ServerResponse] {
	s := sansio.NewStack[ServerRequest, ServerResponse](opts...)
	framing := sansio.Push(s, tlv.NewTask())
	messages := sansio.Push(s, pp)

	framing.Route(func(req tlv.Request) sansio.Hop {
		switch r := req.(type) {
		case tlv.ReadPayload:
			return s.Emit(ReadPayload{})
		case tlv.WritePayload:
			return s.Emit(WritePayload{Payload: r.Payload})
		case tlv.Record:
			switch r.Tag {
			case TagMessage:
				return messages.Feed(pingpong.ReadMessage{Payload: r.Value})
			case TagSleep:
				return messages.Feed(pingpong.ReadSleep{Payload: r.Value})
			}
			return s.Emit(Error{Tag: r.Tag})
		}
		return s.Halt(fmt.Errorf("tlvpingpong: unknown tlv request %T", req))
	})

	messages.Route(func(req pingpong.ServerRequest) sansio.Hop {
		switch r := req.(type) {
		case pingpong.Read:
			return framing.Feed(tlv.Payload{})
		case pingpong.WriteMessage:
			return framing.Feed(tlv.Write{Tag: TagMessage, Value: r.Payload})
		case pingpong.Sleep:
			return s.Emit(Sleep{Duration: r.Duration})
		}
		return s.Halt(fmt.Errorf("tlvpingpong: unknown pingpong request %T", req))
	})

	s.OnResponse(func(resp ServerResponse) sansio.Hop {
		if r, ok := resp.(Payload); ok {
			return framing.Feed(tlv.Payload{Bytes: r.Bytes})
		}
		return s.Halt(fmt.Errorf("%w: %T", ErrUnexpectedResponse, resp))
	})

	return s.Task()
}
