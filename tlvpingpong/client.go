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

// NewClient returns the client stack as a task.
func NewClient(opts ...sansio.Option) sansio.Task[ClientRequest, ClientResponse] {
	s := sansio.NewStack[ClientRequest, ClientResponse](opts...)
	framing := sansio.Push(s, tlv.NewTask())
	messages := sansio.Push(s, pingpong.NewClient())

	framing.Route(func(req tlv.Request) sansio.Hop {
		switch r := req.(type) {
		case tlv.ReadPayload:
			return s.Emit(ReadPayload{})
		case tlv.WritePayload:
			return s.Emit(WritePayload{Payload: r.Payload})
		case tlv.Record:
			if r.Tag == TagMessage {
				return messages.Feed(pingpong.ReadMessage{Payload: r.Value})
			}
			return s.Emit(Error{Tag: r.Tag})
		}
		return s.Halt(fmt.Errorf("tlvpingpong: unknown tlv request %T", req))
	})

	messages.Route(func(req pingpong.ClientRequest) sansio.Hop {
		switch r := req.(type) {
		case pingpong.Ready:
			return framing.Feed(tlv.Payload{})
		case pingpong.WriteMessage:
			return framing.Feed(tlv.Write{Tag: TagMessage, Value: r.Payload})
		case pingpong.WriteSleep:
			return framing.Feed(tlv.Write{Tag: TagSleep, Value: r.Payload})
		case pingpong.Message:
			return s.Emit(Message{Text: r.Text})
		}
		return s.Halt(fmt.Errorf("tlvpingpong: unknown pingpong request %T", req))
	})

	s.OnResponse(func(resp ClientResponse) sansio.Hop {
		switch r := resp.(type) {
		case Payload:
			return framing.Feed(tlv.Payload{Bytes: r.Bytes})
		case Message:
			return messages.Feed(pingpong.Message{Text: r.Text})
		case Sleep:
			return messages.Feed(pingpong.Sleep{Duration: r.Duration})
		}
		return s.Halt(fmt.Errorf("%w: %T", ErrUnexpectedResponse, resp))
	})

	return s.Task()
}
