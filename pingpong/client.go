// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pingpong

import (
	"fmt"
	"unicode/utf8"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/sansio"
)

type client struct {
	msg   []byte
	sleep [1]byte
}

func (cl *client) next(resp ClientResponse) (ClientRequest, error) {
	switch r := resp.(type) {
	case ReadMessage:
		if !utf8.Valid(r.Payload) {
			return Message{Text: InvalidText}, nil
		}
		return Message{Text: string(r.Payload)}, nil
	case Message:
		cl.msg = append(cl.msg[:0], r.Text...)
		return WriteMessage{Payload: cl.msg}, nil
	case Sleep:
		cl.sleep[0] = EncodeSleep(r.Duration)
		return WriteSleep{Payload: cl.sleep[:]}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnexpectedResponse, resp)
}

// NewClient returns the client task. It starts with [Ready] and runs
// until it is resumed with a response outside its vocabulary.
func NewClient() sansio.Task[ClientRequest, ClientResponse] {
	return sansio.NewTask(func(c sansio.Conn[ClientRequest, ClientResponse]) kont.Eff[error] {
		cl := new(client)
		return sansio.Loop[ClientRequest](Ready{}, func(req ClientRequest) kont.Eff[kont.Either[ClientRequest, error]] {
			return sansio.CallBind(c, req, func(resp ClientResponse) kont.Eff[kont.Either[ClientRequest, error]] {
				next, err := cl.next(resp)
				if err != nil {
					return sansio.Finish[ClientRequest](err)
				}
				return sansio.Continue(next)
			})
		})
	})
}
