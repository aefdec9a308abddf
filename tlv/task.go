// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tlv

import (
	"fmt"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/sansio"
)

// framer is the per-run state of the framing task.
type framer struct {
	dec Decoder
	out []byte
}

// next maps a response to the task's next request.
func (f *framer) next(resp Response) (Request, error) {
	switch r := resp.(type) {
	case Payload:
		if rec, ok := f.dec.Feed(r.Bytes); ok {
			return rec, nil
		}
		return ReadPayload{}, nil
	case Write:
		out, err := AppendRecord(f.out[:0], r.Tag, r.Value)
		if err != nil {
			return nil, err
		}
		f.out = out
		return WritePayload{Payload: out}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnexpectedResponse, resp)
}

// NewTask returns the framing task. It starts by asking for stream bytes
// and runs until a response fails to decode or encode.
func NewTask() sansio.Task[Request, Response] {
	return sansio.NewTaskExpr(func(c sansio.Conn[Request, Response]) kont.Expr[error] {
		f := new(framer)
		return sansio.ExprLoop[Request](ReadPayload{}, func(req Request) kont.Expr[kont.Either[Request, error]] {
			return sansio.ExprCallBind(c, req, func(resp Response) kont.Expr[kont.Either[Request, error]] {
				next, err := f.next(resp)
				if err != nil {
					return sansio.ExprFinish[Request](err)
				}
				return sansio.ExprContinue(next)
			})
		})
	})
}
