// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tlvpingpong runs the pingpong protocol over tlv framing.
//
// Both sides are a [sansio.Stack] of two layers: the tlv framing task
// next to the wire and the pingpong task above it. Records tagged
// [TagMessage] carry messages and records tagged [TagSleep] carry sleep
// requests. A record with any other tag is surfaced as an [Error]
// request; the driver decides whether to stop.
//
// The server echoes a message with [pingpong.ReceivedPrefix] in front of
// it, so the echo of a message longer than [MaxMessage] does not fit in
// one record. Such a message stops the server stack with
// [tlv.ErrValueTooLong].
package tlvpingpong

import (
	"errors"
	"time"

	"code.hybscloud.com/sansio/pingpong"
	"code.hybscloud.com/sansio/tlv"
)

// Record tags.
const (
	TagMessage byte = 0
	TagSleep   byte = 1
)

// MaxMessage is the longest message the server can echo.
const MaxMessage = tlv.MaxValue - len(pingpong.ReceivedPrefix)

// ErrUnexpectedResponse is returned when a stack is resumed with a
// response outside its vocabulary.
var ErrUnexpectedResponse = errors.New("tlvpingpong: unexpected response")

// ClientRequest is a request of the client stack: [ReadPayload],
// [WritePayload], [Message] or [Error].
type ClientRequest interface {
	clientRequest()
}

// ClientResponse is a response to the client stack: [Payload], [Message]
// or [Sleep].
type ClientResponse interface {
	clientResponse()
}

// ServerRequest is a request of the server stack: [ReadPayload],
// [WritePayload], [Sleep] or [Error].
type ServerRequest interface {
	serverRequest()
}

// ServerResponse is a response to the server stack: [Payload].
type ServerResponse interface {
	serverResponse()
}

// ReadPayload asks the driver for stream bytes.
type ReadPayload struct{}

// WritePayload asks the driver to write Payload to the stream.
// Payload is owned by the stack and valid until the stack is resumed.
type WritePayload struct {
	Payload []byte
}

// Payload carries stream bytes, possibly none.
type Payload struct {
	Bytes []byte
}

// Message carries text: a message from the peer as a client request, or
// a message to send as a client response.
type Message struct {
	Text string
}

// Sleep carries a duration: a sleep to ask of the peer as a client
// response, or a pause the peer asked for as a server request.
type Sleep struct {
	Duration time.Duration
}

// Error reports a record with an unknown tag.
type Error struct {
	Tag byte
}

func (ReadPayload) clientRequest()  {}
func (WritePayload) clientRequest() {}
func (Message) clientRequest()      {}
func (Error) clientRequest()        {}

func (Payload) clientResponse() {}
func (Message) clientResponse() {}
func (Sleep) clientResponse()   {}

func (ReadPayload) serverRequest()  {}
func (WritePayload) serverRequest() {}
func (Sleep) serverRequest()        {}
func (Error) serverRequest()        {}

func (Payload) serverResponse() {}
