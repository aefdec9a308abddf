// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pingpong is a message exchange protocol written as sans-I/O
// tasks.
//
// The client relays text between its driver and the peer: messages read
// from the peer are surfaced to the driver, messages from the driver are
// written to the peer, and sleep requests are encoded as one byte of
// milliseconds. The server answers every message with "Received: "
// followed by the message, and sleeps when asked to.
package pingpong

import (
	"errors"
	"time"
)

const (
	// ReceivedPrefix is prepended by the server to every echoed message.
	ReceivedPrefix = "Received: "
	// InvalidText replaces a message that is not valid UTF-8.
	InvalidText = "(wrong utf-8 encoding)"
	// MaxSleep is the longest sleep that can be encoded.
	MaxSleep = 255 * time.Millisecond
)

// ErrUnexpectedResponse is returned when a task is resumed with a
// response outside its vocabulary.
var ErrUnexpectedResponse = errors.New("pingpong: unexpected response")

// ClientRequest is a request of the client task: [Ready],
// [WriteMessage], [WriteSleep] or [Message].
type ClientRequest interface {
	clientRequest()
}

// ClientResponse is a response to the client task: [ReadMessage],
// [Message] or [Sleep].
type ClientResponse interface {
	clientResponse()
}

// ServerRequest is a request of the server task: [Read], [WriteMessage]
// or [Sleep].
type ServerRequest interface {
	serverRequest()
}

// ServerResponse is a response to the server task: [ReadMessage] or
// [ReadSleep].
type ServerResponse interface {
	serverResponse()
}

// Ready is the client's first request; it waits for the driver to say
// what to do.
type Ready struct{}

// Read asks the driver for the next message from the peer.
type Read struct{}

// WriteMessage asks the driver to send Payload to the peer as a message.
// Payload is owned by the task and valid until the task is resumed.
type WriteMessage struct {
	Payload []byte
}

// WriteSleep asks the driver to send Payload to the peer as a sleep
// request. Payload is one byte of milliseconds.
type WriteSleep struct {
	Payload []byte
}

// Message carries text: from the peer to the client's driver as a
// request, or from the driver to the client as a response to send.
type Message struct {
	Text string
}

// ReadMessage carries a message payload read from the peer.
type ReadMessage struct {
	Payload []byte
}

// ReadSleep carries a sleep payload read from the peer.
type ReadSleep struct {
	Payload []byte
}

// Sleep carries a duration: from the client's driver as a response, or
// from the server to its driver as a request to pause.
type Sleep struct {
	Duration time.Duration
}

func (Ready) clientRequest()        {}
func (WriteMessage) clientRequest() {}
func (WriteSleep) clientRequest()   {}
func (Message) clientRequest()      {}

func (ReadMessage) clientResponse() {}
func (Message) clientResponse()     {}
func (Sleep) clientResponse()       {}

func (Read) serverRequest()         {}
func (WriteMessage) serverRequest() {}
func (Sleep) serverRequest()        {}

func (ReadMessage) serverResponse() {}
func (ReadSleep) serverResponse()   {}

// EncodeSleep returns d in whole milliseconds clamped to one byte.
func EncodeSleep(d time.Duration) byte {
	ms := d.Milliseconds()
	switch {
	case ms < 0:
		return 0
	case ms > int64(MaxSleep/time.Millisecond):
		return byte(MaxSleep / time.Millisecond)
	}
	return byte(ms)
}

// DecodeSleep reverses EncodeSleep. The payload must be exactly one byte.
func DecodeSleep(payload []byte) (time.Duration, bool) {
	if len(payload) != 1 {
		return 0, false
	}
	return time.Duration(payload[0]) * time.Millisecond, true
}
