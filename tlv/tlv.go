// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tlv is a length-tag-value framing layer written as a sans-I/O
// task.
//
// On the wire a record is a two byte header {tag, length} followed by
// length bytes of value. The task asks for stream bytes with
// [ReadPayload], accumulates partial reads, and surfaces complete
// records one at a time as [Record] requests. Answering a request with
// [Write] frames a record and asks the driver to put it on the wire with
// [WritePayload].
//
// Client and server speak the same vocabulary and run the same task.
package tlv

import (
	"errors"
)

const (
	// HeaderLen is the size of a record header.
	HeaderLen = 2
	// MaxValue is the longest value a record can carry.
	MaxValue = 255
)

var (
	// ErrValueTooLong is returned when a value does not fit in one record.
	ErrValueTooLong = errors.New("tlv: value longer than 255 bytes")
	// ErrUnexpectedResponse is returned when the task is resumed with a
	// response outside its vocabulary.
	ErrUnexpectedResponse = errors.New("tlv: unexpected response")
)

// Request is a request of the framing task: [ReadPayload],
// [WritePayload] or [Record].
type Request interface {
	tlvRequest()
}

// ReadPayload asks for more stream bytes.
type ReadPayload struct{}

// WritePayload asks the driver to write Payload to the stream.
// Payload is owned by the task and valid until the task is resumed.
type WritePayload struct {
	Payload []byte
}

// Record surfaces one complete record read from the stream.
// Value is owned by the task and valid until the task is resumed.
type Record struct {
	Tag   byte
	Value []byte
}

func (ReadPayload) tlvRequest()  {}
func (WritePayload) tlvRequest() {}
func (Record) tlvRequest()       {}

// Response is a response to the framing task: [Payload] or [Write].
type Response interface {
	tlvResponse()
}

// Payload carries bytes read from the stream. An empty Payload is valid
// and lets the task surface records it has already buffered.
type Payload struct {
	Bytes []byte
}

// Write asks the task to frame a record for writing.
type Write struct {
	Tag   byte
	Value []byte
}

func (Payload) tlvResponse() {}
func (Write) tlvResponse()   {}
