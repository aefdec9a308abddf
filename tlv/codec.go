// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tlv

// Decoder accumulates stream bytes and cuts complete records out of them.
// The zero value is ready for use.
type Decoder struct {
	buf []byte
	off int
}

// Feed appends p to the buffered stream and returns the next complete
// record, if any. At most one record is returned per call; the rest stay
// buffered for later calls.
//
// The returned Value aliases the decoder's buffer and is valid until the
// next Feed.
func (d *Decoder) Feed(p []byte) (Record, bool) {
	if d.off > 0 {
		n := copy(d.buf, d.buf[d.off:])
		d.buf = d.buf[:n]
		d.off = 0
	}
	d.buf = append(d.buf, p...)

	rest := d.buf[d.off:]
	if len(rest) < HeaderLen {
		return Record{}, false
	}
	end := HeaderLen + int(rest[1])
	if len(rest) < end {
		return Record{}, false
	}
	d.off += end
	return Record{Tag: rest[0], Value: rest[HeaderLen:end:end]}, true
}

// Buffered returns the number of bytes held but not yet surfaced.
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.off
}

// Reset drops all buffered bytes.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.off = 0
}

// AppendRecord appends the encoding of a record to dst.
func AppendRecord(dst []byte, tag byte, value []byte) ([]byte, error) {
	if len(value) > MaxValue {
		return dst, ErrValueTooLong
	}
	dst = append(dst, tag, byte(len(value)))
	return append(dst, value...), nil
}
