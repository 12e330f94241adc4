// Package framing turns a byte stream into newline-delimited frames and
// exposes a non-blocking, poll-driven reader over it.
package framing

import (
	"bytes"
	"errors"
	"fmt"
)

// DefaultMaxFrame bounds a single frame when no explicit limit is set.
const DefaultMaxFrame = 1 << 20

var (
	ErrFrameTooLarge  = errors.New("frame exceeds size limit")
	ErrTruncatedFrame = errors.New("stream ended inside a frame")
)

// MalformedError reports a complete frame whose payload could not be decoded.
// It is fatal for the connection: the same bytes will never decode.
type MalformedError struct {
	Frame []byte
	Err   error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed frame (%d bytes): %v", len(e.Frame), e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Decoder accumulates bytes and splits them on '\n'. It performs no I/O.
type Decoder struct {
	buf []byte
	max int
}

func NewDecoder(max int) *Decoder {
	if max <= 0 {
		max = DefaultMaxFrame
	}
	return &Decoder{max: max}
}

// Feed appends raw bytes to the pending buffer.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next returns the next complete frame without its delimiter. ok is false
// when no delimiter has arrived yet. Empty lines are skipped.
func (d *Decoder) Next() (frame []byte, ok bool, err error) {
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			if len(d.buf) > d.max {
				return nil, false, fmt.Errorf("%w: %d bytes without delimiter", ErrFrameTooLarge, len(d.buf))
			}
			return nil, false, nil
		}
		if i > d.max {
			return nil, false, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, i)
		}
		line := bytes.TrimSuffix(d.buf[:i], []byte{'\r'})
		frame = append([]byte(nil), line...)
		d.buf = d.buf[i+1:]
		if len(d.buf) == 0 {
			d.buf = nil
		}
		if len(bytes.TrimSpace(frame)) == 0 {
			continue
		}
		return frame, true, nil
	}
}

// Buffered reports bytes received but not yet returned as a frame.
func (d *Decoder) Buffered() int { return len(d.buf) }
