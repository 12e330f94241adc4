package framing

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Status is the tagged result of a TryRead call.
type Status uint8

const (
	// Pending means no complete frame is available yet.
	Pending Status = iota
	// Ready means a message was returned.
	Ready
	// Closed means the peer went away or the stream was closed locally.
	Closed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return "pending"
	}
}

// Codec converts between messages and single-line payloads.
type Codec[M any] interface {
	Encode(M) ([]byte, error)
	Decode([]byte) (M, error)
}

type Options struct {
	MaxFrame     int
	WriteTimeout time.Duration
}

type chunk struct {
	data []byte
	err  error
}

type deadliner interface {
	SetWriteDeadline(time.Time) error
}

const readChunk = 4096

// Stream owns a connection. A background pump copies bytes into a channel so
// that TryRead never blocks the caller.
type Stream[M any] struct {
	conn  io.ReadWriteCloser
	codec Codec[M]
	dec   *Decoder
	opts  Options

	chunks chan chunk
	done   chan struct{}
	once   sync.Once

	eof   bool
	cause error
	dead  bool
}

func NewStream[M any](conn io.ReadWriteCloser, codec Codec[M], opts Options) *Stream[M] {
	s := &Stream[M]{
		conn:   conn,
		codec:  codec,
		dec:    NewDecoder(opts.MaxFrame),
		opts:   opts,
		chunks: make(chan chunk, 16),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *Stream[M]) pump() {
	for {
		buf := make([]byte, readChunk)
		n, err := s.conn.Read(buf)
		if n > 0 {
			select {
			case s.chunks <- chunk{data: buf[:n]}:
			case <-s.done:
				return
			}
		}
		if err != nil {
			select {
			case s.chunks <- chunk{err: err}:
			case <-s.done:
			}
			return
		}
	}
}

// TryRead returns at most one message and never blocks. Frames that arrived
// before end-of-stream are delivered before Closed is reported. A non-nil
// error is fatal and the stream should be closed.
func (s *Stream[M]) TryRead() (M, Status, error) {
	var zero M
	if s.dead {
		return zero, Closed, nil
	}
	for attempt := 0; attempt < 2; attempt++ {
		m, ok, err := s.nextMessage()
		if err != nil {
			return zero, Closed, err
		}
		if ok {
			return m, Ready, nil
		}
		if attempt == 0 {
			s.drain()
		}
	}
	if s.eof {
		s.dead = true
		if s.dec.Buffered() > 0 && errors.Is(s.cause, io.EOF) {
			return zero, Closed, fmt.Errorf("%w: %d bytes pending", ErrTruncatedFrame, s.dec.Buffered())
		}
		return zero, Closed, nil
	}
	return zero, Pending, nil
}

func (s *Stream[M]) nextMessage() (M, bool, error) {
	var zero M
	frame, ok, err := s.dec.Next()
	if err != nil {
		s.dead = true
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	m, err := s.codec.Decode(frame)
	if err != nil {
		s.dead = true
		return zero, false, &MalformedError{Frame: frame, Err: err}
	}
	return m, true, nil
}

func (s *Stream[M]) drain() {
	for !s.eof {
		select {
		case c := <-s.chunks:
			if c.err != nil {
				s.eof = true
				s.cause = c.err
				return
			}
			s.dec.Feed(c.data)
			if bytes.IndexByte(c.data, '\n') >= 0 {
				return
			}
		case <-s.done:
			s.eof = true
			s.cause = errLocalClose
			return
		default:
			return
		}
	}
}

var errLocalClose = errors.New("stream closed locally")

// Write encodes m, appends the delimiter and writes it in one call.
func (s *Stream[M]) Write(m M) error {
	payload, err := s.codec.Encode(m)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if bytes.IndexByte(payload, '\n') >= 0 {
		return fmt.Errorf("encode: payload contains delimiter")
	}
	if s.opts.WriteTimeout > 0 {
		if d, ok := s.conn.(deadliner); ok {
			if err := d.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
				return fmt.Errorf("set write deadline: %w", err)
			}
		}
	}
	if _, err := s.conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Err returns what ended the stream, if anything.
func (s *Stream[M]) Err() error { return s.cause }

func (s *Stream[M]) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
