// SPDX-License-Identifier: EPL-2.0

package pump

import (
	"errors"
	"io"
)

// stagingBuffer holds compressed bytes read from the source.
//
// filled is the size of the last read and valid the number of those bytes
// the engine has not consumed. The unconsumed bytes are always the tail
// buf[filled-valid:filled]; they are never moved. A read only happens once
// valid reaches zero and always starts at index 0.
type stagingBuffer struct {
	buf    []byte
	filled int
	valid  int
}

func newStagingBuffer(buf []byte) *stagingBuffer {
	return &stagingBuffer{buf: buf}
}

// window returns the unconsumed bytes.
func (s *stagingBuffer) window() []byte {
	return s.buf[s.filled-s.valid : s.filled]
}

// consume records the residual count reported by the engine and returns how
// many bytes were taken.
func (s *stagingBuffer) consume(residual int) int {
	if residual < 0 {
		residual = 0
	}
	if residual > s.valid {
		residual = s.valid
	}
	taken := s.valid - residual
	s.valid = residual
	return taken
}

// refill reads up to cap(buf) bytes from r into the start of the buffer. It
// keeps reading until the buffer is full or r is exhausted, so a short count
// means end of stream. Short reads are not errors.
func (s *stagingBuffer) refill(r io.Reader) (n int, eof bool, err error) {
	if s.valid != 0 {
		panic("pump: refill with unconsumed bytes")
	}
	n, err = io.ReadFull(r, s.buf)
	s.filled = n
	s.valid = n
	switch {
	case err == nil:
		return n, false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, true, nil
	default:
		return n, true, err
	}
}

func (s *stagingBuffer) capacity() int { return len(s.buf) }
