// SPDX-License-Identifier: EPL-2.0

// Package feed adapts push-style engine input to the pull-style readers of
// third-party decoders.
//
// Engines append staged bytes with Push and hand the Feed to a decoder as
// its io.Reader. Until Close is called a drained Feed returns ErrStarved
// rather than io.EOF, so a decoder is never told the stream ended early.
// Engines avoid starvation by only pulling once Buffered reaches their
// lookahead.
package feed

import (
	"errors"
	"io"
)

// ErrStarved is returned by Read when the feed is empty but not closed.
var ErrStarved = errors.New("feed: no buffered input")

// Feed is a bounded byte queue.
type Feed struct {
	buf    []byte
	limit  int
	closed bool
}

// New returns a Feed holding at most limit bytes.
func New(limit int) *Feed {
	return &Feed{buf: make([]byte, 0, limit), limit: limit}
}

// Push appends as much of p as fits and returns the number of bytes left
// over.
func (f *Feed) Push(p []byte) int {
	n := min(f.limit-len(f.buf), len(p))
	f.buf = append(f.buf, p[:n]...)
	return len(p) - n
}

func (f *Feed) Read(p []byte) (int, error) {
	if len(f.buf) == 0 {
		if f.closed {
			return 0, io.EOF
		}
		return 0, ErrStarved
	}
	n := copy(p, f.buf)
	f.Discard(n)
	return n, nil
}

// Peek returns the buffered bytes without consuming them.
func (f *Feed) Peek() []byte { return f.buf }

// Discard drops up to n buffered bytes and returns how many were dropped.
func (f *Feed) Discard(n int) int {
	n = min(n, len(f.buf))
	f.buf = f.buf[:copy(f.buf, f.buf[n:])]
	return n
}

// Close marks the end of input. Buffered bytes can still be read.
func (f *Feed) Close() { f.closed = true }

// Closed reports whether Close was called.
func (f *Feed) Closed() bool { return f.closed }

// Buffered returns the number of unread bytes.
func (f *Feed) Buffered() int { return len(f.buf) }

// Ready reports whether a decoder may pull: either lookahead bytes are
// buffered or no more input will arrive.
func (f *Feed) Ready(lookahead int) bool {
	return f.closed || len(f.buf) >= lookahead
}

// ID3v2 tag header layout.
const (
	id3HeaderSize = 10
	id3FooterSize = 10
)

// ID3Size returns the total size of the ID3v2 tag at the start of b, 0 when
// there is none, or -1 when more bytes are needed to tell.
func ID3Size(b []byte) int {
	if len(b) < 3 {
		if len(b) == 0 || string(b) != "ID3"[:len(b)] {
			return 0
		}
		return -1
	}
	if string(b[:3]) != "ID3" {
		return 0
	}
	if len(b) < id3HeaderSize {
		return -1
	}
	size := int(b[6]&0x7F)<<21 | int(b[7]&0x7F)<<14 | int(b[8]&0x7F)<<7 | int(b[9]&0x7F)
	size += id3HeaderSize
	if b[5]&0x10 != 0 {
		size += id3FooterSize
	}
	return size
}
