// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"io"
)

// Buffer is an in-memory io.WriteSeeker, so WAV output can be produced
// without a file.
type Buffer struct {
	buf []byte
	pos int
}

// Bytes returns everything written so far.
func (b *Buffer) Bytes() []byte { return b.buf }

// Write writes p at the current offset, growing the buffer as needed.
func (b *Buffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > cap(b.buf) {
		grown := make([]byte, len(b.buf), end+len(p))
		copy(grown, b.buf)
		b.buf = grown
	}
	if end > len(b.buf) {
		b.buf = b.buf[:end]
	}
	copy(b.buf[b.pos:], p)
	b.pos = end
	return len(p), nil
}

// Seek sets the offset for the next Write.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	pos := int(offset)
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		pos += b.pos
	case io.SeekEnd:
		pos += len(b.buf)
	default:
		return 0, ErrBadWhence
	}
	if pos < 0 {
		return 0, ErrNegativeSeek
	}
	b.pos = pos
	return int64(pos), nil
}
