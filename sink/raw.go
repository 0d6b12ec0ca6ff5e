// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"io"

	"github.com/pkg/errors"

	"github.com/ik5/aacpump/pump"
)

// Raw writes headerless little-endian PCM16 to an io.Writer.
type Raw struct {
	w       io.Writer
	written int64
	closed  bool
}

func NewRaw(w io.Writer) *Raw {
	return &Raw{w: w}
}

func (s *Raw) WriteSamples(f pump.Frame) error {
	if s.closed {
		return ErrClosed
	}
	if f.BitsPerSample != pump.BitsPerSample {
		return errors.Wrapf(ErrUnsupportedDepth, "%d bits", f.BitsPerSample)
	}

	n, err := s.w.Write(f.Data)
	s.written += int64(n)
	if err != nil {
		return errors.Wrapf(err, "raw: write frame %d", f.Index)
	}
	if n < len(f.Data) {
		return errors.Wrapf(io.ErrShortWrite, "raw: write frame %d", f.Index)
	}
	return nil
}

// Written returns the number of PCM bytes written.
func (s *Raw) Written() int64 { return s.written }

// Close closes the writer when it is an io.Closer.
func (s *Raw) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return errors.Wrap(err, "raw")
		}
	}
	return nil
}
