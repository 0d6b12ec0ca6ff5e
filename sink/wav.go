// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"encoding/binary"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ik5/aacpump/pump"
)

const wavFormatPCM = 1

// Format written by a WAV sink that never received a frame.
const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
)

// WAV writes 16-bit PCM frames to a RIFF/WAVE file. The header is taken from
// the first frame; every later frame must have the same format.
type WAV struct {
	w      io.WriteSeeker
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	rate   int
	chans  int
	frames int
	closed bool
}

// NewWAV returns a sink encoding to w. Close finalizes the header and closes
// w when it is an io.Closer.
func NewWAV(w io.WriteSeeker) *WAV {
	return &WAV{w: w}
}

func (s *WAV) start(rate, chans int) {
	s.enc = wav.NewEncoder(s.w, rate, pump.BitsPerSample, chans, wavFormatPCM)
	s.buf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: chans, SampleRate: rate},
		SourceBitDepth: pump.BitsPerSample,
	}
	s.rate, s.chans = rate, chans
}

func (s *WAV) WriteSamples(f pump.Frame) error {
	switch {
	case s.closed:
		return ErrClosed
	case f.BitsPerSample != pump.BitsPerSample:
		return errors.Wrapf(ErrUnsupportedDepth, "%d bits", f.BitsPerSample)
	case f.Channels <= 0 || f.SampleRate <= 0:
		return errors.Wrapf(ErrBadFormat, "%d channels at %d Hz", f.Channels, f.SampleRate)
	}

	if s.enc == nil {
		s.start(f.SampleRate, f.Channels)
	} else if f.SampleRate != s.rate || f.Channels != s.chans {
		return errors.Wrapf(ErrFormatChanged, "frame %d is %d ch at %d Hz, file is %d ch at %d Hz",
			f.Index, f.Channels, f.SampleRate, s.chans, s.rate)
	}

	n := len(f.Data) / 2
	if cap(s.buf.Data) < n {
		s.buf.Data = make([]int, n)
	}
	s.buf.Data = s.buf.Data[:n]
	for i := range n {
		s.buf.Data[i] = int(int16(binary.LittleEndian.Uint16(f.Data[2*i:])))
	}

	if err := s.enc.Write(s.buf); err != nil {
		return errors.Wrap(err, "wav: write frame")
	}
	s.frames++
	return nil
}

// Frames returns the number of frames written.
func (s *WAV) Frames() int { return s.frames }

func (s *WAV) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.enc == nil {
		// Write a valid, empty file.
		s.start(DefaultSampleRate, DefaultChannels)
		s.buf.Data = s.buf.Data[:0]
		if werr := s.enc.Write(s.buf); werr != nil {
			err = multierr.Append(err, errors.Wrap(werr, "wav: write header"))
		}
	}
	if cerr := s.enc.Close(); cerr != nil {
		err = multierr.Append(err, errors.Wrap(cerr, "wav: finalize header"))
	}
	if c, ok := s.w.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil {
			err = multierr.Append(err, errors.Wrap(cerr, "wav: close output"))
		}
	}
	return err
}
