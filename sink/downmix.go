// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ik5/aacpump/pump"
)

// Downmix averages interleaved channels to mono and forwards the result.
type Downmix struct {
	next pump.Sink
	tmp  []byte
}

func NewDownmix(next pump.Sink) *Downmix {
	return &Downmix{
		next: next,
		tmp:  make([]byte, 0, 4096),
	}
}

func (m *Downmix) WriteSamples(f pump.Frame) error {
	if f.Channels <= 1 {
		return m.next.WriteSamples(f)
	}
	if f.BitsPerSample != pump.BitsPerSample {
		return errors.Wrapf(ErrUnsupportedDepth, "%d bits", f.BitsPerSample)
	}

	channels := f.Channels
	frames := len(f.Data) / (2 * channels)
	if cap(m.tmp) < 2*frames {
		m.tmp = make([]byte, 2*frames)
	}
	m.tmp = m.tmp[:2*frames]

	switch channels {
	case 2: // Stereo
		for i := range frames {
			l := int32(int16(binary.LittleEndian.Uint16(f.Data[4*i:])))
			r := int32(int16(binary.LittleEndian.Uint16(f.Data[4*i+2:])))
			binary.LittleEndian.PutUint16(m.tmp[2*i:], uint16(int16((l+r)/2)))
		}
	default:
		for i := range frames {
			var sum int32
			base := i * channels * 2
			for c := range channels {
				sum += int32(int16(binary.LittleEndian.Uint16(f.Data[base+2*c:])))
			}
			binary.LittleEndian.PutUint16(m.tmp[2*i:], uint16(int16(sum/int32(channels))))
		}
	}

	mono := f
	mono.Data = m.tmp
	mono.Samples = frames
	mono.Channels = 1
	return m.next.WriteSamples(mono)
}

func (m *Downmix) Close() error {
	if err := m.next.Close(); err != nil {
		return errors.Wrap(err, "downmix")
	}
	return nil
}
