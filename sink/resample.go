// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ik5/aacpump/pump"
	"github.com/ik5/aacpump/utils"
)

// Resample converts interleaved PCM to a fixed sample rate with cubic
// interpolation before forwarding it. Channel count is preserved. When
// downsampling, input passes through a one-pole low-pass filter first.
//
// Interpolation needs two frames of lookahead, so output lags input slightly;
// Close emits the held tail.
type Resample struct {
	next pump.Sink
	rate int

	// Current input format. srcRate is 0 until the first frame.
	srcRate  int
	channels int
	ratio    float64 // input frames per output frame

	// hist[1] and hist[2] bracket the output position; hist[0] and hist[3]
	// are the outer spline points.
	hist   [4][]float32
	have   int
	pos    float64
	filter []float32
	lowp   bool

	in     []float32
	out    []byte
	index  int
	closed bool
}

// Low-pass coefficient applied when downsampling.
const lowPassAlpha = 0.5

// NewResample returns a sink resampling to rate before writing to next.
func NewResample(next pump.Sink, rate int) *Resample {
	return &Resample{next: next, rate: rate}
}

func (r *Resample) WriteSamples(f pump.Frame) error {
	switch {
	case r.closed:
		return ErrClosed
	case r.rate <= 0:
		return errors.Wrapf(ErrBadFormat, "target rate %d", r.rate)
	case f.BitsPerSample != pump.BitsPerSample:
		return errors.Wrapf(ErrUnsupportedDepth, "%d bits", f.BitsPerSample)
	case f.Channels <= 0 || f.SampleRate <= 0:
		return errors.Wrapf(ErrBadFormat, "%d channels at %d Hz", f.Channels, f.SampleRate)
	}

	if f.SampleRate != r.srcRate || f.Channels != r.channels {
		if err := r.drain(); err != nil {
			return err
		}
		r.reset(f.SampleRate, f.Channels)
	}

	if r.srcRate == r.rate {
		f.Index = r.index
		r.index++
		return r.next.WriteSamples(f)
	}

	frames := len(f.Data) / (2 * r.channels)
	if cap(r.in) < r.channels {
		r.in = make([]float32, r.channels)
	}
	r.in = r.in[:r.channels]
	r.out = r.out[:0]
	for i := range frames {
		base := 2 * r.channels * i
		for c := range r.in {
			r.in[c] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(f.Data[base+2*c:])))
		}
		r.push(r.in)
	}
	return r.emit()
}

func (r *Resample) reset(rate, channels int) {
	r.srcRate, r.channels = rate, channels
	r.ratio = float64(rate) / float64(r.rate)
	r.lowp = r.ratio > 1
	for i := range r.hist {
		r.hist[i] = make([]float32, channels)
	}
	r.filter = make([]float32, channels)
	r.have = 0
	r.pos = 0
}

// push adds one input frame. The first frame is duplicated into hist[0] so
// output starts at the first input sample.
func (r *Resample) push(x []float32) {
	if r.lowp {
		if r.have == 0 {
			copy(r.filter, x)
		}
		for c := range x {
			r.filter[c] = lowPassAlpha*x[c] + (1-lowPassAlpha)*r.filter[c]
		}
		x = r.filter
	}

	switch r.have {
	case 0:
		copy(r.hist[0], x)
		copy(r.hist[1], x)
		r.have = 2
		return
	case 2:
		copy(r.hist[2], x)
		r.have = 3
		return
	case 3:
		copy(r.hist[3], x)
		r.have = 4
	default:
		r.shift()
		copy(r.hist[3], x)
		r.pos--
	}
	r.interpolate()
}

// shift drops hist[0], making room in hist[3].
func (r *Resample) shift() {
	first := r.hist[0]
	copy(r.hist[:], r.hist[1:])
	r.hist[3] = first
}

// interpolate appends output frames while the position lies between hist[1]
// and hist[2].
func (r *Resample) interpolate() {
	for r.pos < 1 {
		x := float32(r.pos)
		for c := range r.channels {
			v := utils.CubicInterpolate(r.hist[0][c], r.hist[1][c], r.hist[2][c], r.hist[3][c], x)
			r.out = binary.LittleEndian.AppendUint16(r.out, uint16(utils.Float32ToInt16(v)))
		}
		r.pos += r.ratio
	}
}

// tail interpolates the frames still held back by the lookahead, repeating
// the last input frame as the missing spline points.
func (r *Resample) tail() {
	switch r.have {
	case 0:
		return
	case 2:
		copy(r.hist[2], r.hist[1])
		fallthrough
	case 3:
		copy(r.hist[3], r.hist[2])
	default:
		r.shift()
		copy(r.hist[3], r.hist[2])
		r.pos--
	}
	r.interpolate()
	r.have = 0
}

func (r *Resample) emit() error {
	if len(r.out) == 0 {
		return nil
	}
	f := pump.Frame{
		Data:          r.out,
		Samples:       len(r.out) / 2,
		BitsPerSample: pump.BitsPerSample,
		Channels:      r.channels,
		SampleRate:    r.rate,
		Interleaved:   true,
		Index:         r.index,
	}
	r.index++
	r.out = r.out[:0]
	return r.next.WriteSamples(f)
}

// drain writes whatever the lookahead still holds.
func (r *Resample) drain() error {
	if r.srcRate == 0 || r.srcRate == r.rate {
		return nil
	}
	r.out = r.out[:0]
	r.tail()
	return r.emit()
}

// Close drains the held tail and closes the next sink.
func (r *Resample) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.drain()
	if cerr := r.next.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, "resample")
	}
	return nil
}
