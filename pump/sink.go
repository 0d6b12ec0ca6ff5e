// SPDX-License-Identifier: EPL-2.0

package pump

// Frame is one decoded frame handed to a Sink. Data is only valid for the
// duration of the WriteSamples call.
type Frame struct {
	Data          []byte // little-endian PCM, len == Samples * BitsPerSample / 8
	Samples       int    // total interleaved samples (channels * frame size)
	BitsPerSample int
	Channels      int
	SampleRate    int
	Interleaved   bool
	Index         int // zero-based count of frames written before this one
}

// Sink receives decoded PCM. WriteSamples must append and return; it must not
// retain Data.
type Sink interface {
	WriteSamples(f Frame) error
	Close() error
}
