// SPDX-License-Identifier: EPL-2.0

// Package sink provides pump.Sink implementations for decoded PCM.
//
//   - WAV encodes RIFF/WAVE with github.com/go-audio/wav. The file format
//     comes from the first frame; a frame with a different rate or channel
//     count fails with ErrFormatChanged.
//   - Raw writes headerless little-endian PCM16.
//   - Downmix averages channels to mono before forwarding to another sink.
//   - Resample converts to a fixed sample rate with cubic interpolation
//     before forwarding to another sink.
//
// Sinks own what they write to: Close finalizes the output and closes it
// when it is an io.Closer.
//
//	out, _ := os.Create("out.wav")
//	snk := sink.NewDownmix(sink.NewWAV(out))
//	p, err := pump.New(src, snk, fdkaac.Open)
//
// Buffer is an in-memory io.WriteSeeker for producing WAV output without a
// file.
package sink
