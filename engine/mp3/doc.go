// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides a pump engine for MPEG audio Layer III streams using
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 pulls its input, so the engine queues filled bytes and only asks
// the decoder for a frame once Config.Lookahead bytes are queued, or once the
// pump flushes at end of stream. A leading ID3v2 tag is skipped before the
// decoder is created.
//
// Output is always 16-bit interleaved stereo, FrameSamples samples per
// channel per DecodeFrame call except for the last one.
//
//	p, err := pump.New(src, snk, mp3.Open, pump.WithTransport(pump.TransportMP3))
package mp3
