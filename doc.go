// SPDX-License-Identifier: EPL-2.0

// Package aacpump decodes compressed audio streams to 16-bit PCM.
//
// The work is done by package pump, which moves bytes from an io.Reader
// through a decoder engine into a sink in fixed-size chunks. This package
// wires the bundled engines and sinks together for the common cases.
//
// # Supported Formats
//
//   - AAC in ADTS framing via engine/fdkaac
//   - MP3 via engine/mp3
//   - Ogg Vorbis via engine/vorbis
//
// # Quick Start
//
//	in, _ := os.Open("song.aac")
//	out, _ := os.Create("song.wav")
//	stats, err := aacpump.DecodeToWAV(ctx, in, out, "")
//
// An empty format asks Decode to detect it from the first bytes of the
// stream. Decode owns both ends: the source (when it is an io.Closer) and
// the sink are closed on return, successful or not.
//
// # Pipelines
//
// Any pump.Sink can receive the PCM:
//
//	snk := sink.NewDownmix(sink.NewRaw(os.Stdout))
//	stats, err := aacpump.Decode(ctx, in, snk, "mp3", pump.WithCapacity(4096))
//
// Use DecodeWith and a custom engine.Registry to add or replace engines.
package aacpump
