// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides a pump engine for Ogg Vorbis streams using
// github.com/jfreymuth/oggvorbis.
//
// Like the mp3 engine it queues filled bytes and only pulls the decoder once
// Config.Lookahead bytes are queued or the pump flushes. The default
// lookahead covers the three Vorbis header packets, whose setup header can
// run to tens of kilobytes.
//
// Each DecodeFrame call emits FrameSamples samples per channel, converted
// from float to 16-bit PCM.
package vorbis
