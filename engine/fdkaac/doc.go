// SPDX-License-Identifier: EPL-2.0

// Package fdkaac provides a pump engine for ADTS framed AAC backed by the
// Fraunhofer FDK AAC decoder.
//
// The engine keeps its own bitstream buffer. Fill copies as much of the
// staged window as fits and reports the rest as residual; DecodeFrame finds
// the next ADTS header, waits until the whole frame is buffered and hands
// exactly that frame to fdk-aac.
//
//	p, err := pump.New(src, sink.NewWAV(out), fdkaac.Open)
//
// Channel count comes from the ADTS header. The sample rate is the header's,
// doubled when the decoder produced 2048 samples per channel (HE-AAC with
// implicit SBR signalling).
package fdkaac
