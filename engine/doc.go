// SPDX-License-Identifier: EPL-2.0

// Package engine keeps track of the decoder engines a pump can be opened
// with and guesses which one a stream needs.
//
// # Registry
//
// A Registry maps a format name to the engine's opener and the transport it
// is opened with:
//
//	reg := engine.NewRegistry()
//	reg.Register(engine.FormatAAC, pump.TransportADTS, fdkaac.Open)
//	codec, err := reg.Lookup("aac")
//	p, err := pump.New(src, snk, codec.Open, pump.WithTransport(codec.Transport))
//
// # Format Detection
//
// FormatFromPath looks at the file extension; Sniff looks at the first
// SniffSize bytes of the stream. Sniff recognises Ogg pages, ID3 tags, ADTS
// headers and MPEG audio frame headers.
package engine
