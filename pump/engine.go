// SPDX-License-Identifier: EPL-2.0

package pump

import "github.com/ausocean/utils/logging"

// Transport selects the bitstream framing an engine is opened with.
type Transport string

// Transports understood by the bundled engines.
const (
	TransportADTS Transport = "adts"
	TransportMP3  Transport = "mp3"
	TransportOgg  Transport = "ogg"
)

// DecodeFlags modify a single DecodeFrame call.
type DecodeFlags uint

const (
	// FlagNone requests a normal decode.
	FlagNone DecodeFlags = 0

	// FlagFlush tells the engine no more input will arrive, so it may decode
	// a tail it would otherwise hold back.
	FlagFlush DecodeFlags = 1
)

// BitsPerSample is the PCM sample width produced by every engine.
const BitsPerSample = 16

// bytesPerSample is BitsPerSample in bytes.
const bytesPerSample = BitsPerSample / 8

// StreamInfo describes the frame most recently produced by an engine.
type StreamInfo struct {
	SampleRate    int // Hz
	Channels      int
	FrameSize     int // samples per channel in the last decoded frame
	BitsPerSample int
	ObjectType    int // codec specific profile, 0 when unknown
}

// FrameBytes returns the byte size of the frame described by info.
func (info StreamInfo) FrameBytes() int {
	return info.Channels * info.FrameSize * bytesPerSample
}

// Engine is a stateful, single-owner decoder.
//
// Fill is handed the unconsumed part of the staging buffer and returns how
// many of those bytes it did not take. DecodeFrame writes one frame of
// interleaved little-endian PCM16 to the front of out; StreamInfo then
// describes that frame.
type Engine interface {
	Fill(window []byte) (residual int, err error)
	DecodeFrame(out []byte, flags DecodeFlags) error
	StreamInfo() StreamInfo
	Close() error
}

// Bufferer is implemented by engines that can report how many input bytes
// they hold but have not decoded. The pump uses it to tell a failed flush
// decode that consumed a bad frame from one that made no progress.
type Bufferer interface {
	Buffered() int
}

// EngineConfig is passed to an Opener.
type EngineConfig struct {
	Transport Transport
	Layers    int
	Logger    logging.Logger
}

// Opener creates an engine. It is called once per pump.
type Opener func(cfg EngineConfig) (Engine, error)
