// SPDX-License-Identifier: EPL-2.0

// Package enginetest provides fakes for exercising the pump without a real
// codec: an ADTS-framed fake engine, byte sources that misbehave in
// controlled ways, a recording sink and an allocation-tracking allocator.
package enginetest

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ik5/aacpump/internal/adts"
	"github.com/ik5/aacpump/pump"
)

// CorruptMarker as the first payload byte makes the fake engine reject a
// frame after consuming it.
const CorruptMarker = 0xEE

// Defaults for Engine.
const (
	DefaultEngineCapacity = 16384
	DefaultFrameSize      = 1024
)

var (
	ErrCorruptFrame = errors.New("enginetest: corrupt frame")
	ErrInjected     = errors.New("enginetest: injected failure")
)

// Engine behaves like a buffering AAC decoder: Fill copies as much of the
// window as fits into an internal buffer, and DecodeFrame pulls one ADTS
// frame out of it. The PCM it produces is a deterministic function of the
// frame payload, so output can be compared across runs.
type Engine struct {
	Capacity  int // internal buffer size, DefaultEngineCapacity when zero
	FrameSize int // samples per channel, DefaultFrameSize when zero

	OpenErr   error
	FillErrAt int // 1-based Fill call that fails, 0 for never
	FillErr   error
	CloseErr  error

	Config      pump.EngineConfig
	Opens       int
	FillCalls   int
	DecodeCalls int
	FlushCalls  int
	Closes      int
	Consumed    int // bytes accepted by Fill

	// DecodeAfterFillErr counts DecodeFrame calls made after a failed Fill.
	DecodeAfterFillErr int

	buf       []byte
	info      pump.StreamInfo
	fillAdded bool
	failed    bool
}

// Open is a pump.Opener.
func (e *Engine) Open(cfg pump.EngineConfig) (pump.Engine, error) {
	e.Config = cfg
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	e.Opens++
	return e, nil
}

func (e *Engine) capacity() int {
	if e.Capacity > 0 {
		return e.Capacity
	}
	return DefaultEngineCapacity
}

func (e *Engine) frameSize() int {
	if e.FrameSize > 0 {
		return e.FrameSize
	}
	return DefaultFrameSize
}

// Buffered returns the number of bytes held internally.
func (e *Engine) Buffered() int { return len(e.buf) }

func (e *Engine) Fill(window []byte) (int, error) {
	e.FillCalls++
	if e.FillErrAt > 0 && e.FillCalls >= e.FillErrAt {
		e.failed = true
		if e.FillErr != nil {
			return len(window), e.FillErr
		}
		return len(window), ErrInjected
	}

	n := min(e.capacity()-len(e.buf), len(window))
	e.buf = append(e.buf, window[:n]...)
	e.Consumed += n
	return len(window) - n, nil
}

func (e *Engine) DecodeFrame(out []byte, flags pump.DecodeFlags) error {
	e.DecodeCalls++
	if e.failed {
		e.DecodeAfterFillErr++
	}
	flush := flags&pump.FlagFlush != 0
	if flush {
		e.FlushCalls++
	}

	e.resync()
	if len(e.buf) < adts.HeaderSize {
		return e.starved(flush)
	}

	h, err := adts.Parse(e.buf)
	if err != nil {
		e.discard(1)
		return fmt.Errorf("%w: %v", ErrCorruptFrame, err)
	}
	if len(e.buf) < h.FrameLength {
		return e.starved(flush)
	}

	payload := e.buf[h.Size():h.FrameLength]
	defer e.discard(h.FrameLength)

	if len(payload) > 0 && payload[0] == CorruptMarker {
		return ErrCorruptFrame
	}
	channels := h.Channels()
	if channels == 0 {
		return fmt.Errorf("%w: channel configuration 0", ErrCorruptFrame)
	}
	if channels*e.frameSize()*2 > len(out) {
		return pump.ErrOutputTooSmall
	}

	Synthesize(out, payload, channels, e.frameSize())
	e.info = pump.StreamInfo{
		SampleRate:    h.SampleRate(),
		Channels:      channels,
		FrameSize:     e.frameSize(),
		BitsPerSample: pump.BitsPerSample,
		ObjectType:    h.ObjectType(),
	}
	return nil
}

func (e *Engine) starved(flush bool) error {
	if flush {
		e.buf = e.buf[:0]
		return pump.ErrEndOfStream
	}
	return pump.ErrNotEnoughData
}

// resync drops bytes in front of the next syncword.
func (e *Engine) resync() {
	off := adts.Sync(e.buf)
	switch {
	case off > 0:
		e.discard(off)
	case off < 0 && len(e.buf) > 0:
		keep := 0
		if e.buf[len(e.buf)-1] == 0xFF {
			keep = 1
		}
		e.discard(len(e.buf) - keep)
	}
}

func (e *Engine) discard(n int) {
	e.buf = e.buf[:copy(e.buf, e.buf[n:])]
}

func (e *Engine) StreamInfo() pump.StreamInfo { return e.info }

func (e *Engine) Close() error {
	e.Closes++
	return e.CloseErr
}

// Synthesize writes the PCM the fake engine produces for payload into out.
func Synthesize(out, payload []byte, channels, frameSize int) {
	samples := channels * frameSize
	for i := range samples {
		var v int16
		if len(payload) > 0 {
			v = int16(payload[i%len(payload)])<<7 - int16(i%channels)
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
}

// ExpectedPCM returns the concatenated PCM the fake engine produces for the
// given frames, skipping corrupt ones.
func ExpectedPCM(frameSize int, frames ...[]byte) []byte {
	var pcm []byte
	for _, f := range frames {
		h, err := adts.Parse(f)
		if err != nil {
			continue
		}
		payload := f[h.Size():h.FrameLength]
		if len(payload) > 0 && payload[0] == CorruptMarker {
			continue
		}
		out := make([]byte, h.Channels()*frameSize*2)
		Synthesize(out, payload, h.Channels(), frameSize)
		pcm = append(pcm, out...)
	}
	return pcm
}
