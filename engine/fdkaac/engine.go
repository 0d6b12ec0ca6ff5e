// SPDX-License-Identifier: EPL-2.0

package fdkaac

import (
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
	fdk "github.com/lizc2003/audio-fdkaac"

	"github.com/ik5/aacpump/internal/adts"
	"github.com/ik5/aacpump/pump"
)

// DefaultBufferSize is the engine's internal bitstream buffer, the same size
// fdk-aac uses for its own transport buffer.
const DefaultBufferSize = 65536

// implicitSBRFrameSize is the per-channel sample count of an HE-AAC frame
// whose ADTS header only carries the core sample rate.
const implicitSBRFrameSize = 2048

// aacDecoder is the part of the fdk-aac binding the engine uses.
type aacDecoder interface {
	EstimateOutBufBytes() int
	Decode(in, out []byte) (decodedN int, nFrames int, rest []byte, err error)
	Close()
}

// binding adapts the fdk-aac decoder handle to aacDecoder.
type binding struct {
	estimate func() int
	decode   func(in, out []byte) (int, int, []byte, error)
	close    func()
}

func (b binding) EstimateOutBufBytes() int { return b.estimate() }

func (b binding) Decode(in, out []byte) (int, int, []byte, error) { return b.decode(in, out) }

func (b binding) Close() { b.close() }

func newADTSDecoder() (aacDecoder, error) {
	d, err := fdk.CreateAacDecoder(&fdk.AacDecoderConfig{
		TransportFmt: fdk.TtMp4Adts,
	})
	if err != nil {
		return nil, err
	}
	return binding{
		estimate: d.EstimateOutBufBytes,
		decode:   d.Decode,
		close:    func() { d.Close() },
	}, nil
}

// Engine feeds ADTS frames to fdk-aac one at a time.
type Engine struct {
	dec      aacDecoder
	log      logging.Logger
	buf      []byte
	capacity int
	pcm      []byte
	info     pump.StreamInfo
	closed   bool
}

// Open is a pump.Opener for ADTS streams with the default buffer size.
func Open(cfg pump.EngineConfig) (pump.Engine, error) {
	return NewOpener(DefaultBufferSize)(cfg)
}

// NewOpener returns an Opener whose engines buffer up to size bytes.
func NewOpener(size int) pump.Opener {
	return func(cfg pump.EngineConfig) (pump.Engine, error) {
		e, err := open(cfg, size, newADTSDecoder)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

func open(cfg pump.EngineConfig, size int, newDecoder func() (aacDecoder, error)) (*Engine, error) {
	if cfg.Transport != pump.TransportADTS {
		return nil, fmt.Errorf("fdkaac: %w: %q", pump.ErrUnsupportedTransport, cfg.Transport)
	}
	if cfg.Layers != 1 {
		return nil, fmt.Errorf("fdkaac: %w: %d layers", pump.ErrUnsupportedTransport, cfg.Layers)
	}
	if size < adts.MaxFrameLength {
		return nil, fmt.Errorf("%w: %d", ErrBufferTooSmall, size)
	}

	dec, err := newDecoder()
	if err != nil {
		return nil, fmt.Errorf("fdkaac: create decoder: %w", err)
	}

	pcmSize := dec.EstimateOutBufBytes()
	if pcmSize <= 0 {
		pcmSize = pump.MaxFrameBytes
	}

	log := cfg.Logger
	if log == nil {
		log = logging.New(logging.Info, io.Discard, true)
	}

	return &Engine{
		dec:      dec,
		log:      log,
		buf:      make([]byte, 0, size),
		capacity: size,
		pcm:      make([]byte, pcmSize),
	}, nil
}

func (e *Engine) Fill(window []byte) (int, error) {
	if e.closed {
		return len(window), ErrClosed
	}
	n := min(e.capacity-len(e.buf), len(window))
	e.buf = append(e.buf, window[:n]...)
	return len(window) - n, nil
}

// DecodeFrame decodes the next complete ADTS frame in the internal buffer.
func (e *Engine) DecodeFrame(out []byte, flags pump.DecodeFlags) error {
	if e.closed {
		return ErrClosed
	}

	e.resync()
	if len(e.buf) < adts.HeaderSize {
		return e.starved(flags)
	}

	h, err := adts.Parse(e.buf)
	if err != nil {
		e.discard(1)
		return fmt.Errorf("fdkaac: %w", err)
	}
	if len(e.buf) < h.FrameLength {
		return e.starved(flags)
	}

	n, _, _, err := e.dec.Decode(e.buf[:h.FrameLength], e.pcm)
	e.discard(h.FrameLength)
	if err != nil {
		return fmt.Errorf("fdkaac: decode: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("fdkaac: %w: frame produced no samples", pump.ErrNotEnoughData)
	}
	if n > len(out) {
		return fmt.Errorf("fdkaac: %w: %d bytes, have %d", pump.ErrOutputTooSmall, n, len(out))
	}

	channels := h.Channels()
	if channels == 0 {
		// Program config element; keep the layout of the previous frame.
		channels = max(e.info.Channels, 2)
	}
	if channels == 1 && n == 2*implicitSBRFrameSize*pump.BitsPerSample/8 {
		// Parametric stereo: the header signals mono, the decoder upmixes.
		channels = 2
	}
	copy(out, e.pcm[:n])

	frameSize := n / (channels * pump.BitsPerSample / 8)
	rate := h.SampleRate()
	if frameSize == implicitSBRFrameSize {
		rate *= 2
	}
	e.info = pump.StreamInfo{
		SampleRate:    rate,
		Channels:      channels,
		FrameSize:     frameSize,
		BitsPerSample: pump.BitsPerSample,
		ObjectType:    h.ObjectType(),
	}
	return nil
}

func (e *Engine) starved(flags pump.DecodeFlags) error {
	if flags&pump.FlagFlush != 0 {
		if len(e.buf) > 0 {
			e.log.Debug("dropping truncated frame at end of stream", "bytes", len(e.buf))
		}
		e.buf = e.buf[:0]
		return pump.ErrEndOfStream
	}
	return pump.ErrNotEnoughData
}

// resync drops bytes in front of the next syncword. A trailing 0xFF is kept
// since it may start a header split across fills.
func (e *Engine) resync() {
	off := adts.Sync(e.buf)
	if off < 0 {
		off = len(e.buf)
		if off > 0 && e.buf[off-1] == 0xFF {
			off--
		}
	}
	if off > 0 {
		e.log.Debug("skipping bytes to next adts header", "bytes", off)
		e.discard(off)
	}
}

func (e *Engine) discard(n int) {
	e.buf = e.buf[:copy(e.buf, e.buf[n:])]
}

func (e *Engine) StreamInfo() pump.StreamInfo { return e.info }

// Buffered returns the number of bytes waiting in the internal buffer.
func (e *Engine) Buffered() int { return len(e.buf) }

func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.dec.Close()
	e.buf = nil
	return nil
}
