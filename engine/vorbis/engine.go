// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/aacpump/internal/feed"
	"github.com/ik5/aacpump/pump"
	"github.com/ik5/aacpump/utils"
)

// Defaults for Config.
const (
	DefaultBufferSize = 128 << 10
	DefaultLookahead  = 64 << 10
)

// FrameSamples is the number of samples per channel DecodeFrame emits.
const FrameSamples = 1024

// maxChannels is the largest Vorbis channel mapping with a defined layout.
const maxChannels = 8

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	// Read returns the number of float32 values decoded, always a multiple
	// of Channels.
	Read([]float32) (int, error)
}

func newOggVorbis(r io.Reader) (oggReader, error) {
	d, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Config tunes the engine's buffering.
type Config struct {
	// BufferSize bounds the compressed bytes held by the engine.
	BufferSize int
	// Lookahead is the number of buffered bytes required before the decoder
	// is pulled. It must cover the header pages and the largest audio page.
	Lookahead int
}

// Engine decodes Ogg Vorbis with oggvorbis.
type Engine struct {
	cfg  Config
	log  logging.Logger
	in   *feed.Feed
	dec  oggReader
	pcm  []float32
	info pump.StreamInfo

	newDecoder func(io.Reader) (oggReader, error)
	closed     bool
}

// Open is a pump.Opener using the default Config.
func Open(cfg pump.EngineConfig) (pump.Engine, error) {
	return NewOpener(Config{})(cfg)
}

// NewOpener returns a pump.Opener using c. Zero fields take their defaults.
func NewOpener(c Config) pump.Opener {
	return func(cfg pump.EngineConfig) (pump.Engine, error) {
		e, err := open(cfg, c, newOggVorbis)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

func open(cfg pump.EngineConfig, c Config, newDecoder func(io.Reader) (oggReader, error)) (*Engine, error) {
	if cfg.Transport != pump.TransportOgg {
		return nil, fmt.Errorf("vorbis: %w: %q", pump.ErrUnsupportedTransport, cfg.Transport)
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.Lookahead == 0 {
		c.Lookahead = DefaultLookahead
	}
	if c.Lookahead > c.BufferSize {
		return nil, fmt.Errorf("%w: lookahead %d exceeds buffer %d", ErrBadConfig, c.Lookahead, c.BufferSize)
	}

	log := cfg.Logger
	if log == nil {
		log = logging.New(logging.Info, io.Discard, true)
	}
	return &Engine{
		cfg:        c,
		log:        log,
		in:         feed.New(c.BufferSize),
		newDecoder: newDecoder,
	}, nil
}

func (e *Engine) Fill(window []byte) (int, error) {
	if e.closed {
		return len(window), ErrClosed
	}
	return e.in.Push(window), nil
}

// DecodeFrame emits up to FrameSamples samples per channel as PCM16.
func (e *Engine) DecodeFrame(out []byte, flags pump.DecodeFlags) error {
	if e.closed {
		return ErrClosed
	}
	if flags&pump.FlagFlush != 0 {
		e.in.Close()
	}
	if !e.in.Ready(e.cfg.Lookahead) {
		return pump.ErrNotEnoughData
	}

	if e.dec == nil {
		if err := e.start(); err != nil {
			return err
		}
	}

	ch := e.dec.Channels()
	if need := FrameSamples * ch * pump.BitsPerSample / 8; len(out) < need {
		return fmt.Errorf("vorbis: %w: need %d bytes, have %d", pump.ErrOutputTooSmall, need, len(out))
	}

	n, err := e.readFrame(FrameSamples * ch)
	n -= n % ch
	if n > 0 {
		utils.PutPCM16(out, e.pcm[:n])
		e.info = pump.StreamInfo{
			SampleRate:    e.dec.SampleRate(),
			Channels:      ch,
			FrameSize:     n / ch,
			BitsPerSample: pump.BitsPerSample,
		}
		if err != nil && !isEnd(err) && !errors.Is(err, feed.ErrStarved) {
			e.log.Warning("vorbis decoder failed after partial frame", "error", err)
			e.dec = nil
		}
		return nil
	}

	switch {
	case isEnd(err) && e.in.Closed():
		return pump.ErrEndOfStream
	case isEnd(err), errors.Is(err, feed.ErrStarved):
		return pump.ErrNotEnoughData
	}
	e.dec = nil
	return fmt.Errorf("vorbis: decode: %w", err)
}

// readFrame pulls until want values are decoded or the decoder stops.
func (e *Engine) readFrame(want int) (int, error) {
	if cap(e.pcm) < want {
		e.pcm = make([]float32, want)
	}
	e.pcm = e.pcm[:want]

	n := 0
	for n < want {
		m, err := e.dec.Read(e.pcm[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, io.ErrNoProgress
		}
	}
	return n, nil
}

func (e *Engine) start() error {
	if e.in.Buffered() == 0 {
		return pump.ErrEndOfStream
	}
	dec, err := e.newDecoder(e.in)
	if err != nil {
		if isEnd(err) && e.in.Closed() {
			return pump.ErrEndOfStream
		}
		return fmt.Errorf("vorbis: open stream: %w", err)
	}
	if ch := dec.Channels(); ch <= 0 || ch > maxChannels {
		return fmt.Errorf("%w: %d", ErrChannels, ch)
	}
	e.dec = dec
	e.log.Debug("vorbis stream opened", "sampleRate", dec.SampleRate(), "channels", dec.Channels())
	return nil
}

func isEnd(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (e *Engine) StreamInfo() pump.StreamInfo { return e.info }

// Buffered returns the number of input bytes not yet handed to the decoder.
func (e *Engine) Buffered() int { return e.in.Buffered() }

func (e *Engine) Close() error {
	e.closed = true
	e.dec = nil
	e.pcm = nil
	return nil
}
