// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/aacpump/internal/feed"
	"github.com/ik5/aacpump/pump"
)

// Defaults for Config.
const (
	DefaultBufferSize = 128 << 10
	DefaultLookahead  = 16 << 10
)

// go-mp3 always produces 16-bit stereo.
const (
	channels = 2
	// FrameSamples is the number of samples per channel in one MPEG-1
	// Layer III frame, the unit DecodeFrame emits.
	FrameSamples = 1152
	frameBytes   = FrameSamples * channels * pump.BitsPerSample / 8
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

func newGoMP3(r io.Reader) (mp3Reader, error) {
	d, err := gomp3.NewDecoder(r)
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
	// is asked for a frame. It must exceed the largest frame so a pull never
	// runs dry mid-frame.
	Lookahead int
}

// Engine decodes MPEG audio Layer III with go-mp3.
type Engine struct {
	cfg  Config
	log  logging.Logger
	in   *feed.Feed
	dec  mp3Reader
	info pump.StreamInfo

	newDecoder func(io.Reader) (mp3Reader, error)
	skip       int // bytes of an id3 tag still to drop
	closed     bool
}

// Open is a pump.Opener using the default Config.
func Open(cfg pump.EngineConfig) (pump.Engine, error) {
	return NewOpener(Config{})(cfg)
}

// NewOpener returns a pump.Opener using c. Zero fields take their defaults.
func NewOpener(c Config) pump.Opener {
	return func(cfg pump.EngineConfig) (pump.Engine, error) {
		e, err := open(cfg, c, newGoMP3)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

func open(cfg pump.EngineConfig, c Config, newDecoder func(io.Reader) (mp3Reader, error)) (*Engine, error) {
	if cfg.Transport != pump.TransportMP3 {
		return nil, fmt.Errorf("mp3: %w: %q", pump.ErrUnsupportedTransport, cfg.Transport)
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

// DecodeFrame emits up to FrameSamples stereo samples. Before the flush it
// only decodes once Lookahead bytes are buffered.
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
	if len(out) < frameBytes {
		return fmt.Errorf("mp3: %w: need %d bytes, have %d", pump.ErrOutputTooSmall, frameBytes, len(out))
	}

	if e.dec == nil {
		if err := e.start(); err != nil {
			return err
		}
	}

	n, err := io.ReadFull(e.dec, out[:frameBytes])
	n -= n % (channels * pump.BitsPerSample / 8)
	if n > 0 {
		e.info = pump.StreamInfo{
			SampleRate:    e.dec.SampleRate(),
			Channels:      channels,
			FrameSize:     n / (channels * pump.BitsPerSample / 8),
			BitsPerSample: pump.BitsPerSample,
		}
		if err != nil && !isEnd(err) && !errors.Is(err, feed.ErrStarved) {
			e.log.Warning("mp3 decoder failed after partial frame", "error", err)
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
	return fmt.Errorf("mp3: decode: %w", err)
}

// start skips a leading ID3v2 tag and creates the decoder.
func (e *Engine) start() error {
	for {
		if e.skip > 0 {
			e.skip -= e.in.Discard(e.skip)
			if e.skip > 0 {
				return e.starved()
			}
		}
		size := feed.ID3Size(e.in.Peek())
		if size < 0 && !e.in.Closed() {
			return pump.ErrNotEnoughData
		}
		if size <= 0 {
			break
		}
		e.log.Debug("skipping id3 tag", "bytes", size)
		e.skip = size
	}

	if !e.in.Ready(e.cfg.Lookahead) {
		return pump.ErrNotEnoughData
	}
	if e.in.Buffered() == 0 {
		return pump.ErrEndOfStream
	}

	dec, err := e.newDecoder(e.in)
	if err != nil {
		if isEnd(err) && e.in.Closed() {
			return pump.ErrEndOfStream
		}
		return fmt.Errorf("mp3: open stream: %w", err)
	}
	e.dec = dec
	e.log.Debug("mp3 stream opened", "sampleRate", dec.SampleRate())
	return nil
}

func (e *Engine) starved() error {
	if e.in.Closed() {
		return pump.ErrEndOfStream
	}
	return pump.ErrNotEnoughData
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
	return nil
}
