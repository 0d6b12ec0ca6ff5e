// SPDX-License-Identifier: EPL-2.0

package pump

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
	"go.uber.org/multierr"
)

// Pump moves bytes from a source through an engine into a sink. A Pump runs
// once and is not safe for concurrent use.
type Pump struct {
	cfg    Config
	log    logging.Logger
	src    io.Reader
	sink   Sink
	engine Engine
	stage  *stagingBuffer
	out    []byte

	state     State
	exhausted bool // the source returned a short read
	filled    bool // at least one Fill succeeded
	stalls    int
	stats     Stats
	sinkErr   *Error

	ran    bool
	closed bool
}

// New allocates the pump's buffers and opens its engine.
//
// On failure every resource New acquired is released and the returned error
// matches ErrResource. src and snk are owned by the pump only once New
// succeeds; Close (or Run) closes them.
func New(src io.Reader, snk Sink, open Opener, opts ...Option) (*Pump, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case src == nil:
		return nil, newError(ErrResource, 0, ErrNilSource)
	case snk == nil:
		return nil, newError(ErrResource, 0, ErrNilSink)
	case open == nil:
		return nil, newError(ErrResource, 0, ErrNilOpener)
	}
	if err := cfg.Validate(); err != nil {
		return nil, newError(ErrResource, 0, err)
	}

	staging, err := allocate(cfg.Allocator, cfg.Capacity)
	if err != nil {
		return nil, newError(ErrResource, 0, fmt.Errorf("staging buffer: %w", err))
	}

	out, err := allocate(cfg.Allocator, cfg.OutputCapacity)
	if err != nil {
		cfg.Allocator.Free(staging)
		return nil, newError(ErrResource, 0, fmt.Errorf("output buffer: %w", err))
	}

	eng, err := open(EngineConfig{Transport: cfg.Transport, Layers: cfg.Layers, Logger: cfg.Logger})
	if err == nil && eng == nil {
		err = ErrNilEngine
	}
	if err != nil {
		cfg.Allocator.Free(out)
		cfg.Allocator.Free(staging)
		return nil, newError(ErrResource, 0, fmt.Errorf("open engine: %w", err))
	}

	cfg.Logger.Debug("pump ready",
		"transport", string(cfg.Transport),
		"capacity", cfg.Capacity,
		"outputCapacity", cfg.OutputCapacity)

	return &Pump{
		cfg:    cfg,
		log:    cfg.Logger,
		src:    src,
		sink:   snk,
		engine: eng,
		stage:  newStagingBuffer(staging),
		out:    out,
	}, nil
}

func allocate(a Allocator, n int) ([]byte, error) {
	b, err := a.Alloc(n)
	if err != nil {
		return nil, err
	}
	if len(b) < n {
		a.Free(b)
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrAllocation, len(b), n)
	}
	return b[:n], nil
}

// Run decodes the whole source and tears the pump down. Decode errors are
// logged and counted in Stats; fill, read, sink (unless configured
// otherwise) and context errors end the run early. Teardown failures are
// appended to the returned error.
func (p *Pump) Run(ctx context.Context) (Stats, error) {
	if p.ran || p.closed {
		return p.stats, ErrClosed
	}
	p.ran = true

	err := p.run(ctx)
	if err == nil && p.sinkErr != nil {
		err = newError(ErrSinkWrite, p.sinkErr.Iteration,
			fmt.Errorf("%d writes failed, first: %w", p.stats.SinkErrors, p.sinkErr.Err))
	}
	if cerr := p.Close(); cerr != nil {
		err = multierr.Append(err, cerr)
	}

	p.log.Info("pump finished",
		"frames", p.stats.FramesDecoded,
		"decodeErrors", p.stats.DecodeErrors,
		"bytesRead", p.stats.BytesRead,
		"bytesWritten", p.stats.BytesWritten)
	return p.stats, err
}

func (p *Pump) run(ctx context.Context) error {
	n, err := p.read(0)
	if err != nil {
		return err
	}
	if n == 0 {
		p.log.Info("empty input")
		return nil
	}

	for p.stage.valid > 0 {
		p.stats.Iterations++
		it := p.stats.Iterations

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pump: stopped at iteration %d: %w", it, err)
		}

		residual, err := p.engine.Fill(p.stage.window())
		if err != nil {
			p.log.Error("fill failed", "iteration", it, "error", err)
			return newError(ErrFill, it, err)
		}
		p.stats.Fills++
		p.filled = true
		taken := p.stage.consume(residual)

		decoded, err := p.decode(it)
		if err != nil {
			return err
		}

		if taken == 0 && !decoded {
			p.stalls++
			if p.cfg.StallLimit > 0 && p.stalls >= p.cfg.StallLimit {
				return newError(ErrDecode, it, fmt.Errorf("%w for %d iterations", ErrStalled, p.stalls))
			}
		} else {
			p.stalls = 0
		}

		if p.stage.valid == 0 && !p.exhausted {
			if _, err := p.read(it); err != nil {
				return err
			}
		}
	}

	return p.flush()
}

// read refills the staging buffer and tracks end of stream.
func (p *Pump) read(it int) (int, error) {
	n, eof, err := p.stage.refill(p.src)
	p.stats.Reads++
	p.stats.BytesRead += int64(n)
	if err != nil {
		return n, newError(ErrRead, it, err)
	}
	if eof && !p.exhausted {
		p.exhausted = true
		p.log.Debug("source exhausted", "iteration", it, "lastRead", n)
		if n > 0 {
			p.setState(StateDraining)
		}
	}
	return n, nil
}

// flush asks the engine for the frames it still holds after the staging
// buffer has been consumed. It never reads from the source.
func (p *Pump) flush() error {
	if !p.cfg.Flush || !p.filled {
		return nil
	}
	p.setState(StateFlushing)

	limit := p.cfg.StallLimit
	if limit <= 0 {
		limit = DefaultStallLimit
	}
	buffered, tracked := p.engine.(Bufferer)

	failures := 0
	for {
		p.stats.Iterations++
		it := p.stats.Iterations

		before := -1
		if tracked {
			before = buffered.Buffered()
		}
		err := p.engine.DecodeFrame(p.out, FlagFlush)
		if errors.Is(err, ErrEndOfStream) || errors.Is(err, ErrNotEnoughData) {
			return nil
		}
		if err == nil {
			ok, werr := p.drainFrame(it)
			if werr != nil {
				return werr
			}
			if ok {
				failures = 0
				continue
			}
		} else {
			p.decodeFailed(it, err)
		}

		// The engine rejected a frame. Keep going while it consumes input.
		failures++
		if tracked && buffered.Buffered() >= before {
			p.log.Debug("flush made no progress", "iteration", it, "buffered", before)
			return nil
		}
		if !tracked && failures >= limit {
			p.log.Warning("flush abandoned", "iteration", it, "failures", failures)
			return nil
		}
	}
}

// decode runs one decode step followed by the drain step. A decode failure
// is recorded and reported as decoded == false; only sink failures are
// returned.
func (p *Pump) decode(it int) (decoded bool, err error) {
	if derr := p.engine.DecodeFrame(p.out, FlagNone); derr != nil {
		p.decodeFailed(it, derr)
		return false, nil
	}
	return p.drainFrame(it)
}

// drainFrame sizes the frame just decoded from the engine's stream info and
// forwards exactly that many bytes to the sink.
func (p *Pump) drainFrame(it int) (bool, error) {
	info := p.engine.StreamInfo()
	frameBytes := info.FrameBytes()
	if frameBytes <= 0 || frameBytes > len(p.out) {
		p.decodeFailed(it, fmt.Errorf("%w: %d channels x %d samples", ErrBadFrame, info.Channels, info.FrameSize))
		return false, nil
	}
	p.stats.FramesDecoded++

	f := Frame{
		Data:          p.out[:frameBytes],
		Samples:       frameBytes / bytesPerSample,
		BitsPerSample: BitsPerSample,
		Channels:      info.Channels,
		SampleRate:    info.SampleRate,
		Interleaved:   true,
		Index:         p.stats.SinkWrites,
	}
	if err := p.sink.WriteSamples(f); err != nil {
		p.stats.SinkErrors++
		werr := newError(ErrSinkWrite, it, err)
		if !p.cfg.ContinueOnSinkError {
			p.log.Error("sink write failed", "iteration", it, "error", err)
			return true, werr
		}
		p.log.Warning("sink write failed, continuing", "iteration", it, "error", err)
		if p.sinkErr == nil {
			p.sinkErr = werr
		}
		return true, nil
	}
	p.stats.SinkWrites++
	p.stats.BytesWritten += int64(frameBytes)
	return true, nil
}

func (p *Pump) decodeFailed(it int, err error) {
	p.stats.DecodeErrors++
	if errors.Is(err, ErrNotEnoughData) {
		p.log.Debug("decoder needs more data", "iteration", it)
		return
	}
	p.log.Warning("frame decode failed", "iteration", it, "error", err)
}

func (p *Pump) setState(s State) {
	if p.state == s {
		return
	}
	p.log.Debug("pump state change", "from", p.state.String(), "to", s.String())
	p.state = s
	p.stats.State = s
}

// Close releases the buffers, closes the engine, the source (when it is an
// io.Closer) and the sink. Every step runs even if an earlier one fails.
// Close is idempotent.
func (p *Pump) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	p.cfg.Allocator.Free(p.stage.buf)
	p.stage.buf = nil
	p.cfg.Allocator.Free(p.out)
	p.out = nil

	if cerr := p.engine.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("close engine: %w", cerr))
	}
	if c, ok := p.src.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close source: %w", cerr))
		}
	}
	if cerr := p.sink.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("close sink: %w", cerr))
	}

	p.setState(StateTerminated)
	if err != nil {
		p.log.Error("teardown failed", "error", err)
		return newError(ErrTeardown, 0, err)
	}
	return nil
}

// Stats returns the counters collected so far.
func (p *Pump) Stats() Stats { return p.stats }

// State returns the pump's lifecycle state.
func (p *Pump) State() State { return p.state }
