// SPDX-License-Identifier: EPL-2.0

package aacpump

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/ik5/aacpump/engine"
	"github.com/ik5/aacpump/engine/fdkaac"
	"github.com/ik5/aacpump/engine/mp3"
	"github.com/ik5/aacpump/engine/vorbis"
	"github.com/ik5/aacpump/pump"
	"github.com/ik5/aacpump/sink"
)

// DefaultRegistry holds the bundled engines under engine.FormatAAC,
// engine.FormatMP3 and engine.FormatOgg.
var DefaultRegistry = NewDefaultRegistry()

// NewDefaultRegistry returns a fresh registry with the bundled engines.
func NewDefaultRegistry() *engine.Registry {
	reg := engine.NewRegistry()
	reg.Register(engine.FormatAAC, pump.TransportADTS, fdkaac.Open)
	reg.Register(engine.FormatMP3, pump.TransportMP3, mp3.Open)
	reg.Register(engine.FormatOgg, pump.TransportOgg, vorbis.Open)
	return reg
}

// Decode pumps r through the engine registered for format in
// DefaultRegistry and writes the PCM to snk. An empty format is detected
// with Detect; an empty stream then decodes to nothing without error.
func Decode(ctx context.Context, r io.Reader, snk pump.Sink, format string, opts ...pump.Option) (pump.Stats, error) {
	return DecodeWith(ctx, DefaultRegistry, r, snk, format, opts...)
}

// DecodeToWAV is Decode into a WAV file written to w.
func DecodeToWAV(ctx context.Context, r io.Reader, w io.WriteSeeker, format string, opts ...pump.Option) (pump.Stats, error) {
	return Decode(ctx, r, sink.NewWAV(w), format, opts...)
}

// DecodeWith is Decode with an explicit registry. The codec's transport is
// applied before opts, so an option may still override it.
func DecodeWith(ctx context.Context, reg *engine.Registry, r io.Reader, snk pump.Sink, format string, opts ...pump.Option) (pump.Stats, error) {
	if r == nil || snk == nil {
		return pump.Stats{}, ErrNilArgument
	}

	var err error
	if format == "" {
		var empty bool
		r, format, empty, err = detect(r)
		if empty {
			// Nothing to decode, same as the pump's empty input.
			return pump.Stats{State: pump.StateTerminated}, release(nil, r, snk)
		}
		if err != nil {
			return pump.Stats{}, release(err, r, snk)
		}
	}

	codec, err := reg.Lookup(format)
	if err != nil {
		return pump.Stats{}, release(err, r, snk)
	}

	all := make([]pump.Option, 0, len(opts)+1)
	all = append(all, pump.WithTransport(codec.Transport))
	all = append(all, opts...)

	p, err := pump.New(r, snk, codec.Open, all...)
	if err != nil {
		return pump.Stats{}, release(err, r, snk)
	}
	return p.Run(ctx)
}

// release closes what a failed setup was handed and joins any close errors
// to err.
func release(err error, r io.Reader, snk pump.Sink) error {
	if c, ok := r.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return multierr.Append(err, snk.Close())
}

// Detect sniffs the format of r from its first engine.SniffSize bytes. The
// returned reader replays the sniffed bytes and must be used in place of r.
// It is an io.Closer closing r when r is one.
func Detect(r io.Reader) (io.Reader, string, error) {
	r, format, _, err := detect(r)
	return r, format, err
}

// detect is Detect that also reports whether r ended before its first byte.
func detect(r io.Reader) (io.Reader, string, bool, error) {
	br := bufio.NewReaderSize(r, engine.SniffSize)
	header, err := br.Peek(engine.SniffSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return wrapCloser(br, r), "", false, fmt.Errorf("detect format: %w", err)
	}
	empty := len(header) == 0

	format := engine.Sniff(header)
	if format == "" {
		return wrapCloser(br, r), "", empty, fmt.Errorf("%w: no known signature in % x", engine.ErrUnknownFormat, header)
	}
	return wrapCloser(br, r), format, empty, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func wrapCloser(br *bufio.Reader, r io.Reader) io.Reader {
	if c, ok := r.(io.Closer); ok {
		return readCloser{br, c}
	}
	return br
}
