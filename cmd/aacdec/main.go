// SPDX-License-Identifier: EPL-2.0

// Command aacdec decodes an AAC (ADTS), MP3 or Ogg Vorbis file to 16-bit PCM,
// written as WAV or as raw little-endian samples.
//
//	aacdec [-r bitrate] [-t aot] [-a afterburner] [-s sbr] [-v vbr] [flags] in out
//
// The -r, -t, -a, -s and -v flags describe the stream the input was encoded
// with. They are validated and logged but do not change decoding.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ik5/aacpump"
	"github.com/ik5/aacpump/engine"
	"github.com/ik5/aacpump/pump"
	"github.com/ik5/aacpump/sink"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// Log file rotation.
const (
	logMaxSize   = 50 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
	logSuppress  = true
)

// Audio object types the input may have been encoded with.
var objectTypes = map[int]string{
	2:  "AAC-LC",
	5:  "HE-AAC",
	29: "HE-AAC v2",
	23: "AAC-LD",
	39: "AAC-ELD",
}

var logLevels = map[string]int8{
	"debug":   logging.Debug,
	"info":    logging.Info,
	"warning": logging.Warning,
	"error":   logging.Error,
}

var errUsage = errors.New("usage error")

type options struct {
	bitrate     int
	aot         int
	afterburner int
	sbr         int
	vbr         int

	format         string
	capacity       int
	raw            bool
	mono           bool
	rate           int
	continueOnSink bool
	logLevel       string
	logFile        string

	in, out string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, "aacdec:", err)
		return exitUsage
	}

	logOut := stderr
	if opts.logFile != "" {
		fileLog := &lumberjack.Logger{
			Filename:   opts.logFile,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
		defer fileLog.Close()
		logOut = io.MultiWriter(stderr, fileLog)
	}
	log := logging.New(logLevels[opts.logLevel], logOut, logSuppress)

	log.Info("starting",
		"in", opts.in,
		"out", opts.out,
		"objectType", objectTypes[opts.aot],
		"bitrate", opts.bitrate,
		"afterburner", opts.afterburner,
		"sbr", opts.sbr,
		"vbr", opts.vbr)

	stats, err := decode(ctx, opts, log)
	if err != nil {
		log.Error("decode failed", "error", err, "fatal", pump.IsFatal(err))
		fmt.Fprintln(stderr, "aacdec:", err)
		return exitFail
	}

	log.Info("done",
		"frames", stats.FramesDecoded,
		"decodeErrors", stats.DecodeErrors,
		"pcmBytes", stats.BytesWritten)
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("aacdec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: aacdec [-r bitrate] [-t aot] [-a afterburner] [-s sbr] [-v vbr] [flags] in out")
		fmt.Fprintln(stderr, "Supported AOTs:")
		for _, aot := range []int{2, 5, 29, 23, 39} {
			fmt.Fprintf(stderr, "\t%d\t%s\n", aot, objectTypes[aot])
		}
		fs.PrintDefaults()
	}

	fs.IntVar(&o.bitrate, "r", 0, "bitrate the input was encoded at, in bit/s")
	fs.IntVar(&o.aot, "t", 2, "audio object type of the input")
	fs.IntVar(&o.afterburner, "a", 0, "afterburner used when encoding (0 or 1)")
	fs.IntVar(&o.sbr, "s", 0, "SBR signalling used when encoding")
	fs.IntVar(&o.vbr, "v", 0, "VBR mode used when encoding (0-5)")
	fs.StringVar(&o.format, "format", "", "input format: "+strings.Join(aacpump.DefaultRegistry.Formats(), ", ")+" (default: from extension, then content)")
	fs.IntVar(&o.capacity, "capacity", pump.DefaultCapacity, "staging buffer size in bytes")
	fs.BoolVar(&o.raw, "raw", false, "write raw PCM16 instead of WAV")
	fs.BoolVar(&o.mono, "mono", false, "downmix to mono")
	fs.IntVar(&o.rate, "rate", 0, "resample to this rate in Hz (default: keep the input rate)")
	fs.BoolVar(&o.continueOnSink, "continue-on-sink-error", false, "keep decoding when a write to the output fails")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warning or error")
	fs.StringVar(&o.logFile, "log-file", "", "also log to this file, rotated")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch {
	case fs.NArg() != 2:
		fs.Usage()
		return nil, fmt.Errorf("%w: want input and output paths, got %d arguments", errUsage, fs.NArg())
	case objectTypes[o.aot] == "":
		return nil, fmt.Errorf("%w: unsupported audio object type %d", errUsage, o.aot)
	case o.afterburner != 0 && o.afterburner != 1:
		return nil, fmt.Errorf("%w: afterburner must be 0 or 1, got %d", errUsage, o.afterburner)
	case o.vbr < 0 || o.vbr > 5:
		return nil, fmt.Errorf("%w: vbr mode must be 0-5, got %d", errUsage, o.vbr)
	case o.bitrate < 0:
		return nil, fmt.Errorf("%w: negative bitrate %d", errUsage, o.bitrate)
	case o.rate < 0:
		return nil, fmt.Errorf("%w: negative sample rate %d", errUsage, o.rate)
	case o.capacity <= 0:
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", errUsage, o.capacity)
	}
	if _, ok := logLevels[o.logLevel]; !ok {
		return nil, fmt.Errorf("%w: unknown log level %q", errUsage, o.logLevel)
	}
	o.format = strings.ToLower(o.format)
	if o.format != "" {
		if _, ok := aacpump.DefaultRegistry.Get(o.format); !ok {
			return nil, fmt.Errorf("%w: unknown format %q", errUsage, o.format)
		}
	}

	o.in, o.out = fs.Arg(0), fs.Arg(1)
	return &o, nil
}

func decode(ctx context.Context, o *options, log logging.Logger) (pump.Stats, error) {
	format := o.format
	if format == "" {
		format = engine.FormatFromPath(o.in)
	}

	in, err := os.Open(o.in)
	if err != nil {
		return pump.Stats{}, fmt.Errorf("open input: %w", err)
	}

	out, err := os.Create(o.out)
	if err != nil {
		in.Close()
		return pump.Stats{}, fmt.Errorf("create output: %w", err)
	}

	var snk pump.Sink
	if o.raw {
		snk = sink.NewRaw(out)
	} else {
		snk = sink.NewWAV(out)
	}
	if o.rate > 0 {
		snk = sink.NewResample(snk, o.rate)
	}
	if o.mono {
		snk = sink.NewDownmix(snk)
	}

	return aacpump.Decode(ctx, in, snk, format,
		pump.WithCapacity(o.capacity),
		pump.WithContinueOnSinkError(o.continueOnSink),
		pump.WithLogger(log))
}
