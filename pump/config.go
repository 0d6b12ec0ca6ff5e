// SPDX-License-Identifier: EPL-2.0

package pump

import (
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
)

// Defaults.
const (
	// DefaultCapacity is the staging buffer size in bytes.
	DefaultCapacity = 8192

	// MaxFrameBytes fits the largest frame the AAC engine can emit:
	// 8 channels of 2048 samples (implicit SBR) at 16 bits.
	MaxFrameBytes = 8 * 2048 * bytesPerSample

	// DefaultStallLimit is the number of consecutive iterations without
	// progress tolerated before the pump gives up.
	DefaultStallLimit = 64

	// DefaultLayers is the number of program layers the engine is opened with.
	DefaultLayers = 1
)

// Allocator provides the pump's staging and output buffers.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(n int) ([]byte, error) { return make([]byte, n), nil }
func (heapAllocator) Free([]byte)                 {}

// Config holds everything a pump needs besides its collaborators.
type Config struct {
	Capacity       int       // staging buffer size in bytes
	OutputCapacity int       // output buffer size in bytes
	Transport      Transport // framing the engine is opened with
	Layers         int       // program layers, must be 1

	// Flush drains frames still buffered inside the engine once the source
	// is exhausted.
	Flush bool

	// StallLimit bounds consecutive iterations in which the engine consumed
	// nothing and produced nothing. Zero disables the guard.
	StallLimit int

	// ContinueOnSinkError logs and counts sink failures instead of stopping.
	ContinueOnSinkError bool

	Logger    logging.Logger
	Allocator Allocator
}

// DefaultConfig returns the configuration used by New when no options are
// given.
func DefaultConfig() Config {
	return Config{
		Capacity:       DefaultCapacity,
		OutputCapacity: MaxFrameBytes,
		Transport:      TransportADTS,
		Layers:         DefaultLayers,
		Flush:          true,
		StallLimit:     DefaultStallLimit,
		Logger:         logging.New(logging.Info, io.Discard, true),
		Allocator:      heapAllocator{},
	}
}

// Validate checks c for values the pump cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity %d", ErrBadConfig, c.Capacity)
	case c.OutputCapacity < bytesPerSample:
		return fmt.Errorf("%w: output capacity %d", ErrBadConfig, c.OutputCapacity)
	case c.Transport == "":
		return fmt.Errorf("%w: empty transport", ErrBadConfig)
	case c.Layers != 1:
		return fmt.Errorf("%w: %d layers, only 1 is supported", ErrBadConfig, c.Layers)
	case c.StallLimit < 0:
		return fmt.Errorf("%w: stall limit %d", ErrBadConfig, c.StallLimit)
	case c.Logger == nil:
		return fmt.Errorf("%w: nil logger", ErrBadConfig)
	case c.Allocator == nil:
		return fmt.Errorf("%w: nil allocator", ErrBadConfig)
	}
	return nil
}

// Option modifies a Config.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option { return func(dst *Config) { *dst = c } }

// WithCapacity sets the staging buffer size.
func WithCapacity(n int) Option { return func(c *Config) { c.Capacity = n } }

// WithOutputCapacity sets the output buffer size.
func WithOutputCapacity(n int) Option { return func(c *Config) { c.OutputCapacity = n } }

// WithTransport sets the transport the engine is opened with.
func WithTransport(t Transport) Option { return func(c *Config) { c.Transport = t } }

// WithFlush enables or disables the end-of-stream engine flush.
func WithFlush(on bool) Option { return func(c *Config) { c.Flush = on } }

// WithStallLimit sets the stall guard. Zero disables it.
func WithStallLimit(n int) Option { return func(c *Config) { c.StallLimit = n } }

// WithContinueOnSinkError makes sink failures non-fatal.
func WithContinueOnSinkError(on bool) Option {
	return func(c *Config) { c.ContinueOnSinkError = on }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(c *Config) { c.Logger = l } }

// WithAllocator sets the buffer allocator.
func WithAllocator(a Allocator) Option { return func(c *Config) { c.Allocator = a } }
