// SPDX-License-Identifier: EPL-2.0

package enginetest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ik5/aacpump/internal/adts"
	"github.com/ik5/aacpump/pump"
)

// Frame builds one ADTS frame with the given channel configuration and
// payload at 44.1 kHz AAC-LC. It panics on invalid input.
func Frame(channelConfig uint8, payload []byte) []byte {
	f, err := adts.AppendFrame(nil, adts.Header{
		Profile:                1,
		SamplingFrequencyIndex: 4,
		ChannelConfiguration:   channelConfig,
		BufferFullness:         0x7FF,
	}, payload)
	if err != nil {
		panic(err)
	}
	return f
}

// SizedFrame builds an ADTS frame of exactly size bytes whose payload is
// filled from seed.
func SizedFrame(channelConfig uint8, size int, seed byte) []byte {
	payload := make([]byte, size-adts.HeaderSize)
	for i := range payload {
		payload[i] = seed + byte(i)
	}
	if len(payload) > 0 && payload[0] == CorruptMarker {
		payload[0]++
	}
	return Frame(channelConfig, payload)
}

// CorruptFrame builds a well-formed ADTS frame the fake engine rejects.
func CorruptFrame(channelConfig uint8, size int) []byte {
	f := SizedFrame(channelConfig, size, 1)
	f[adts.HeaderSize] = CorruptMarker
	return f
}

// Concat joins frames into one stream.
func Concat(frames ...[]byte) []byte { return bytes.Join(frames, nil) }

// Source is a byte source that returns at most Chunk bytes per Read and
// records how it was used.
type Source struct {
	r        io.Reader
	Chunk    int   // max bytes per Read, unlimited when zero
	ReadErr  error // returned once the data runs out, instead of io.EOF
	CloseErr error

	Reads     int
	ZeroReads int // reads that returned no data
	Closes    int
}

// NewSource returns a Source over data.
func NewSource(data []byte, chunk int) *Source {
	return &Source{r: bytes.NewReader(data), Chunk: chunk}
}

func (s *Source) Read(p []byte) (int, error) {
	s.Reads++
	if s.Chunk > 0 && len(p) > s.Chunk {
		p = p[:s.Chunk]
	}
	n, err := s.r.Read(p)
	if n == 0 {
		s.ZeroReads++
	}
	if err == io.EOF && s.ReadErr != nil {
		return n, s.ReadErr
	}
	return n, err
}

func (s *Source) Close() error {
	s.Closes++
	return s.CloseErr
}

// Sink records every frame it receives.
type Sink struct {
	FailAt   int // 1-based write that fails, 0 for never
	FailAll  bool
	CloseErr error

	Frames []pump.Frame
	Writes int
	Closes int
	pcm    bytes.Buffer
}

func (s *Sink) WriteSamples(f pump.Frame) error {
	s.Writes++
	if s.FailAll || (s.FailAt > 0 && s.Writes == s.FailAt) {
		return fmt.Errorf("%w: write %d", ErrInjected, s.Writes)
	}
	f.Data = bytes.Clone(f.Data)
	s.Frames = append(s.Frames, f)
	s.pcm.Write(f.Data)
	return nil
}

func (s *Sink) Close() error {
	s.Closes++
	return s.CloseErr
}

// PCM returns everything written so far.
func (s *Sink) PCM() []byte { return s.pcm.Bytes() }

// Allocator tracks live buffers and can fail a given allocation.
type Allocator struct {
	FailAt int // 1-based Alloc call that fails, 0 for never

	Allocs int
	Frees  int
	live   map[*byte]int
}

func (a *Allocator) Alloc(n int) ([]byte, error) {
	a.Allocs++
	if a.FailAt > 0 && a.Allocs == a.FailAt {
		return nil, fmt.Errorf("%w: alloc %d of %d bytes", ErrInjected, a.Allocs, n)
	}
	if a.live == nil {
		a.live = make(map[*byte]int)
	}
	b := make([]byte, n)
	if n > 0 {
		a.live[&b[0]] = n
	}
	return b, nil
}

func (a *Allocator) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	if _, ok := a.live[&b[0]]; ok {
		delete(a.live, &b[0])
		a.Frees++
	}
}

// Live returns the number of buffers allocated and not yet freed.
func (a *Allocator) Live() int { return len(a.live) }
