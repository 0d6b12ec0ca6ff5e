// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"

	"github.com/ik5/aacpump/pump"
)

// frameLog records every frame written to it.
type frameLog struct {
	frames []pump.Frame
	closes int
}

func (l *frameLog) WriteSamples(f pump.Frame) error {
	f.Data = append([]byte(nil), f.Data...)
	l.frames = append(l.frames, f)
	return nil
}

func (l *frameLog) Close() error {
	l.closes++
	return nil
}

func (l *frameLog) samples() []int16 {
	var out []int16
	for _, f := range l.frames {
		for i := 0; i+1 < len(f.Data); i += 2 {
			out = append(out, int16(binary.LittleEndian.Uint16(f.Data[i:])))
		}
	}
	return out
}

func near(a, b int16) bool { return a-b <= 1 && b-a <= 1 }

func TestResample_Passthrough(t *testing.T) {
	t.Parallel()

	log := &frameLog{}
	r := NewResample(log, 44100)
	in := pcmFrame(2, 44100, 1, 2, 3, 4)
	if err := r.WriteSamples(in); err != nil {
		t.Fatalf("WriteSamples() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if len(log.frames) != 1 || string(log.frames[0].Data) != string(in.Data) {
		t.Errorf("got %d frames, want the input forwarded unchanged", len(log.frames))
	}
	if log.closes != 1 {
		t.Errorf("next sink closed %d times, want 1", log.closes)
	}
}

func TestResample_Rates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to int
		inputs   int
		want     int
	}{
		{"upsample 2x", 8000, 16000, 4, 6},
		{"downsample 2x", 16000, 8000, 8, 4},
		{"single sample", 8000, 16000, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			samples := make([]int16, tt.inputs)
			for i := range samples {
				samples[i] = 1000
			}

			log := &frameLog{}
			r := NewResample(log, tt.to)
			if err := r.WriteSamples(pcmFrame(1, tt.from, samples...)); err != nil {
				t.Fatalf("WriteSamples() error = %v", err)
			}
			if err := r.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			got := log.samples()
			if len(got) != tt.want {
				t.Fatalf("got %d samples, want %d", len(got), tt.want)
			}
			for i, v := range got {
				if !near(v, 1000) {
					t.Errorf("sample %d = %d, want 1000", i, v)
				}
			}
			for _, f := range log.frames {
				if f.SampleRate != tt.to || f.Channels != 1 {
					t.Errorf("frame %d is %d ch at %d Hz", f.Index, f.Channels, f.SampleRate)
				}
			}
		})
	}
}

func TestResample_InterpolatesRamp(t *testing.T) {
	t.Parallel()

	log := &frameLog{}
	r := NewResample(log, 16000)
	if err := r.WriteSamples(pcmFrame(1, 8000, 0, 1000, 2000, 3000)); err != nil {
		t.Fatalf("WriteSamples() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got := log.samples()
	if len(got) != 6 {
		t.Fatalf("got %d samples, want 6", len(got))
	}
	for i, want := range map[int]int16{0: 0, 2: 1000, 3: 1500, 4: 2000} {
		if !near(got[i], want) {
			t.Errorf("sample %d = %d, want %d", i, got[i], want)
		}
	}
}

func TestResample_KeepsChannelsApart(t *testing.T) {
	t.Parallel()

	log := &frameLog{}
	r := NewResample(log, 22050)
	if err := r.WriteSamples(pcmFrame(2, 44100, 500, -500, 500, -500, 500, -500, 500, -500)); err != nil {
		t.Fatalf("WriteSamples() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got := log.samples()
	if len(got) != 4 {
		t.Fatalf("got %d samples, want 4", len(got))
	}
	for i := 0; i < len(got); i += 2 {
		if !near(got[i], 500) || !near(got[i+1], -500) {
			t.Errorf("frame %d = (%d, %d), want (500, -500)", i/2, got[i], got[i+1])
		}
	}
}

func TestResample_FormatChangeDrainsTail(t *testing.T) {
	t.Parallel()

	log := &frameLog{}
	r := NewResample(log, 16000)
	if err := r.WriteSamples(pcmFrame(1, 8000, 1000, 1000, 1000, 1000)); err != nil {
		t.Fatalf("WriteSamples() error = %v", err)
	}
	if got := len(log.samples()); got != 4 {
		t.Fatalf("after first frame: %d samples, want 4", got)
	}

	if err := r.WriteSamples(pcmFrame(2, 16000, 7, 8)); err != nil {
		t.Fatalf("WriteSamples() error = %v", err)
	}
	// The tail of the mono stream, then the stereo frame as is.
	if len(log.frames) != 3 || log.frames[1].Channels != 1 || log.frames[2].Channels != 2 {
		t.Fatalf("frames = %+v", log.frames)
	}
	for i, f := range log.frames {
		if f.Index != i {
			t.Errorf("frame %d has Index %d", i, f.Index)
		}
	}
}

func TestResample_Rejects(t *testing.T) {
	t.Parallel()

	if err := NewResample(&frameLog{}, 0).WriteSamples(pcmFrame(1, 8000, 1)); !errors.Is(err, ErrBadFormat) {
		t.Errorf("zero target rate error = %v, want %v", err, ErrBadFormat)
	}

	r := NewResample(&frameLog{}, 8000)
	if err := r.WriteSamples(pump.Frame{BitsPerSample: 8, Channels: 1, SampleRate: 8000}); !errors.Is(err, ErrUnsupportedDepth) {
		t.Errorf("8 bit error = %v, want %v", err, ErrUnsupportedDepth)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := r.WriteSamples(pcmFrame(1, 8000, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("after Close() error = %v, want %v", err, ErrClosed)
	}
}
