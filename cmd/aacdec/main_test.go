// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestRun_Usage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no arguments", nil, exitUsage},
		{"one path", []string{"in.aac"}, exitUsage},
		{"bad aot", []string{"-t", "7", "in.aac", "out.wav"}, exitUsage},
		{"bad afterburner", []string{"-a", "2", "in.aac", "out.wav"}, exitUsage},
		{"bad vbr", []string{"-v", "9", "in.aac", "out.wav"}, exitUsage},
		{"bad rate", []string{"-rate", "-8000", "in.aac", "out.wav"}, exitUsage},
		{"bad capacity", []string{"-capacity", "0", "in.aac", "out.wav"}, exitUsage},
		{"bad log level", []string{"-log-level", "loud", "in.aac", "out.wav"}, exitUsage},
		{"bad format", []string{"-format", "flac", "in.aac", "out.wav"}, exitUsage},
		{"unknown flag", []string{"-x", "in.aac", "out.wav"}, exitUsage},
		{"help", []string{"-h"}, exitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stderr bytes.Buffer
			if got := run(context.Background(), tt.args, &stderr); got != tt.want {
				t.Errorf("run(%q) = %d, want %d; stderr:\n%s", tt.args, got, tt.want, stderr.String())
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	o, err := parseFlags([]string{"-t", "29", "-r", "48000", "-format", "MP3", "-mono", "-raw", "-rate", "8000", "a.bin", "b.pcm"}, &stderr)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if o.aot != 29 || o.bitrate != 48000 || o.format != "mp3" || !o.mono || !o.raw || o.rate != 8000 {
		t.Errorf("parseFlags() = %+v", o)
	}
	if o.in != "a.bin" || o.out != "b.pcm" {
		t.Errorf("paths = %q, %q", o.in, o.out)
	}
}

func TestRun_MissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var stderr bytes.Buffer
	code := run(context.Background(), []string{filepath.Join(dir, "missing.aac"), filepath.Join(dir, "out.wav")}, &stderr)
	if code != exitFail {
		t.Errorf("run() = %d, want %d", code, exitFail)
	}
}

func TestRun_UndetectableInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(in, []byte("not an audio file at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	if code := run(context.Background(), []string{in, filepath.Join(dir, "out.wav")}, &stderr); code != exitFail {
		t.Errorf("run() = %d, want %d", code, exitFail)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "silence.mp3")
	out := filepath.Join(dir, "silence.wav")
	logFile := filepath.Join(dir, "aacdec.log")
	if err := os.WriteFile(in, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-log-file", logFile, in, out}, &stderr); code != exitOK {
		t.Fatalf("run() = %d, want %d; stderr:\n%s", code, exitOK, stderr.String())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if !wav.NewDecoder(f).IsValidFile() {
		t.Error("output is not a valid WAV file")
	}

	if info, err := os.Stat(logFile); err != nil || info.Size() == 0 {
		t.Errorf("log file not written: %v", err)
	}
}
