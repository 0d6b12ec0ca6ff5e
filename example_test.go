// SPDX-License-Identifier: EPL-2.0

package aacpump_test

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ik5/aacpump"
	"github.com/ik5/aacpump/engine"
	"github.com/ik5/aacpump/internal/enginetest"
	"github.com/ik5/aacpump/pump"
	"github.com/ik5/aacpump/sink"
)

// ExampleDetect shows format detection from the first bytes of a stream.
func ExampleDetect() {
	streams := [][]byte{
		enginetest.Frame(2, []byte("payload")),
		[]byte("OggS\x00\x02........"),
		[]byte("ID3\x04\x00\x00\x00\x00\x00\x00"),
	}
	for _, s := range streams {
		_, format, err := aacpump.Detect(bytes.NewReader(s))
		fmt.Println(format, err)
	}
	// Output:
	// aac <nil>
	// ogg <nil>
	// mp3 <nil>
}

// ExampleDecodeWith decodes with a custom registry into a mono sink.
func ExampleDecodeWith() {
	eng := &enginetest.Engine{}
	reg := engine.NewRegistry()
	reg.Register(engine.FormatAAC, pump.TransportADTS, eng.Open)

	stream := enginetest.Concat(
		enginetest.SizedFrame(2, 2048, 1),
		enginetest.SizedFrame(2, 2048, 2),
	)

	var pcm bytes.Buffer
	stats, err := aacpump.DecodeWith(context.Background(), reg, bytes.NewReader(stream),
		sink.NewDownmix(sink.NewRaw(&pcm)), "")
	if err != nil {
		fmt.Println("decode failed:", err)
		return
	}

	fmt.Printf("Frames: %d\n", stats.FramesDecoded)
	fmt.Printf("Mono PCM bytes: %d\n", pcm.Len())
	// Output:
	// Frames: 2
	// Mono PCM bytes: 4096
}
