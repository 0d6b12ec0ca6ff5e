// SPDX-License-Identifier: EPL-2.0

// Package pump drives a compressed audio stream through a decoder engine and
// into a PCM sink, one frame at a time, through a bounded staging buffer.
//
// # Cycle
//
// The pump reads up to Capacity bytes from the source, then loops while the
// staging buffer holds unconsumed bytes:
//
//  1. Fill: hand the unconsumed bytes to the engine, which reports how many
//     it did not take (the residual).
//  2. Decode: ask the engine for one frame.
//  3. Drain: size the frame from the engine's StreamInfo and forward exactly
//     that many bytes to the sink.
//  4. Refill: once the residual reaches zero, read the next Capacity bytes
//     over the start of the buffer.
//
// Residual bytes are never moved; the engine sees the same tail again on the
// next Fill. Once the source is exhausted and the staging buffer is empty,
// the engine is flushed so frames it buffered internally still reach the
// sink.
//
// # Errors
//
// A fill failure ends the run. A decode failure is logged, counted and
// skipped. A sink failure ends the run unless WithContinueOnSinkError is set.
// Teardown always runs and closes the engine, the source and the sink:
//
//	p, err := pump.New(file, sink.NewWAV(out), fdkaac.Open)
//	if err != nil {
//	    return err // errors.Is(err, pump.ErrResource)
//	}
//	stats, err := p.Run(ctx)
//
// # Concurrency
//
// A Pump is single-threaded and runs once. The engine is only ever called
// from the goroutine running Run.
package pump
