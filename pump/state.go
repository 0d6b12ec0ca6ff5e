// SPDX-License-Identifier: EPL-2.0

package pump

// State is the pump's position in its lifecycle.
type State int

const (
	// StateStreaming: the source may still have bytes.
	StateStreaming State = iota
	// StateDraining: the source is exhausted but staged bytes remain.
	StateDraining
	// StateFlushing: staged bytes are gone; frames buffered inside the
	// engine are being emitted.
	StateFlushing
	// StateTerminated: the run is over.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateFlushing:
		return "flushing"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Stats counts what a run did.
type Stats struct {
	Iterations    int
	Reads         int
	BytesRead     int64
	Fills         int
	FramesDecoded int
	DecodeErrors  int
	SinkWrites    int
	SinkErrors    int
	BytesWritten  int64
	State         State
}
