// Package capture defines the trace event model and the binary/text
// capture codecs.
package capture

import (
	"bytes"
	"fmt"
)

// Operation is the kind of a recorded event.
type Operation uint8

const (
	// OpEnter opens a named block on the recording thread.
	OpEnter Operation = 0
	// OpExit closes the most recently opened block on the recording thread.
	OpExit Operation = 1
	// OpNote is a zero-duration annotation.
	//
	// The documented operation codes are 0 and 1 only; code 2 is our
	// extension so that annotations survive the binary form.
	OpNote Operation = 2
)

func (op Operation) String() string {
	switch op {
	case OpEnter:
		return "enter"
	case OpExit:
		return "exit"
	case OpNote:
		return "note"
	default:
		return fmt.Sprintf("operation(%d)", uint8(op))
	}
}

// UnframedID is the frame id of events recorded outside any frame.
const UnframedID int32 = -1

// Event is one record of a capture.
//
// Event order must be trusted per thread: enter/exit matching relies on
// arrival order, not on timestamp order, so equal timestamps are legal.
type Event struct {
	Op        Operation
	ThreadID  uint64
	FrameID   int32
	Timestamp uint64
	Name      string
}

// Capture is a complete recorded event sequence for one profiling session.
// Timestamps are monotonic nanoseconds, comparable only within one capture.
type Capture struct {
	Events []Event
}

// Format selects a capture encoding.
type Format int

const (
	FormatAuto Format = iota
	FormatBinary
	FormatText
)

func ParseFormat(s string) (Format, error) {
	switch s {
	case "auto", "":
		return FormatAuto, nil
	case "binary", "bin":
		return FormatBinary, nil
	case "text", "json":
		return FormatText, nil
	default:
		return FormatAuto, fmt.Errorf("unknown capture format %q", s)
	}
}

// Decode parses a capture in the given format. FormatAuto sniffs the binary
// magic first and falls back to the text form.
func Decode(data []byte, format Format) (*Capture, error) {
	switch format {
	case FormatBinary:
		return DecodeBinary(data)
	case FormatText:
		return DecodeText(data)
	case FormatAuto:
		if hasBinaryMagic(data) {
			return DecodeBinary(data)
		}
		if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("[")) {
			return DecodeText(data)
		}
		return nil, &FormatError{Offset: 0, Reason: "unrecognized capture format"}
	default:
		return nil, fmt.Errorf("unknown capture format %d", format)
	}
}
