package capture

import "fmt"

// FormatError reports structural corruption of a capture. It is fatal to the
// whole parse: no partial event sequence is ever returned alongside it,
// since no statistic derived from a corrupt capture can be trusted.
type FormatError struct {
	// Offset is the byte offset at which decoding failed.
	// It is zero for the text form, where offsets are not meaningful.
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("malformed capture at offset %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed capture: %s", e.Reason)
}

func formatErrorf(offset int, format string, args ...any) error {
	return &FormatError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
