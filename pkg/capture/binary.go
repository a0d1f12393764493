package capture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Binary capture layout, little-endian, unpadded:
//
//	[magic:uint32][count:uint32][count x record]
//	record = [op:uint8][threadID:uint64][frameID:int32][timestamp:uint64][name NUL-terminated]
const Magic uint32 = 0xFA57

const (
	headerSize      = 8
	recordFixedSize = 1 + 8 + 4 + 8
)

func hasBinaryMagic(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == Magic
}

// DecodeBinary parses a binary capture. Decoding is all-or-nothing: any
// structural violation yields a *FormatError and no events.
func DecodeBinary(data []byte) (*Capture, error) {
	if len(data) < headerSize {
		return nil, formatErrorf(len(data), "truncated header: got %d bytes, want %d", len(data), headerSize)
	}
	if magic := binary.LittleEndian.Uint32(data); magic != Magic {
		return nil, formatErrorf(0, "bad magic 0x%08X, want 0x%08X", magic, Magic)
	}
	count := binary.LittleEndian.Uint32(data[4:])
	// Every record takes at least the fixed part plus a name terminator, so
	// an honest count is bounded by the capture size.
	if int64(count)*(recordFixedSize+1) > int64(len(data)-headerSize) {
		return nil, formatErrorf(4, "event count %d exceeds capture size %d", count, len(data))
	}

	events := make([]Event, 0, count)
	off := headerSize
	for i := uint32(0); i < count; i++ {
		if len(data)-off < recordFixedSize {
			return nil, formatErrorf(off, "truncated record %d: %d bytes left, want at least %d", i, len(data)-off, recordFixedSize)
		}
		op := Operation(data[off])
		if op > OpNote {
			return nil, formatErrorf(off, "record %d: invalid operation code %d", i, data[off])
		}
		threadID := binary.LittleEndian.Uint64(data[off+1:])
		frameID := int32(binary.LittleEndian.Uint32(data[off+9:]))
		ts := binary.LittleEndian.Uint64(data[off+13:])
		off += recordFixedSize

		nul := bytes.IndexByte(data[off:], 0)
		if nul < 0 {
			return nil, formatErrorf(off, "record %d: unterminated name", i)
		}
		name := string(data[off : off+nul])
		off += nul + 1

		events = append(events, Event{
			Op:        op,
			ThreadID:  threadID,
			FrameID:   frameID,
			Timestamp: ts,
			Name:      name,
		})
	}
	if off != len(data) {
		return nil, formatErrorf(off, "%d trailing bytes after %d records", len(data)-off, count)
	}

	return &Capture{Events: events}, nil
}

// EncodeBinary serializes the capture in its binary form.
// The event order is preserved verbatim.
func EncodeBinary(c *Capture) ([]byte, error) {
	if len(c.Events) > math.MaxUint32 {
		return nil, fmt.Errorf("capture too large: %d events", len(c.Events))
	}

	size := headerSize
	for i := range c.Events {
		size += recordFixedSize + len(c.Events[i].Name) + 1
	}
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint32(buf, Magic)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Events)))
	for i := range c.Events {
		ev := &c.Events[i]
		if strings.IndexByte(ev.Name, 0) >= 0 {
			return nil, fmt.Errorf("event %d: name contains NUL byte", i)
		}
		buf = append(buf, byte(ev.Op))
		buf = binary.LittleEndian.AppendUint64(buf, ev.ThreadID)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(ev.FrameID))
		buf = binary.LittleEndian.AppendUint64(buf, ev.Timestamp)
		buf = append(buf, ev.Name...)
		buf = append(buf, 0)
	}

	return buf, nil
}
