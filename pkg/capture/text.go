package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Text capture layout: a JSON array of 5-element arrays
// [op, threadId, frameId, timestampNs, name].
// Array order is ingestion order and is preserved verbatim.

// DecodeText parses a text capture. Like DecodeBinary, it is all-or-nothing.
func DecodeText(data []byte) (*Capture, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rows [][]json.RawMessage
	if err := dec.Decode(&rows); err != nil {
		return nil, formatErrorf(0, "invalid text capture: %v", err)
	}

	events := make([]Event, 0, len(rows))
	for i, row := range rows {
		if len(row) != 5 {
			return nil, formatErrorf(0, "row %d: got %d elements, want 5", i, len(row))
		}

		op, err := decodeInt(row[0], 0, int64(OpNote))
		if err != nil {
			return nil, formatErrorf(0, "row %d: operation: %v", i, err)
		}
		threadID, err := decodeUint(row[1])
		if err != nil {
			return nil, formatErrorf(0, "row %d: thread id: %v", i, err)
		}
		frameID, err := decodeInt(row[2], math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, formatErrorf(0, "row %d: frame id: %v", i, err)
		}
		ts, err := decodeUint(row[3])
		if err != nil {
			return nil, formatErrorf(0, "row %d: timestamp: %v", i, err)
		}
		var name string
		if err := json.Unmarshal(row[4], &name); err != nil {
			return nil, formatErrorf(0, "row %d: name: %v", i, err)
		}

		events = append(events, Event{
			Op:        Operation(op),
			ThreadID:  threadID,
			FrameID:   int32(frameID),
			Timestamp: ts,
			Name:      name,
		})
	}

	return &Capture{Events: events}, nil
}

// EncodeText serializes the capture in its text form.
func EncodeText(c *Capture) ([]byte, error) {
	rows := make([][]any, 0, len(c.Events))
	for i := range c.Events {
		ev := &c.Events[i]
		rows = append(rows, []any{ev.Op, ev.ThreadID, ev.FrameID, ev.Timestamp, ev.Name})
	}
	return json.Marshal(rows)
}

func decodeInt(raw json.RawMessage, min, max int64) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, fmt.Errorf("value %d out of range [%d, %d]", v, min, max)
	}
	return v, nil
}

func decodeUint(raw json.RawMessage) (uint64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return strconv.ParseUint(n.String(), 10, 64)
}
