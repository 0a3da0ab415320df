package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// JSONLWriter streams events as JSON Lines, one record per line.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter wraps w as a sink.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

// Append writes the event as one JSON line and flushes it.
func (j *JSONLWriter) Append(ev Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("eventlog: encode event: %w", err)
	}
	if _, err := j.w.Write(line); err != nil {
		return fmt.Errorf("eventlog: write event: %w", err)
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("eventlog: write event: %w", err)
	}
	return j.w.Flush()
}

// ReadJSONL parses events back from a JSON Lines stream, in order.
func ReadJSONL(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("eventlog: line %d: invalid JSON: %w", lineNum, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("eventlog: reading stream: %w", err)
	}
	return events, nil
}
