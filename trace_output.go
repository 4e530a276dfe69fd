// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteTo serializes the trace events as a pretty-printed JSON array.
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(t.Events, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal trace: %w", err)
	}
	data = append(data, '\n')
	n, err := w.Write(data)
	if err != nil {
		return int64(n), fmt.Errorf("failed to write trace: %w", err)
	}
	return int64(n), nil
}

// WriteText outputs a tree view of the trace, indenting each stage by its
// nesting depth.
//
// Example output:
//
//	createUser (1.2ms)
//	  metadata (2µs)
//	  middleware[0] (1.1ms)
//	    validation (40µs)
//	    handler (1ms) [ERROR: boom]
//
// Concurrent invocations under one traced context interleave their events;
// use [Trace.WriteFlatText] for those.
func (t *Trace) WriteText(w io.Writer) (int64, error) {
	return t.writeLines(w, func(event TraceEvent) string {
		depth := len(event.Names)
		if depth > 0 {
			depth--
		}
		name := "<unknown>"
		if len(event.Names) > 0 {
			name = event.Names[len(event.Names)-1]
		}
		return strings.Repeat("  ", depth) + name
	})
}

// WriteFlatText outputs one line per event with the full stage path.
//
// Example output:
//
//	createUser (1.2ms)
//	createUser > metadata (2µs)
//	createUser > middleware[0] (1.1ms)
func (t *Trace) WriteFlatText(w io.Writer) (int64, error) {
	return t.writeLines(w, func(event TraceEvent) string {
		if len(event.Names) == 0 {
			return "<unknown>"
		}
		return strings.Join(event.Names, " > ")
	})
}

func (t *Trace) writeLines(w io.Writer, label func(TraceEvent) string) (int64, error) {
	var total int64
	for _, event := range t.Events {
		line := fmt.Sprintf("%s (%s)", label(event), event.Duration)
		if event.Error != "" {
			line += fmt.Sprintf(" [ERROR: %s]", event.Error)
		}
		n, err := io.WriteString(w, line+"\n")
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("failed to write text: %w", err)
		}
	}
	return total, nil
}
