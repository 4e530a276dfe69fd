// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// TraceEvent records one pipeline stage of a traced invocation.
type TraceEvent struct {
	// Names is the hierarchical stage path, starting with the action name.
	// For example: ["createUser", "middleware[0]", "middleware[1]", "handler"]
	Names []string `json:"stage_names"`

	// Start is when the stage began.
	Start time.Time `json:"start"`

	// Duration is how long the stage took, including nested stages.
	Duration time.Duration `json:"duration"`

	// Error is the error the stage returned, empty otherwise.
	Error string `json:"error,omitempty"`
}

// TraceOption configures trace behavior.
type TraceOption func(*traceOptions)

type traceOptions struct {
	streamTo io.Writer
}

// WithStreamTo streams events as JSON Lines to w as each stage completes.
//
// Events are still kept in memory. Write failures are ignored so tracing
// never breaks an action.
func WithStreamTo(w io.Writer) TraceOption {
	return func(opts *traceOptions) {
		opts.streamTo = w
	}
}

// Trace holds the stage events of every action invoked under a traced
// context.
type Trace struct {
	// Events in approximate start order.
	Events []TraceEvent

	// Start is when tracing was enabled.
	Start time.Time

	// TotalStages is the number of recorded events.
	TotalStages int

	// TotalErrors is the number of stages that returned an error.
	TotalErrors int
}

// trace is the collection infrastructure behind a [Trace].
type trace struct {
	mu       sync.Mutex
	streamTo io.Writer
	encoder  *json.Encoder
	result   *Trace
}

type eventIdx int

// WithTrace returns a context under which every action invocation records
// its pipeline stages into the returned [Trace].
//
// The stages follow the pipeline state machine: metadata validation, each
// middleware (nested in the previous one), input validation, the handler
// and output validation.
//
// Example:
//
//	ctx, tr := safeaction.WithTrace(ctx)
//	_, _ = createUser(ctx, input)
//	_, _ = tr.WriteText(os.Stdout)
//
//	// createUser (1.2ms)
//	//   metadata (2µs)
//	//   middleware[0] (1.1ms)
//	//     validation (40µs)
//	//     handler (1ms)
func WithTrace(ctx context.Context, opts ...TraceOption) (context.Context, *Trace) {
	options := traceOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	result := &Trace{
		Start:  time.Now(),
		Events: make([]TraceEvent, 0),
	}
	tr := &trace{
		streamTo: options.streamTo,
		result:   result,
	}
	if tr.streamTo != nil {
		tr.encoder = json.NewEncoder(tr.streamTo)
	}
	a := deriveActionCtx(ctx)
	a.trace = tr
	return a, result
}

func getTrace(ctx context.Context) *trace {
	if a := fromContext(ctx); a != nil {
		return a.trace
	}
	return nil
}

func (t *trace) newEvent(names []string) eventIdx {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := len(t.result.Events)
	t.result.Events = append(t.result.Events, TraceEvent{
		Names: names,
		Start: time.Now(),
	})
	t.result.TotalStages++
	return eventIdx(idx)
}

func (t *trace) recordFinish(idx eventIdx, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	event := &t.result.Events[idx]
	event.Duration = time.Since(event.Start)
	if err != nil {
		event.Error = err.Error()
		t.result.TotalErrors++
	}
	if t.streamTo != nil {
		_ = t.encoder.Encode(event)
	}
}

// traceStage runs fn as a traced stage when a trace is active in ctx.
func traceStage(ctx context.Context, names []string, fn func() error) error {
	tr := getTrace(ctx)
	if tr == nil {
		return fn()
	}
	idx := tr.newEvent(names)
	err := fn()
	tr.recordFinish(idx, err)
	return err
}

// stagePath appends name to a copy of parent.
func stagePath(parent []string, name string) []string {
	out := make([]string, len(parent), len(parent)+1)
	copy(out, parent)
	return append(out, name)
}
