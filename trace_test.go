// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
)

// traceValidator checks a property of a collected trace.
type traceValidator func(*Trace) error

func expectEvents(n int) traceValidator {
	return func(tr *Trace) error {
		if len(tr.Events) != n || tr.TotalStages != n {
			return fmt.Errorf("expected %d events, got %d (total %d)", n, len(tr.Events), tr.TotalStages)
		}
		return nil
	}
}

func expectEventPath(idx int, path ...string) traceValidator {
	return func(tr *Trace) error {
		if idx >= len(tr.Events) {
			return fmt.Errorf("no event at index %d", idx)
		}
		if got := tr.Events[idx].Names; !slices.Equal(got, path) {
			return fmt.Errorf("event %d: expected path %v, got %v", idx, path, got)
		}
		return nil
	}
}

func expectErrorCount(n int) traceValidator {
	return func(tr *Trace) error {
		if tr.TotalErrors != n {
			return fmt.Errorf("expected %d errors, got %d", n, tr.TotalErrors)
		}
		return nil
	}
}

func runTraceTest(t *testing.T, action ActionFunc[okResult], args []any, validators ...traceValidator) *Trace {
	t.Helper()
	ctx, tr := WithTrace(t.Context())
	_, _ = action(ctx, args...)
	for _, validator := range validators {
		if err := validator(tr); err != nil {
			t.Error(err)
		}
	}
	return tr
}

func TestWithTrace(t *testing.T) {
	t.Parallel()

	roleRequired := SchemaFunc[testMeta](func(_ context.Context, data any) (testMeta, []Issue, error) {
		return data.(testMeta), nil, nil
	})

	testCases := []struct {
		name       string
		action     ActionFunc[okResult]
		args       []any
		validators []traceValidator
	}{
		{
			name:   "no middleware",
			action: Action(quietClient().Named("plain"), okHandler[any]),
			validators: []traceValidator{
				expectEvents(3),
				expectEventPath(0, "plain"),
				expectEventPath(1, "plain", "validation"),
				expectEventPath(2, "plain", "handler"),
			},
		},
		{
			name: "nested middleware",
			action: Action(
				quietClient().Named("nested").Use(ctxSetter(Ctx{"a": 1}), ctxSetter(Ctx{"b": 2})),
				okHandler[any],
			),
			validators: []traceValidator{
				expectEvents(5),
				expectEventPath(1, "nested", "middleware[0]"),
				expectEventPath(2, "nested", "middleware[0]", "middleware[1]"),
				expectEventPath(3, "nested", "middleware[0]", "middleware[1]", "validation"),
				expectEventPath(4, "nested", "middleware[0]", "middleware[1]", "handler"),
				expectErrorCount(0),
			},
		},
		{
			name: "metadata and output stages",
			action: Action(
				quietClient().Named("full").DefineMetadataSchema(roleRequired).OutputSchema(Bind(SchemaFunc[okResult](
					func(_ context.Context, data any) (okResult, []Issue, error) {
						return data.(okResult), nil, nil
					},
				))),
				okHandler[any],
			),
			validators: []traceValidator{
				expectEvents(5),
				expectEventPath(1, "full", "metadata"),
				expectEventPath(4, "full", "output"),
			},
		},
		{
			name:   "handler error",
			action: Action(quietClient().Named("failing"), failingHandler[any](error1)),
			validators: []traceValidator{
				expectEvents(3),
				expectErrorCount(1),
			},
		},
		{
			name:   "validation failure skips handler",
			action: Action(InputSchema(quietClient().Named("invalid"), signUpSchema), okHandler[signUp]),
			args:   []any{map[string]any{}},
			validators: []traceValidator{
				expectEvents(2),
				expectEventPath(1, "invalid", "validation"),
				expectErrorCount(0),
			},
		},
		{
			name:   "navigation propagates through stages",
			action: Action(quietClient().Named("nav").Use(ctxSetter(nil)), failingHandler[any](NotFound())),
			validators: []traceValidator{
				expectEvents(4),
				// handler, middleware[0] and the root all report the signal
				expectErrorCount(3),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			runTraceTest(t, tc.action, tc.args, tc.validators...)
		})
	}
}

func TestTraceDisabled(t *testing.T) {
	t.Parallel()
	if getTrace(t.Context()) != nil {
		t.Fatal("expected no trace without WithTrace")
	}
	called := false
	err := traceStage(t.Context(), []string{"x"}, func() error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("stage should run untraced, err=%v called=%v", err, called)
	}
}

func TestTraceThreadSafety(t *testing.T) {
	t.Parallel()
	ctx, tr := WithTrace(t.Context())
	action := Action(quietClient().Named("concurrent"), okHandler[any])

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = action(ctx)
		}()
	}
	wg.Wait()

	if tr.TotalStages != 60 {
		t.Errorf("expected 60 stages, got %d", tr.TotalStages)
	}
}

func TestTraceStreaming(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx, tr := WithTrace(t.Context(), WithStreamTo(&buf))
	_, _ = Action(quietClient().Named("streamed"), failingHandler[any](error1))(ctx)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 JSON lines, got %d", len(lines))
	}
	// stages finish innermost first
	var first TraceEvent
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if !slices.Equal(first.Names, []string{"streamed", "validation"}) {
		t.Errorf("got %v", first.Names)
	}
	var handler TraceEvent
	if err := json.Unmarshal([]byte(lines[1]), &handler); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if handler.Error != "error 1" {
		t.Errorf("expected handler error in stream, got %q", handler.Error)
	}
	if len(tr.Events) != 3 {
		t.Errorf("expected events in memory too, got %d", len(tr.Events))
	}
}

func TestStagePath(t *testing.T) {
	t.Parallel()
	parent := make([]string, 1, 4)
	parent[0] = "root"
	a := stagePath(parent, "a")
	b := stagePath(parent, "b")
	if a[1] != "a" || b[1] != "b" {
		t.Errorf("sibling paths share storage: %v %v", a, b)
	}
}
