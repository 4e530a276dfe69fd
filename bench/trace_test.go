// SPDX-License-Identifier: Apache-2.0

package safeaction_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/sam-fredrickson/safeaction"
)

// Benchmark an action without tracing (baseline).
func BenchmarkActionWithoutTrace(b *testing.B) {
	action := safeaction.Action(newClient(3), placeOrder)
	order := Order{SKU: "abc", Quantity: 2}
	ctx := b.Context()

	for b.Loop() {
		if _, err := action(ctx, order); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark an action with tracing enabled.
func BenchmarkActionWithTrace(b *testing.B) {
	action := safeaction.Action(newClient(3), placeOrder)
	order := Order{SKU: "abc", Quantity: 2}

	for b.Loop() {
		ctx, _ := safeaction.WithTrace(b.Context())
		if _, err := action(ctx, order); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark tracing with streaming to a writer.
func BenchmarkActionWithStreamingTrace(b *testing.B) {
	action := safeaction.Action(newClient(3), placeOrder)
	order := Order{SKU: "abc", Quantity: 2}

	for b.Loop() {
		ctx, _ := safeaction.WithTrace(b.Context(), safeaction.WithStreamTo(io.Discard))
		if _, err := action(ctx, order); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark rendering a trace as text.
func BenchmarkTraceWriteText(b *testing.B) {
	action := safeaction.Action(newClient(10), placeOrder)
	ctx, trace := safeaction.WithTrace(b.Context())
	if _, err := action(ctx, Order{SKU: "abc", Quantity: 2}); err != nil {
		b.Fatal(err)
	}
	var buf bytes.Buffer

	for b.Loop() {
		buf.Reset()
		if _, err := trace.WriteText(&buf); err != nil {
			b.Fatal(err)
		}
	}
}

func TestTraceCoversStages(t *testing.T) {
	action := safeaction.Action(newClient(2), placeOrder)
	ctx, trace := safeaction.WithTrace(t.Context())
	if _, err := action(ctx, Order{SKU: "abc", Quantity: 2}); err != nil {
		t.Fatal(err)
	}

	// action, three middleware, validation, handler
	if trace.TotalStages != 6 {
		var buf bytes.Buffer
		_, _ = trace.WriteFlatText(&buf)
		t.Errorf("got %d stages:\n%s", trace.TotalStages, buf.String())
	}
	if trace.TotalErrors != 0 {
		t.Errorf("got %d errors", trace.TotalErrors)
	}
}
