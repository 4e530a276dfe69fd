// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestValidateInputs(t *testing.T) {
	t.Parallel()

	classifier := DefaultClassifier{}

	t.Run("CollectsPositionally", func(t *testing.T) {
		t.Parallel()
		v, err := validateInputs[signUp](t.Context(), classifier, signUpSchema, map[string]any{"username": "jo"},
			[]AnySchema{Bind(positiveNumber), nil, Bind(uuidString)},
			[]any{3, "raw", "nope"},
		)
		if err := isNil(err); err != nil {
			t.Fatal(err)
		}
		if !v.failed() {
			t.Fatal("expected failure")
		}
		if !reflect.DeepEqual(v.bindParsed[:2], []any{3, "raw"}) {
			t.Errorf("got %v", v.bindParsed)
		}
		trees := v.bindTrees()
		if len(trees) != 3 || !trees[0].IsEmpty() || !trees[1].IsEmpty() || trees[2].IsEmpty() {
			t.Errorf("unexpected trees %v", trees)
		}
		if len(v.inputIssues) != 1 {
			t.Errorf("expected 1 input issue, got %v", v.inputIssues)
		}
	})

	t.Run("NoBindFailuresYieldNoTrees", func(t *testing.T) {
		t.Parallel()
		v, err := validateInputs[any](t.Context(), classifier, nil, nil, []AnySchema{Bind(positiveNumber)}, []any{1})
		if err != nil {
			t.Fatal(err)
		}
		if v.failed() || v.bindTrees() != nil {
			t.Error("expected success")
		}
	})

	t.Run("RunsConcurrently", func(t *testing.T) {
		t.Parallel()
		var inFlight, peak atomic.Int32
		slow := Bind(SchemaFunc[any](func(context.Context, any) (any, []Issue, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			return nil, nil, nil
		}))
		_, err := validateInputs[any](t.Context(), classifier, slow, nil, []AnySchema{slow, slow}, []any{nil, nil})
		if err != nil {
			t.Fatal(err)
		}
		if peak.Load() < 2 {
			t.Errorf("expected concurrent validation, peak=%d", peak.Load())
		}
	})

	t.Run("EngineErrors", func(t *testing.T) {
		t.Parallel()
		_, err := validateInputs[any](t.Context(), classifier, nil, nil,
			[]AnySchema{Bind(positiveNumber), Bind(brokenSchema[int](error2))}, []any{1, 2})
		var indexed *IndexedError
		if !errors.As(err, &indexed) || indexed.Index != 1 {
			t.Errorf("expected IndexedError at 1, got %v", err)
		}
		if err := matches(error2)(err); err != nil {
			t.Error(err)
		}

		_, err = validateInputs[signUp](t.Context(), classifier, brokenSchema[signUp](error1), nil, nil, nil)
		if err := all(matches(error1), contains("input schema"))(err); err != nil {
			t.Error(err)
		}
	})

	t.Run("PanicsAreRecovered", func(t *testing.T) {
		t.Parallel()
		panicky := SchemaFunc[any](func(context.Context, any) (any, []Issue, error) {
			panic("schema bug")
		})
		_, err := validateInputs[any](t.Context(), classifier, panicky, nil, nil, nil)
		var rp *RecoveredPanic
		if !errors.As(err, &rp) {
			t.Errorf("expected RecoveredPanic, got %v", err)
		}
	})
}

func TestBind(t *testing.T) {
	t.Parallel()

	if Bind[int](nil) != nil {
		t.Error("nil schema should stay nil")
	}
	erased := Bind(positiveNumber)
	if Bind(erased) == nil {
		t.Error("erased schema should pass through")
	}
	v, issues, err := erased.Validate(t.Context(), 4)
	if err != nil || len(issues) != 0 || v != 4 {
		t.Errorf("got %v %v %v", v, issues, err)
	}
	v, issues, _ = erased.Validate(t.Context(), -1)
	if v != nil || len(issues) != 1 {
		t.Errorf("failed validation should yield nil data, got %v %v", v, issues)
	}
}
