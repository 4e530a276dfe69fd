// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"fmt"
	"slices"

	"github.com/brunoga/deep"
)

// Result is what an action call returns to its caller.
//
// At most one outcome is present: Data, validation errors (main input
// and/or bind arguments), or ServerError. Absent outcomes are nil and are
// omitted from the JSON form, so callers can feature-detect on the keys.
// A result with none of them comes from a middleware that stopped the
// chain without calling Next.
type Result[T any] struct {
	Data                     *T    `json:"data,omitempty"`
	ValidationErrors         any   `json:"validationErrors,omitempty"`
	BindArgsValidationErrors []any `json:"bindArgsValidationErrors,omitempty"`
	ServerError              any   `json:"serverError,omitempty"`
}

// HasData reports whether the handler ran to completion.
func (r *Result[T]) HasData() bool {
	return r != nil && r.Data != nil
}

// HasValidationErrors reports whether the main input or any bind argument
// failed validation.
func (r *Result[T]) HasValidationErrors() bool {
	return r != nil && (r.ValidationErrors != nil || r.BindArgsValidationErrors != nil)
}

// HasServerError reports whether a server error payload is present.
func (r *Result[T]) HasServerError() bool {
	return r != nil && r.ServerError != nil
}

// FormattedValidationErrors returns the main input errors when they use the
// formatted shape.
func (r *Result[T]) FormattedValidationErrors() (*ErrorTree, bool) {
	if r == nil {
		return nil, false
	}
	tree, ok := r.ValidationErrors.(*ErrorTree)
	return tree, ok && tree != nil
}

// FlattenedValidationErrors returns the main input errors when they use the
// flattened shape.
func (r *Result[T]) FlattenedValidationErrors() (FlattenedErrors, bool) {
	if r == nil {
		return FlattenedErrors{}, false
	}
	flat, ok := r.ValidationErrors.(FlattenedErrors)
	return flat, ok
}

// cloneResult deep-copies a previous result before a stateful handler sees
// it. Unexported fields and the dynamic types of interface values survive
// the copy.
func cloneResult[T any](r Result[T]) (Result[T], error) {
	var out Result[T]
	var err error
	if out.ValidationErrors, err = cloneShaped(r.ValidationErrors); err != nil {
		return Result[T]{}, err
	}
	if out.ServerError, err = cloneShaped(r.ServerError); err != nil {
		return Result[T]{}, err
	}
	if r.Data != nil {
		if out.Data, err = deep.Copy(r.Data); err != nil {
			return Result[T]{}, fmt.Errorf("copy previous data: %w", err)
		}
	}
	if r.BindArgsValidationErrors != nil {
		out.BindArgsValidationErrors = make([]any, len(r.BindArgsValidationErrors))
		for i, v := range r.BindArgsValidationErrors {
			if out.BindArgsValidationErrors[i], err = cloneShaped(v); err != nil {
				return Result[T]{}, err
			}
		}
	}
	return out, nil
}

func cloneShaped(v any) (any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case *ErrorTree:
		return s.Clone(), nil
	case FlattenedErrors:
		return s.Clone(), nil
	case []string:
		return slices.Clone(s), nil
	default:
		copied, err := deep.Copy(v)
		if err != nil {
			return nil, fmt.Errorf("copy previous %T: %w", v, err)
		}
		return copied, nil
	}
}
