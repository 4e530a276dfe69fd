// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
)

// Issue is a single schema failure, normalized by a [Schema] adapter.
//
// Path segments are either strings (object keys) or ints (array indices).
// An empty path attaches the message to the root of the input.
type Issue struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// A Schema validates untrusted data and produces a parsed value.
//
// Validate must not return an error for malformed input: failures of the
// input itself are reported as issues. A non-nil error means the schema
// engine (or whatever constructed the schema) failed, and the pipeline
// treats it as a server error rather than a validation error.
//
// Adapters for concrete validation libraries implement this interface; see
// the adapters/playground package for go-playground/validator.
type Schema[T any] interface {
	Validate(ctx context.Context, data any) (T, []Issue, error)
}

// AnySchema is a [Schema] whose output type has been erased.
//
// Bind argument and output schemas are stored erased, since their types
// are not tracked by the [Client] type parameters.
type AnySchema = Schema[any]

// SchemaFunc adapts an ordinary function into a [Schema].
//
// Example:
//
//	positive := safeaction.SchemaFunc[int](func(_ context.Context, data any) (int, []safeaction.Issue, error) {
//	    n, ok := data.(int)
//	    if !ok || n <= 0 {
//	        return 0, []safeaction.Issue{{Message: "Number must be greater than 0"}}, nil
//	    }
//	    return n, nil, nil
//	})
type SchemaFunc[T any] func(ctx context.Context, data any) (T, []Issue, error)

// Validate implements [Schema].
func (f SchemaFunc[T]) Validate(ctx context.Context, data any) (T, []Issue, error) {
	return f(ctx, data)
}

// Bind erases the output type of a schema so that it can be used as a bind
// argument or output schema.
//
// Example:
//
//	client.BindArgsSchemas(
//	    safeaction.Bind(positiveNumber),
//	    safeaction.Bind(uuidString),
//	)
func Bind[T any](s Schema[T]) AnySchema {
	if s == nil {
		return nil
	}
	if erased, ok := any(s).(AnySchema); ok {
		return erased
	}
	return erasedSchema[T]{inner: s}
}

type erasedSchema[T any] struct {
	inner Schema[T]
}

func (e erasedSchema[T]) Validate(ctx context.Context, data any) (any, []Issue, error) {
	v, issues, err := e.inner.Validate(ctx, data)
	if err != nil || len(issues) > 0 {
		return nil, issues, err
	}
	return v, nil, nil
}
