// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
	"fmt"
	"maps"

	"dario.cat/mergo"
)

// Ctx is the execution context accumulated by the middleware chain.
//
// Each invocation starts from an empty Ctx. A middleware passes the Ctx for
// the next stage to [MiddlewareArgs.Next]; that value replaces the previous
// one, so a middleware that wants to keep earlier keys must carry them over
// itself, usually with [Ctx.With] or [MergeCtx].
type Ctx map[string]any

// With returns a new Ctx holding the keys of c overlaid with extra.
// Neither c nor extra is modified.
func (c Ctx) With(extra Ctx) Ctx {
	out := make(Ctx, len(c)+len(extra))
	maps.Copy(out, c)
	maps.Copy(out, extra)
	return out
}

// MergeCtx deep-merges extra into a copy of base. Nested maps are merged
// key by key; other values in extra override those in base.
func MergeCtx(base, extra Ctx) (Ctx, error) {
	out := cloneCtx(base)
	if err := mergo.Merge(&out, cloneCtx(extra), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge ctx: %w", err)
	}
	return out, nil
}

// cloneCtx copies c along with any nested maps, so merging never writes
// into maps owned by an earlier stage.
func cloneCtx(c Ctx) Ctx {
	out := make(Ctx, len(c))
	for k, v := range c {
		out[k] = cloneNested(v)
	}
	return out
}

func cloneNested(v any) any {
	switch m := v.(type) {
	case Ctx:
		return cloneCtx(m)
	case map[string]any:
		return map[string]any(cloneCtx(m))
	default:
		return v
	}
}

// Value returns the value stored under key if it has type T.
func Value[T any](c Ctx, key string) (T, bool) {
	v, ok := c[key].(T)
	return v, ok
}

// NextFunc continues the middleware chain with the given Ctx and returns the
// downstream result. Passing nil gives the next stage an empty Ctx.
type NextFunc func(ctx context.Context, next Ctx) (*MiddlewareResult, error)

// MiddlewareArgs is what a [Middleware] receives.
type MiddlewareArgs[M any] struct {
	ClientInput          any
	BindArgsClientInputs []any
	Ctx                  Ctx
	Metadata             M
	Next                 NextFunc
}

// A Middleware wraps the rest of the action pipeline.
//
// Calling args.Next runs the remaining middleware, input validation and the
// handler, and returns the resulting [MiddlewareResult]. A middleware that
// never calls Next short-circuits the chain: nothing downstream runs and the
// action resolves without data.
//
// Returning an error is equivalent to throwing: navigation signals are
// propagated, [ServerValidationError] values become validation errors, and
// anything else becomes a server error. An error returned after Next has
// produced a result replaces that result.
//
// A middleware normally returns the result it got from Next, possibly after
// inspecting or modifying it. Returning a different non-nil result replaces
// the downstream outcome.
//
// Example:
//
//	auth := func(ctx context.Context, args safeaction.MiddlewareArgs[Meta]) (*safeaction.MiddlewareResult, error) {
//	    user, err := sessions.Lookup(ctx)
//	    if err != nil {
//	        return nil, safeaction.Unauthorized()
//	    }
//	    return args.Next(ctx, args.Ctx.With(safeaction.Ctx{"user": user}))
//	}
type Middleware[M any] func(ctx context.Context, args MiddlewareArgs[M]) (*MiddlewareResult, error)

// MiddlewareResult is the per-invocation outcome seen by middleware.
//
// It is created fresh for every call, filled in by the innermost stage and
// handed back up through each middleware's Next.
type MiddlewareResult struct {
	Success                  bool           `json:"success"`
	Ctx                      Ctx            `json:"ctx,omitempty"`
	ParsedInput              any            `json:"parsedInput,omitempty"`
	BindArgsParsedInputs     []any          `json:"bindArgsParsedInputs,omitempty"`
	Data                     any            `json:"data,omitempty"`
	ValidationErrors         any            `json:"validationErrors,omitempty"`
	BindArgsValidationErrors []any          `json:"bindArgsValidationErrors,omitempty"`
	ServerError              any            `json:"serverError,omitempty"`
	NavigationKind           NavigationKind `json:"navigationKind,omitempty"`

	hasData bool
}

// HasData reports whether the handler completed and produced data.
func (r *MiddlewareResult) HasData() bool {
	return r != nil && (r.hasData || r.Data != nil)
}

// resetOutcome clears every terminal outcome so that a newly classified
// error is the only one present.
func (r *MiddlewareResult) resetOutcome() {
	r.Success = false
	r.Data = nil
	r.hasData = false
	r.ValidationErrors = nil
	r.BindArgsValidationErrors = nil
	r.ServerError = nil
}
