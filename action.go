// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
)

// HandlerArgs is what an action handler receives.
type HandlerArgs[M, In any] struct {
	// ParsedInput is the main input as produced by the input schema, or the
	// zero value when the client has no input schema.
	ParsedInput In
	// ClientInput is the raw main input.
	ClientInput any

	BindArgsParsedInputs []any
	BindArgsClientInputs []any

	// Ctx is the Ctx the last middleware passed to Next.
	Ctx      Ctx
	Metadata M
}

// A Handler implements an action.
//
// Returning an error is equivalent to throwing: see [Middleware] for how
// errors are classified.
type Handler[M, In, Out any] func(ctx context.Context, args HandlerArgs[M, In]) (Out, error)

// StateArgs carries the previous result into a stateful handler.
type StateArgs[Out any] struct {
	// PrevResult is a deep copy of the result the caller passed in.
	PrevResult Result[Out]
}

// A StateHandler implements a stateful action.
type StateHandler[M, In, Out any] func(ctx context.Context, args HandlerArgs[M, In], state StateArgs[Out]) (Out, error)

// ActionFunc is the callable produced by [Action].
//
// Positional args are the bind arguments followed by the main input; a
// missing trailing main input is treated as nil. The error return is used
// only for configuration errors, navigation signals, re-thrown server
// errors and thrown validation errors. Every other failure is reported in
// the result.
type ActionFunc[Out any] func(ctx context.Context, args ...any) (*Result[Out], error)

// StateActionFunc is the callable produced by [StateAction]. prev is the
// result of the previous call, or the zero Result on the first call.
type StateActionFunc[Out any] func(ctx context.Context, prev Result[Out], args ...any) (*Result[Out], error)

// CallbackArgs is what the [ActionOptions] callbacks receive.
type CallbackArgs[Out any] struct {
	// Result is nil when the call does not return a result.
	Result *Result[Out]
	// Err is the navigation signal or the error the call returns.
	Err error

	ClientInput          any
	BindArgsClientInputs []any
	ParsedInput          any
	BindArgsParsedInputs []any
	Ctx                  Ctx
	Metadata             any
	NavigationKind       NavigationKind
}

// ActionOptions are per-action settings and server-side callbacks.
//
// Callbacks run before the action call returns. On navigation only
// OnNavigation and OnSettled run, before the signal is returned.
type ActionOptions[Out any] struct {
	OnSuccess    func(ctx context.Context, args CallbackArgs[Out])
	OnError      func(ctx context.Context, args CallbackArgs[Out])
	OnNavigation func(ctx context.Context, args CallbackArgs[Out])
	OnSettled    func(ctx context.Context, args CallbackArgs[Out])

	// ThrowServerError returns the original error from the call after it
	// was logged and mapped, instead of a result with ServerError.
	ThrowServerError bool

	// ThrowValidationErrors returns a [*ValidationError] instead of a result
	// with validation errors. The client option enables it for all actions.
	ThrowValidationErrors bool

	// ValidationErrorsMessage overrides the message of the thrown
	// [*ValidationError].
	ValidationErrorsMessage func(validationErrors any, bindArgsValidationErrors []any) string
}

// Action materializes the client into a callable action.
//
// Example:
//
//	type SignUp struct {
//	    Username string `json:"username" validate:"required,min=3"`
//	}
//
//	signUp := safeaction.Action(
//	    safeaction.InputSchema(client, playground.Struct[SignUp]()),
//	    func(ctx context.Context, args safeaction.HandlerArgs[Meta, SignUp]) (User, error) {
//	        return users.Create(ctx, args.ParsedInput.Username)
//	    },
//	)
//
//	result, err := signUp(ctx, map[string]any{"username": "jo"})
func Action[M, In, Out any](c *Client[M, In], handler Handler[M, In, Out], opts ...ActionOptions[Out]) ActionFunc[Out] {
	def := newDefinition(c, resolveName(c.name, handler), opts)
	return func(ctx context.Context, args ...any) (*Result[Out], error) {
		return def.execute(ctx, handler, args)
	}
}

// StateAction materializes the client into a stateful action whose handler
// also receives a deep copy of the previous result. A previous result that
// cannot be copied, such as one holding a func, fails the call with a server
// error before the handler runs.
func StateAction[M, In, Out any](c *Client[M, In], handler StateHandler[M, In, Out], opts ...ActionOptions[Out]) StateActionFunc[Out] {
	def := newDefinition(c, resolveName(c.name, handler), opts)
	return func(ctx context.Context, prev Result[Out], args ...any) (*Result[Out], error) {
		prevCopy, cloneErr := cloneResult(prev)
		return def.execute(ctx, func(ctx context.Context, args HandlerArgs[M, In]) (Out, error) {
			if cloneErr != nil {
				var zero Out
				return zero, cloneErr
			}
			return handler(ctx, args, StateArgs[Out]{PrevResult: prevCopy})
		}, args)
	}
}

// definition is the materialized, read-only form of a client.
type definition[M, In, Out any] struct {
	client *Client[M, In]
	name   string
	opts   ActionOptions[Out]
}

func newDefinition[M, In, Out any](c *Client[M, In], name string, opts []ActionOptions[Out]) *definition[M, In, Out] {
	def := &definition[M, In, Out]{client: c.clone(), name: name}
	if len(opts) > 0 {
		def.opts = opts[0]
	}
	return def
}

func (d *definition[M, In, Out]) throwValidationErrors() bool {
	return d.opts.ThrowValidationErrors || d.client.opts.ThrowValidationErrors
}
