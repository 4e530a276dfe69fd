// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
	"errors"
	"fmt"
)

// invocation is the per-call state of the pipeline. It is never shared
// between calls.
type invocation[M, In, Out any] struct {
	def        *definition[M, In, Out]
	handler    Handler[M, In, Out]
	classifier Classifier

	clientInput any
	bindInputs  []any
	metadata    M

	acc MiddlewareResult

	// escape is the error that must leave the pipeline: a control-flow
	// signal, or a server error that was re-thrown.
	escape    error
	navigated bool
	// signal marks escape as a host-framework error that is not navigation.
	signal bool
	// rethrown marks escape as a re-thrown server error, which a later
	// unrelated error may still replace.
	rethrown bool
}

// execute runs one call of the action:
//
//	metadata -> middleware[0..n-1] -> validation -> handler -> output -> result
//
// Configuration errors, control-flow signals and re-thrown errors are
// returned as errors; every other outcome is a result.
func (d *definition[M, In, Out]) execute(ctx context.Context, handler Handler[M, In, Out], args []any) (*Result[Out], error) {
	c := d.client
	k := len(c.bindArgsSchemas)
	if len(args) > k+1 {
		return nil, fmt.Errorf("action %q: %w: expected at most %d, got %d", d.name, ErrTooManyArgs, k+1, len(args))
	}
	// a missing main input is nil, not an error
	slots := make([]any, k+1)
	copy(slots, args)

	ctx = withActionName(ctx, d.name)
	inv := &invocation[M, In, Out]{
		def:         d,
		handler:     handler,
		classifier:  c.opts.Classifier,
		clientInput: slots[k],
		bindInputs:  slots[:k],
		metadata:    c.metadata,
	}

	root := []string{d.name}
	var configErr error
	_ = traceStage(ctx, root, func() error {
		if err := inv.validateMetadata(ctx, root); err != nil {
			configErr = err
			return err
		}
		_, err := inv.step(ctx, 0, Ctx{}, root)
		return err
	})
	if configErr != nil {
		return nil, configErr
	}
	return inv.settle(ctx)
}

func (inv *invocation[M, In, Out]) validateMetadata(ctx context.Context, parent []string) error {
	schema := inv.def.client.metadataSchema
	if schema == nil {
		return nil
	}
	return traceStage(ctx, stagePath(parent, "metadata"), func() error {
		parsed, issues, err := schema.Validate(ctx, inv.metadata)
		if err != nil {
			return fmt.Errorf("action %q: metadata schema: %w", inv.def.name, err)
		}
		if len(issues) > 0 {
			return &MetadataValidationError{Action: inv.def.name, Errors: BuildErrorTree(issues)}
		}
		inv.metadata = parsed
		return nil
	})
}

// step runs the middleware at idx, or the innermost stage once the chain is
// exhausted. It returns the shared accumulator and the pending escape.
func (inv *invocation[M, In, Out]) step(ctx context.Context, idx int, current Ctx, parent []string) (*MiddlewareResult, error) {
	chain := inv.def.client.middleware
	if idx >= len(chain) {
		inv.innermost(ctx, current, parent)
		return &inv.acc, inv.escape
	}

	path := stagePath(parent, fmt.Sprintf("middleware[%d]", idx))
	_ = traceStage(ctx, path, func() error {
		res, err := inv.callMiddleware(ctx, chain[idx], MiddlewareArgs[M]{
			ClientInput:          inv.clientInput,
			BindArgsClientInputs: inv.bindInputs,
			Ctx:                  current,
			Metadata:             inv.metadata,
			Next: func(ctx context.Context, next Ctx) (*MiddlewareResult, error) {
				if next == nil {
					next = Ctx{}
				}
				return inv.step(ctx, idx+1, next, path)
			},
		})
		if err != nil {
			inv.fail(ctx, err)
			return err
		}
		if res != nil && res != &inv.acc {
			inv.adopt(res)
		}
		return nil
	})
	return &inv.acc, inv.escape
}

func (inv *invocation[M, In, Out]) callMiddleware(ctx context.Context, mw Middleware[M], args MiddlewareArgs[M]) (res *MiddlewareResult, err error) {
	defer recoverInto(&err, inv.classifier)
	return mw(ctx, args)
}

// adopt replaces the outcome with a result a middleware returned instead of
// the one it got from Next.
func (inv *invocation[M, In, Out]) adopt(res *MiddlewareResult) {
	inv.acc.Success = res.Success
	inv.acc.Data = res.Data
	inv.acc.hasData = res.hasData
	inv.acc.ValidationErrors = res.ValidationErrors
	inv.acc.BindArgsValidationErrors = res.BindArgsValidationErrors
	inv.acc.ServerError = res.ServerError
	if res.Ctx != nil {
		inv.acc.Ctx = res.Ctx
	}
}

// innermost validates the inputs, runs the handler and validates its
// output. Errors are classified here and never returned.
func (inv *invocation[M, In, Out]) innermost(ctx context.Context, current Ctx, parent []string) {
	inv.acc.Ctx = current
	c := inv.def.client

	var validated *inputValidation[In]
	err := traceStage(ctx, stagePath(parent, "validation"), func() error {
		var err error
		validated, err = inv.validate(ctx)
		return err
	})
	if err != nil {
		inv.fail(ctx, err)
		return
	}
	if validated.failed() {
		inv.reportValidation(ctx, validated)
		return
	}
	inv.acc.ParsedInput = validated.parsedInput
	inv.acc.BindArgsParsedInputs = validated.bindParsed

	var data Out
	err = traceStage(ctx, stagePath(parent, "handler"), func() (err error) {
		defer recoverInto(&err, inv.classifier)
		data, err = inv.handler(ctx, HandlerArgs[M, In]{
			ParsedInput:          validated.parsedInput,
			ClientInput:          inv.clientInput,
			BindArgsParsedInputs: validated.bindParsed,
			BindArgsClientInputs: inv.bindInputs,
			Ctx:                  current,
			Metadata:             inv.metadata,
		})
		return err
	})
	if err != nil {
		inv.fail(ctx, err)
		return
	}

	if c.outputSchema != nil {
		err = traceStage(ctx, stagePath(parent, "output"), func() (err error) {
			defer recoverInto(&err, inv.classifier)
			parsed, issues, err := c.outputSchema.Validate(ctx, data)
			if err != nil {
				return fmt.Errorf("output schema: %w", err)
			}
			if len(issues) > 0 {
				return &OutputValidationError{Errors: BuildErrorTree(issues)}
			}
			if typed, ok := parsed.(Out); ok {
				data = typed
			}
			return nil
		})
		if err != nil {
			inv.fail(ctx, err)
			return
		}
	}

	inv.acc.Success = true
	inv.acc.Data = data
	inv.acc.hasData = true
}

func (inv *invocation[M, In, Out]) validate(ctx context.Context) (v *inputValidation[In], err error) {
	defer recoverInto(&err, inv.classifier)
	c := inv.def.client
	var schema Schema[In]
	if c.inputSchema != nil {
		if schema, err = c.inputSchema(ctx); err != nil {
			return nil, fmt.Errorf("resolve input schema: %w", err)
		}
	}
	return validateInputs(ctx, inv.classifier, schema, inv.clientInput, c.bindArgsSchemas, inv.bindInputs)
}

func (inv *invocation[M, In, Out]) reportValidation(ctx context.Context, v *inputValidation[In]) {
	c := inv.def.client
	args := inv.shapeArgs()
	inv.acc.resetOutcome()
	if len(v.inputIssues) > 0 {
		shaped, err := c.mainShaper()(ctx, BuildErrorTree(v.inputIssues), args)
		if err != nil {
			inv.serverError(ctx, err)
			return
		}
		inv.acc.ValidationErrors = shaped
	}
	if trees := v.bindTrees(); trees != nil {
		shaped, err := c.bindShaper()(ctx, trees, args)
		if err != nil {
			inv.serverError(ctx, err)
			return
		}
		inv.acc.BindArgsValidationErrors = shaped
	}
}

// fail classifies an error thrown by a stage. Control-flow signals escape
// first and stay. A re-thrown server error is replaced by a later error that
// does not wrap it.
func (inv *invocation[M, In, Out]) fail(ctx context.Context, err error) {
	if inv.escape != nil {
		if !inv.rethrown || errors.Is(err, inv.escape) {
			return
		}
		inv.escape = nil
		inv.rethrown = false
	}
	if inv.classifier.IsNavigationError(err) {
		inv.escape = err
		inv.navigated = true
		inv.acc.Success = true
		inv.acc.NavigationKind = inv.classifier.NavigationKind(err)
		return
	}
	if inv.classifier.IsFrameworkError(err) {
		inv.escape = err
		inv.signal = true
		return
	}

	var sve *ServerValidationError
	if errors.As(err, &sve) {
		inv.acc.resetOutcome()
		shaped, shapeErr := inv.def.client.mainShaper()(ctx, sve.Errors, inv.shapeArgs())
		if shapeErr != nil {
			inv.serverError(ctx, shapeErr)
			return
		}
		inv.acc.ValidationErrors = shaped
		return
	}

	inv.serverError(ctx, err)
}

// serverError logs err and maps it to the client payload.
func (inv *invocation[M, In, Out]) serverError(ctx context.Context, err error) {
	inv.acc.resetOutcome()
	opts := inv.def.client.opts
	info := ServerErrorInfo{
		ActionName:           inv.def.name,
		ClientInput:          inv.clientInput,
		BindArgsClientInputs: inv.bindInputs,
		Ctx:                  inv.acc.Ctx,
		Metadata:             inv.metadata,
	}
	opts.LogServerError(ctx, err, info)

	payload, mapErr := opts.HandleServerError(ctx, err, info)
	if mapErr != nil {
		inv.escape = mapErr
		inv.rethrown = true
		return
	}
	inv.acc.ServerError = payload
	if inv.def.opts.ThrowServerError {
		inv.escape = err
		inv.rethrown = true
	}
}

func (inv *invocation[M, In, Out]) shapeArgs() ShapeArgs {
	return ShapeArgs{
		ClientInput:          inv.clientInput,
		BindArgsClientInputs: inv.bindInputs,
		Metadata:             inv.metadata,
		Ctx:                  inv.acc.Ctx,
	}
}

// assemble copies the outcome into the caller-facing result. Only one
// outcome is kept, server errors first.
func (inv *invocation[M, In, Out]) assemble() *Result[Out] {
	acc := &inv.acc
	result := &Result[Out]{}
	switch {
	case acc.ServerError != nil:
		result.ServerError = acc.ServerError
	case acc.ValidationErrors != nil || acc.BindArgsValidationErrors != nil:
		result.ValidationErrors = acc.ValidationErrors
		result.BindArgsValidationErrors = acc.BindArgsValidationErrors
	case acc.hasData || acc.Data != nil:
		if data, ok := acc.Data.(Out); ok {
			result.Data = &data
		} else if acc.hasData {
			var zero Out
			result.Data = &zero
		}
	}
	return result
}

// settle runs the callbacks and decides what the call returns.
func (inv *invocation[M, In, Out]) settle(ctx context.Context) (*Result[Out], error) {
	opts := inv.def.opts
	cb := CallbackArgs[Out]{
		ClientInput:          inv.clientInput,
		BindArgsClientInputs: inv.bindInputs,
		ParsedInput:          inv.acc.ParsedInput,
		BindArgsParsedInputs: inv.acc.BindArgsParsedInputs,
		Ctx:                  inv.acc.Ctx,
		Metadata:             inv.metadata,
		NavigationKind:       inv.acc.NavigationKind,
	}
	call := func(fn func(context.Context, CallbackArgs[Out])) {
		if fn != nil {
			fn(ctx, cb)
		}
	}

	if inv.navigated {
		cb.Err = inv.escape
		call(opts.OnNavigation)
		call(opts.OnSettled)
		return nil, inv.escape
	}
	if inv.signal {
		cb.Err = inv.escape
		call(opts.OnSettled)
		return nil, inv.escape
	}
	if inv.escape != nil {
		cb.Err = inv.escape
		call(opts.OnError)
		call(opts.OnSettled)
		return nil, inv.escape
	}

	result := inv.assemble()
	if result.HasValidationErrors() && inv.def.throwValidationErrors() {
		message := DefaultValidationErrorMessage
		if opts.ValidationErrorsMessage != nil {
			message = opts.ValidationErrorsMessage(result.ValidationErrors, result.BindArgsValidationErrors)
		}
		verr := &ValidationError{
			Message:                  message,
			ValidationErrors:         result.ValidationErrors,
			BindArgsValidationErrors: result.BindArgsValidationErrors,
		}
		cb.Err = verr
		call(opts.OnError)
		call(opts.OnSettled)
		return nil, verr
	}

	cb.Result = result
	switch {
	case result.HasData():
		call(opts.OnSuccess)
	case result.HasValidationErrors(), result.HasServerError():
		call(opts.OnError)
	}
	call(opts.OnSettled)
	return result, nil
}
