// SPDX-License-Identifier: Apache-2.0

// Package safeaction defines type-safe server actions: functions called with
// untrusted client input that validate it, run it through a middleware
// chain and a handler, and return a structured result instead of failing.
//
// # The Problem
//
// Every endpoint that accepts client input repeats the same work: decode,
// validate, authenticate, log, call the business logic, and turn whatever
// went wrong into something safe to send back. Done by hand, validation
// messages leak in different shapes, internal errors leak their text, and
// redirects get swallowed by generic error handling.
//
// Safeaction runs that work as a fixed pipeline so that handlers only deal
// with already-parsed input.
//
// # Core Concepts
//
// A [Client] is an immutable builder. Each method returns a new client, so
// a base client can be forked into specialised ones:
//
//	base := safeaction.New[Meta](safeaction.ClientOptions{})
//	authed := base.Use(requireUser)
//
// [Schema] is the validation adapter. The pipeline only depends on this
// interface; the adapters/playground package implements it on top of
// go-playground/validator struct tags.
//
// [Action] turns a client and a [Handler] into an [ActionFunc]:
//
//	signUp := safeaction.Action(
//	    safeaction.InputSchema(authed, playground.Struct[SignUp]()),
//	    func(ctx context.Context, args safeaction.HandlerArgs[Meta, SignUp]) (User, error) {
//	        return users.Create(ctx, args.ParsedInput)
//	    },
//	)
//
// # The Pipeline
//
// Each call runs these stages in order:
//
//  1. The metadata is validated against the metadata schema, if any. A
//     mismatch is a configuration error and is returned as an error.
//  2. Each [Middleware] runs in turn and continues the chain by calling
//     Next with the [Ctx] for the next stage.
//  3. The bind arguments and the main input are validated concurrently.
//  4. The handler runs with the parsed input, the Ctx and the metadata.
//  5. The handler's data is validated against the output schema, if any.
//  6. A [Result] is assembled with exactly one outcome: data, validation
//     errors or a server error.
//
// # Errors
//
// Validation failures are shaped into an [ErrorTree] (or [FlattenedErrors])
// and returned in the result. A handler may report its own validation
// failures with [ReturnValidationErrors].
//
// Any other error returned by a handler or middleware is a server error. It
// is logged through [ClientOptions.LogServerError] and mapped to a payload
// by [ClientOptions.HandleServerError]; by default the payload is
// [DefaultServerErrorMessage], so the original text never reaches the
// client. A mapper may return an error instead, which aborts the call.
//
// Navigation signals such as [Redirect] and [NotFound] are not errors. They
// skip all error handling and are returned from the call unchanged, after
// the OnNavigation and OnSettled callbacks have run.
//
// # Observability
//
// [LoggingMiddleware] logs each call through the [log/slog] logger carried
// by the context (see [ContextWithSlogger]). [WithTrace] records every
// pipeline stage of every call made under a context:
//
//	ctx, tr := safeaction.WithTrace(ctx)
//	_, _ = signUp(ctx, input)
//	_, _ = tr.WriteText(os.Stdout)
//
// The middleware package adds OpenTelemetry tracing, Prometheus metrics and
// request ids; the logging package routes server errors to zap or
// ectologger.
package safeaction
