// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
	"log/slog"
	"time"
)

// Slogger returns the [slog.Logger] from the context, or [slog.Default] if
// none is set.
//
// The default server error logger and [LoggingMiddleware] both log through
// it, so configuring it once at the edge of a request routes all action
// logs to the same place.
func Slogger(ctx context.Context) *slog.Logger {
	if a := fromContext(ctx); a != nil && a.slogger != nil {
		return a.slogger
	}
	return slog.Default()
}

// ContextWithSlogger returns a context carrying logger for use by [Slogger].
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	ctx = safeaction.ContextWithSlogger(ctx, logger)
//	result, err := createUser(ctx, input)
func ContextWithSlogger(ctx context.Context, logger *slog.Logger) context.Context {
	a := deriveActionCtx(ctx)
	a.slogger = logger
	return a
}

// ServerErrorInfo describes the invocation in which a server error occurred.
type ServerErrorInfo struct {
	ActionName           string
	ClientInput          any
	BindArgsClientInputs []any
	Ctx                  Ctx
	Metadata             any
}

// A ServerErrorLogger records a server error before it is mapped to a
// client payload.
type ServerErrorLogger func(ctx context.Context, err error, info ServerErrorInfo)

// A ServerErrorHandler maps a server error to the payload exposed in
// [Result.ServerError].
//
// Returning a non-nil error aborts the pipeline: the action call returns
// that error instead of a result.
type ServerErrorHandler func(ctx context.Context, err error, info ServerErrorInfo) (any, error)

// DefaultServerErrorLogger logs the error at error level through [Slogger].
func DefaultServerErrorLogger(ctx context.Context, err error, info ServerErrorInfo) {
	Slogger(ctx).ErrorContext(ctx, "action error", "action", info.ActionName, "error", err)
}

// NoopServerErrorLogger discards server errors.
func NoopServerErrorLogger(context.Context, error, ServerErrorInfo) {}

// DefaultServerErrorHandler masks every error behind
// [DefaultServerErrorMessage].
func DefaultServerErrorHandler(context.Context, error, ServerErrorInfo) (any, error) {
	return DefaultServerErrorMessage, nil
}

// LoggingMiddleware logs when an action starts and finishes, with its
// duration and outcome.
//
// The logger is taken from the context (see [ContextWithSlogger]) and
// records carry the action name as the "action" attribute:
//
//	{"level":"INFO","msg":"starting action","action":"createUser"}
//	{"level":"INFO","msg":"finished action","action":"createUser","outcome":"success","duration_ms":12}
func LoggingMiddleware[M any](level slog.Level) Middleware[M] {
	return func(ctx context.Context, args MiddlewareArgs[M]) (*MiddlewareResult, error) {
		logger := Slogger(ctx)
		name := ActionName(ctx)

		logger.Log(ctx, level, "starting action", "action", name)
		start := time.Now()
		res, err := args.Next(ctx, args.Ctx)
		duration := time.Since(start)
		logger.Log(ctx, level, "finished action",
			"action", name,
			"outcome", Outcome(res, err),
			"duration_ms", duration.Milliseconds(),
		)
		return res, err
	}
}

// Outcome summarises a downstream result for logs and metrics. It returns
// one of "success", "validation_error", "server_error", "navigation",
// "error" or "incomplete" (the chain was short-circuited).
func Outcome(res *MiddlewareResult, err error) string {
	switch {
	case res != nil && res.NavigationKind != "":
		return "navigation"
	case err != nil:
		return "error"
	case res == nil:
		return "incomplete"
	case res.ServerError != nil:
		return "server_error"
	case res.ValidationErrors != nil || res.BindArgsValidationErrors != nil:
		return "validation_error"
	case res.Success:
		return "success"
	default:
		return "incomplete"
	}
}
