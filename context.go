// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
	"log/slog"
)

// actionCtxKey is the context key for retrieving the actionCtx.
type actionCtxKey struct{}

// actionCtx consolidates the library's context values into a single
// lookup: the running action's name, the active trace and the configured
// structured logger.
//
// It embeds the parent context.Context so cancellation, deadlines and
// foreign values are delegated unchanged.
type actionCtx struct {
	context.Context

	// name of the running action; empty outside an invocation.
	name string

	// trace is the active execution trace, or nil.
	trace *trace

	// slogger is nil when no logger was configured, in which case
	// slog.Default() is used.
	slogger *slog.Logger
}

// Value intercepts actionCtxKey lookups and delegates everything else to
// the embedded parent context.
func (a *actionCtx) Value(key any) any {
	if _, ok := key.(actionCtxKey); ok {
		return a
	}
	return a.Context.Value(key)
}

// deriveActionCtx wraps parent and inherits library state from any
// actionCtx already present in it.
func deriveActionCtx(parent context.Context) *actionCtx {
	a := &actionCtx{Context: parent}
	if origin, ok := parent.Value(actionCtxKey{}).(*actionCtx); ok {
		a.name = origin.name
		a.trace = origin.trace
		a.slogger = origin.slogger
	}
	return a
}

func fromContext(ctx context.Context) *actionCtx {
	a, _ := ctx.Value(actionCtxKey{}).(*actionCtx)
	return a
}

// ActionName returns the name of the action running in ctx, or "" when
// called outside an action invocation.
func ActionName(ctx context.Context) string {
	if a := fromContext(ctx); a != nil {
		return a.name
	}
	return ""
}

func withActionName(ctx context.Context, name string) context.Context {
	a := deriveActionCtx(ctx)
	a.name = name
	return a
}
