// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sam-fredrickson/safeaction"
)

// TraceIDKey is the Ctx key holding the current trace ID.
const TraceIDKey = "traceId"

// Tracing wraps the rest of the chain in a span named after the action.
//
// The span records the outcome as the "action.outcome" attribute. Server
// errors and thrown errors set an error status; navigation signals do not.
func Tracing[M any](tracer trace.Tracer) safeaction.Middleware[M] {
	return func(ctx context.Context, args safeaction.MiddlewareArgs[M]) (*safeaction.MiddlewareResult, error) {
		name := safeaction.ActionName(ctx)
		ctx, span := tracer.Start(ctx, "action "+name,
			trace.WithAttributes(attribute.String("action.name", name)),
		)
		defer span.End()

		next := args.Ctx
		if sc := span.SpanContext(); sc.IsValid() {
			next = next.With(safeaction.Ctx{TraceIDKey: sc.TraceID().String()})
		}

		res, err := args.Next(ctx, next)
		outcome := safeaction.Outcome(res, err)
		span.SetAttributes(attribute.String("action.outcome", outcome))

		switch outcome {
		case "navigation":
			span.SetAttributes(attribute.String("action.navigation", string(res.NavigationKind)))
		case "error":
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case "server_error":
			span.SetStatus(codes.Error, "server error")
		}
		return res, err
	}
}
