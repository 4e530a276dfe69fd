// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/sam-fredrickson/safeaction"
)

// RequestIDKey is the Ctx key holding the request ID.
const RequestIDKey = "requestId"

// RequestID stores a random request ID in the Ctx under [RequestIDKey],
// keeping one set by an earlier middleware.
func RequestID[M any]() safeaction.Middleware[M] {
	return func(ctx context.Context, args safeaction.MiddlewareArgs[M]) (*safeaction.MiddlewareResult, error) {
		if _, ok := safeaction.Value[string](args.Ctx, RequestIDKey); ok {
			return args.Next(ctx, args.Ctx)
		}
		return args.Next(ctx, args.Ctx.With(safeaction.Ctx{RequestIDKey: uuid.NewString()}))
	}
}

// RequestIDFrom returns the request ID stored by [RequestID].
func RequestIDFrom(c safeaction.Ctx) string {
	id, _ := safeaction.Value[string](c, RequestIDKey)
	return id
}
