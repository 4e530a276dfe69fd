// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/sam-fredrickson/safeaction"
)

// ErrRateLimited is thrown by [RateLimit] when no token is available.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit throws [ErrRateLimited] when limiter has no token available,
// which the pipeline reports as a server error.
func RateLimit[M any](limiter *rate.Limiter) safeaction.Middleware[M] {
	return func(ctx context.Context, args safeaction.MiddlewareArgs[M]) (*safeaction.MiddlewareResult, error) {
		if !limiter.Allow() {
			return nil, ErrRateLimited
		}
		return args.Next(ctx, args.Ctx)
	}
}
