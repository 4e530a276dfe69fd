// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
)

// A Predicate is a failable condition checked against a middleware's
// arguments.
//
// It may return an error if the check itself fails; the error is thrown
// from the middleware position like any other.
type Predicate[M any] = func(context.Context, MiddlewareArgs[M]) (bool, error)

// CreateMiddleware returns mw unchanged. It exists so that standalone
// middleware can be declared with its metadata type inferred once and then
// shared between clients.
//
// Example:
//
//	var requireAdmin = safeaction.CreateMiddleware(func(ctx context.Context, args safeaction.MiddlewareArgs[Meta]) (*safeaction.MiddlewareResult, error) {
//	    if !isAdmin(args.Ctx) {
//	        return nil, safeaction.Forbidden()
//	    }
//	    return args.Next(ctx, args.Ctx)
//	})
func CreateMiddleware[M any](mw Middleware[M]) Middleware[M] {
	return mw
}

// When runs mw only if the predicate returns true.
//
// Otherwise the middleware is skipped: the chain continues with the
// incoming Ctx unchanged.
//
// Example:
//
//	client.Use(safeaction.When(isMutation, auditLog))
func When[M any](predicate Predicate[M], mw Middleware[M]) Middleware[M] {
	return func(ctx context.Context, args MiddlewareArgs[M]) (*MiddlewareResult, error) {
		ok, err := predicate(ctx, args)
		if err != nil {
			return nil, err
		}
		if ok {
			return mw(ctx, args)
		}
		return args.Next(ctx, args.Ctx)
	}
}

// Unless runs mw only if the predicate returns false.
func Unless[M any](predicate Predicate[M], mw Middleware[M]) Middleware[M] {
	return When(Not(predicate), mw)
}

// Not negates a predicate.
func Not[M any](predicate Predicate[M]) Predicate[M] {
	return func(ctx context.Context, args MiddlewareArgs[M]) (bool, error) {
		ok, err := predicate(ctx, args)
		return !ok, err
	}
}

// And combines predicates with logical AND. Evaluation short-circuits on
// the first false or error.
func And[M any](predicates ...Predicate[M]) Predicate[M] {
	return func(ctx context.Context, args MiddlewareArgs[M]) (bool, error) {
		for _, p := range predicates {
			ok, err := p(ctx, args)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
}

// Or combines predicates with logical OR. Evaluation short-circuits on the
// first true or error.
func Or[M any](predicates ...Predicate[M]) Predicate[M] {
	return func(ctx context.Context, args MiddlewareArgs[M]) (bool, error) {
		for _, p := range predicates {
			ok, err := p(ctx, args)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// HasCtxKey is a predicate that holds when an earlier middleware stored key
// in the Ctx.
func HasCtxKey[M any](key string) Predicate[M] {
	return func(_ context.Context, args MiddlewareArgs[M]) (bool, error) {
		_, ok := args.Ctx[key]
		return ok, nil
	}
}
