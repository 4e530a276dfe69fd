// SPDX-License-Identifier: Apache-2.0

// Package middleware provides ready-made [safeaction.Middleware] for
// request IDs, OpenTelemetry spans, Prometheus metrics and rate limiting.
//
// All of them are generic over the client's metadata type:
//
//	client := safeaction.New[Meta](opts).Use(
//	    middleware.RequestID[Meta](),
//	    middleware.Tracing[Meta](otel.Tracer("actions")),
//	    middleware.Instrument[Meta](middleware.NewMetrics(prometheus.DefaultRegisterer)),
//	)
package middleware
