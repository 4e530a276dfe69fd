// SPDX-License-Identifier: Apache-2.0

// Package logging routes action logs to zap and ectologger.
//
// The root package logs through log/slog. Services that already carry a
// zap or ectologger logger plug it in here instead:
//
//	client := safeaction.New[Meta](safeaction.ClientOptions{
//	    LogServerError: logging.Zap(logger),
//	}).Use(logging.ZapMiddleware[Meta](logger))
package logging

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"

	"github.com/sam-fredrickson/safeaction"
)

const serverErrorMessage = "action error"

// Zap returns a server error logger writing to logger at error level.
func Zap(logger *zap.Logger) safeaction.ServerErrorLogger {
	return func(_ context.Context, err error, info safeaction.ServerErrorInfo) {
		logger.Error(serverErrorMessage,
			zap.String("action", info.ActionName),
			zap.Any("metadata", info.Metadata),
			zap.Error(err),
		)
	}
}

// Ecto returns a server error logger writing to an ectologger logger.
func Ecto(logger ectologger.Logger) safeaction.ServerErrorLogger {
	return func(ctx context.Context, err error, info safeaction.ServerErrorInfo) {
		logger.WithContext(ctx).WithFields(map[string]any{
			"action":   info.ActionName,
			"metadata": info.Metadata,
		}).WithError(err).Error(serverErrorMessage)
	}
}

// ZapMiddleware logs the start and end of every action at debug and info
// level, with the outcome and duration.
func ZapMiddleware[M any](logger *zap.Logger) safeaction.Middleware[M] {
	return func(ctx context.Context, args safeaction.MiddlewareArgs[M]) (*safeaction.MiddlewareResult, error) {
		log := logger.With(zap.String("action", safeaction.ActionName(ctx)))
		log.Debug("starting action")

		start := time.Now()
		res, err := args.Next(ctx, args.Ctx)
		log.Info("finished action",
			zap.String("outcome", safeaction.Outcome(res, err)),
			zap.Duration("duration", time.Since(start)),
		)
		return res, err
	}
}
