// SPDX-License-Identifier: Apache-2.0

// Package servererror provides [safeaction.ServerErrorHandler] values for
// common ways of exposing server errors to clients.
package servererror

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/sam-fredrickson/safeaction"
)

// Masked exposes msg in place of every server error.
func Masked(msg string) safeaction.ServerErrorHandler {
	return func(context.Context, error, safeaction.ServerErrorInfo) (any, error) {
		return msg, nil
	}
}

// Unmasked exposes the error's message. Intended for development only.
func Unmasked() safeaction.ServerErrorHandler {
	return func(_ context.Context, err error, _ safeaction.ServerErrorInfo) (any, error) {
		return err.Error(), nil
	}
}

// Rethrow aborts the action with the original error instead of producing a
// result.
func Rethrow() safeaction.ServerErrorHandler {
	return func(_ context.Context, err error, _ safeaction.ServerErrorInfo) (any, error) {
		return nil, err
	}
}

// Payload is the client-facing form of an HTTP error.
type Payload struct {
	Message string         `json:"message"`
	Status  int            `json:"status"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// HTTPError exposes errors built with the ectoerror httperror package as a
// [Payload] carrying their status code and metadata. Any other error is
// masked behind fallback with status 500.
//
//	return nil, httperror.NewHTTPError(http.StatusConflict, "username taken").
//	    AddMetaValue("field", "username")
func HTTPError(fallback string) safeaction.ServerErrorHandler {
	return func(_ context.Context, err error, _ safeaction.ServerErrorInfo) (any, error) {
		if !httperror.IsHTTPError(err) {
			return Payload{Message: fallback, Status: http.StatusInternalServerError}, nil
		}
		httpErr := httperror.ToHTTPError(err)
		return Payload{
			Message: httpErr.Error(),
			Status:  httperror.GetStatusCode(err),
			Meta:    httpErr.Meta,
		}, nil
	}
}
