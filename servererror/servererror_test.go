// SPDX-License-Identifier: Apache-2.0

package servererror

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-fredrickson/safeaction"
)

func run(t *testing.T, handler safeaction.ServerErrorHandler, err error) (*safeaction.Result[int], error) {
	t.Helper()
	client := safeaction.New[struct{}](safeaction.ClientOptions{
		HandleServerError: handler,
		LogServerError:    safeaction.NoopServerErrorLogger,
	})
	return safeaction.Action(client, func(context.Context, safeaction.HandlerArgs[struct{}, any]) (int, error) {
		return 0, err
	})(t.Context())
}

func TestMasking(t *testing.T) {
	boom := errors.New("connection refused")

	res, err := run(t, Masked("try again later"), boom)
	require.NoError(t, err)
	assert.Equal(t, "try again later", res.ServerError)

	res, err = run(t, Unmasked(), boom)
	require.NoError(t, err)
	assert.Equal(t, "connection refused", res.ServerError)

	res, err = run(t, Rethrow(), boom)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)
}

func TestHTTPError(t *testing.T) {
	handler := HTTPError("Something went wrong")

	conflict := httperror.NewHTTPError(http.StatusConflict, "username taken").AddMetaValue("field", "username")
	res, err := run(t, handler, conflict)
	require.NoError(t, err)
	payload, ok := res.ServerError.(Payload)
	require.True(t, ok, "got %#v", res.ServerError)
	assert.Equal(t, http.StatusConflict, payload.Status)
	assert.Contains(t, payload.Message, "username taken")
	assert.Equal(t, "username", payload.Meta["field"])

	res, err = run(t, handler, errors.New("secret detail"))
	require.NoError(t, err)
	assert.Equal(t, Payload{Message: "Something went wrong", Status: http.StatusInternalServerError}, res.ServerError)
}
