// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sam-fredrickson/safeaction"
)

type meta struct {
	Role string `json:"role"`
}

var errDatabase = errors.New("database is down")

func failing(context.Context, safeaction.HandlerArgs[meta, any]) (string, error) {
	return "", errDatabase
}

func succeeding(context.Context, safeaction.HandlerArgs[meta, any]) (string, error) {
	return "ok", nil
}

func TestZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	client := safeaction.New[meta](safeaction.ClientOptions{LogServerError: Zap(logger)}).
		Metadata(meta{Role: "admin"}).
		Named("deleteUser")
	res, err := safeaction.Action(client, failing)(t.Context())
	require.NoError(t, err)
	assert.True(t, res.HasServerError())

	entries := logs.FilterMessage("action error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "deleteUser", fields["action"])
	assert.Equal(t, errDatabase.Error(), fields["error"])
}

func TestZapMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	client := safeaction.New[meta](safeaction.ClientOptions{LogServerError: safeaction.NoopServerErrorLogger}).
		Use(ZapMiddleware[meta](logger))

	_, err := safeaction.Action(client.Named("ok"), succeeding)(t.Context())
	require.NoError(t, err)
	_, err = safeaction.Action(client.Named("broken"), failing)(t.Context())
	require.NoError(t, err)

	require.Equal(t, 2, logs.FilterMessage("starting action").Len())
	finished := logs.FilterMessage("finished action").All()
	require.Len(t, finished, 2)
	assert.Equal(t, "ok", finished[0].ContextMap()["action"])
	assert.Equal(t, "success", finished[0].ContextMap()["outcome"])
	assert.Equal(t, "broken", finished[1].ContextMap()["action"])
	assert.Equal(t, "server_error", finished[1].ContextMap()["outcome"])
}

func TestEcto(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zapadapter.NewZapEctoLogger(zap.New(core), nil)

	client := safeaction.New[meta](safeaction.ClientOptions{LogServerError: Ecto(logger)})
	res, err := safeaction.Action(client, failing)(t.Context())
	require.NoError(t, err)
	assert.True(t, res.HasServerError())

	assert.Equal(t, 1, logs.FilterMessage("action error").Len())
}
