package logger

import (
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ctxzap.ToContext(context.Background(), zap.New(core))

	ctx = WithAction(ctx, "ask")
	ctx = WithSession(ctx, "s1")
	ctx = AddFields(ctx, zap.Int("files", 2))
	ctxzap.Info(ctx, "done")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "ask", fields["action"])
	assert.Equal(t, "s1", fields["session_id"])
	assert.EqualValues(t, 2, fields["files"])
}

func TestNoLoggerInContext(t *testing.T) {
	assert.NotPanics(t, func() {
		ctxzap.Info(WithSession(context.Background(), "s1"), "dropped")
	})
}
