package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromContext_MissingLoggerDiscards(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	require.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestWith_AddsAttributes(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), base)

	// Act
	ctx = With(ctx, "stat", "maxLife")
	FromContext(ctx).Info("hello")

	// Assert
	require.Contains(t, buf.String(), "stat=maxLife")
	require.Contains(t, buf.String(), "msg=hello")
}
