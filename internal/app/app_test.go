package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/BlogApp/internal/config"
	"github.com/GoArmGo/BlogApp/internal/logger"
	"github.com/GoArmGo/BlogApp/internal/messaging/payloads"
)

type fakeConsumer struct {
	started bool
	closed  bool
	err     error
}

func (f *fakeConsumer) StartConsumingImageCleanup(ctx context.Context, handler func(context.Context, payloads.ImageCleanupPayload) error) error {
	f.started = true
	return f.err
}

func (f *fakeConsumer) Close() { f.closed = true }

func TestRunRejectsUnknownMode(t *testing.T) {
	consumer := &fakeConsumer{}
	a := NewApp(&config.Config{}, logger.Discard(), nil, nil, nil, nil, consumer)

	err := a.Run(context.Background(), "batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch")
	assert.True(t, consumer.closed)
}

func TestRunWorkerStopsOnCancel(t *testing.T) {
	consumer := &fakeConsumer{}
	a := NewApp(&config.Config{}, logger.Discard(), nil, nil, nil, nil, consumer)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, a.Run(ctx, "worker"))
	assert.True(t, consumer.started)
	assert.True(t, consumer.closed)
}

func TestRunWorkerPropagatesStartError(t *testing.T) {
	consumer := &fakeConsumer{err: errors.New("channel closed")}
	a := NewApp(&config.Config{}, logger.Discard(), nil, nil, nil, nil, consumer)

	err := a.Run(context.Background(), "worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}
