package nats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig("nats://localhost:4222")

	assert.Equal(t, "nats://localhost:4222", cfg.URL)
	assert.Equal(t, "cheesefinder", cfg.Name)
	assert.Equal(t, 10, cfg.MaxReconnects)
	assert.Equal(t, 2*time.Second, cfg.ReconnectWait)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestOptions_AddsAuthentication(t *testing.T) {
	base := DefaultConnectionConfig("nats://localhost:4222")
	baseCount := len(options(base, zap.NewNop()))

	withToken := DefaultConnectionConfig("nats://localhost:4222")
	withToken.Token = "secret"
	assert.Len(t, options(withToken, zap.NewNop()), baseCount+1)

	withUser := DefaultConnectionConfig("nats://localhost:4222")
	withUser.Username = "u"
	withUser.Password = "p"
	assert.Len(t, options(withUser, zap.NewNop()), baseCount+1)

	userOnly := DefaultConnectionConfig("nats://localhost:4222")
	userOnly.Username = "u"
	assert.Len(t, options(userOnly, zap.NewNop()), baseCount)
}

func TestConnect_InvalidConfig(t *testing.T) {
	_, err := Connect(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "config cannot be nil")

	_, err = Connect(context.Background(), &ConnectionConfig{}, nil)
	assert.ErrorContains(t, err, "URL cannot be empty")
}

func TestConnect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConnectionConfig("nats://127.0.0.1:1")
	cfg.Timeout = 50 * time.Millisecond

	conn, err := Connect(ctx, cfg, nil)

	require.Error(t, err)
	assert.Nil(t, conn)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
