package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Refresh(t *testing.T) {
	var redisErr error
	h := NewHealthHandler(map[string]Pinger{
		"mysql": pingerFunc(func(context.Context) error { return nil }),
		"redis": pingerFunc(func(context.Context) error { return redisErr }),
	}, zap.NewNop())

	ctx := context.Background()
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, h.Refresh(ctx))

	resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	redisErr = errors.New("connection refused")
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, h.Refresh(ctx))

	resp, err = h.server.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
