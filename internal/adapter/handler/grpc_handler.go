package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "storefront.v1.Checkout"

// Pinger is implemented by every backing store the service depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports readiness over grpc.health.v1 from periodic
// dependency pings.
type HealthHandler struct {
	server *health.Server
	deps   map[string]Pinger
	logger *zap.Logger
}

func NewHealthHandler(deps map[string]Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		server: health.NewServer(),
		deps:   deps,
		logger: logger,
	}
}

// Register attaches the health service and reflection to s.
func (h *HealthHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
	reflection.Register(s)
}

// Refresh pings every dependency once and publishes the aggregate status.
func (h *HealthHandler) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, dep := range h.deps {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := dep.Ping(pingCtx)
		cancel()
		if err != nil {
			h.logger.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

func (h *HealthHandler) Run(ctx context.Context, every time.Duration) {
	h.Refresh(ctx)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.Refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown flips every service to NOT_SERVING so balancers drain first.
func (h *HealthHandler) Shutdown() {
	h.server.Shutdown()
}
