package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/rl1809/invoice-dashboard/internal/logger"
	"github.com/rl1809/invoice-dashboard/internal/port"
)

// GRPCHandler reports the invoice store's health over grpc.health.v1.
type GRPCHandler struct {
	grpc_health_v1.UnimplementedHealthServer
	repo   port.InvoiceRepository
	logger *logger.Logger
}

func NewGRPCHandler(repo port.InvoiceRepository, log *logger.Logger) *GRPCHandler {
	return &GRPCHandler{repo: repo, logger: log}
}

func (h *GRPCHandler) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}

	if err := h.repo.Ping(ctx); err != nil {
		h.logger.Warnw("health check failed", "error", err)
		return &grpc_health_v1.HealthCheckResponse{
			Status: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		}, nil
	}

	return &grpc_health_v1.HealthCheckResponse{
		Status: grpc_health_v1.HealthCheckResponse_SERVING,
	}, nil
}
