package grpc

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServer exposes the standard gRPC health service for one named
// service so orchestrators can probe it.
type HealthServer struct {
	service string
	health  *health.Server
	srv     *grpc.Server
	logger  *zap.Logger
}

func NewHealthServer(service string, logger *zap.Logger) *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &HealthServer{
		service: service,
		health:  hs,
		srv:     srv,
		logger:  logger,
	}
}

// SetServing flips the reported status of the service.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(h.service, status)
}

// Start blocks serving on addr.
func (h *HealthServer) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return h.Serve(lis)
}

func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("gRPC health service started", zap.String("address", lis.Addr().String()))
	return h.srv.Serve(lis)
}

func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.srv.GracefulStop()
}
