package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name reported by the health service besides "".
const ServiceName = "academy"

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer answers grpc.health.v1 checks from the credential store.
type HealthServer struct {
	healthpb.UnimplementedHealthServer
	store   pinger
	timeout time.Duration
}

func NewHealthServer(store pinger) *HealthServer {
	return &HealthServer{store: store, timeout: 2 * time.Second}
}

func (s *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if name := req.GetService(); name != "" && name != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", name)
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Ping(pingCtx); err != nil {
		logrus.WithError(err).Warn("Store ping failed (grpc)")
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

// NewServer builds the gRPC server with the health service registered.
func NewServer(store pinger) *gogrpc.Server {
	server := gogrpc.NewServer(gogrpc.ChainUnaryInterceptor(LoggingUnaryInterceptor()))
	healthpb.RegisterHealthServer(server, NewHealthServer(store))
	return server
}
