package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"chacara-backend/internal/api/grpc/interceptor"
	"chacara-backend/internal/logger"
	"chacara-backend/internal/security"
)

// ServiceName is the health service name reported for the reservation API.
const ServiceName = "chacara.v1.ReservationAPI"

// NewServer builds the gRPC server exposing the standard health service and
// reflection behind the auth interceptor.
func NewServer(tm security.TokenManager, hs *health.Server) *grpc.Server {
	auth := interceptor.NewAuthInterceptor(tm)
	server := grpc.NewServer(
		grpc.UnaryInterceptor(auth.Unary()),
		grpc.StreamInterceptor(auth.Stream()),
	)
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)
	return server
}

// NewHealthServer starts in NOT_SERVING until the state store reports ready.
func NewHealthServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

// WatchReadiness polls ready and mirrors it into hs until ctx is done.
func WatchReadiness(ctx context.Context, hs *health.Server, ready func() bool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := false
	for {
		if r := ready(); r != serving {
			serving = r
			status := healthpb.HealthCheckResponse_NOT_SERVING
			if r {
				status = healthpb.HealthCheckResponse_SERVING
			}
			hs.SetServingStatus("", status)
			hs.SetServingStatus(ServiceName, status)
			logger.Info("Health status changed", "status", status.String())
		}

		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
		}
	}
}
