package app

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tair/field-service/pkg/logger"
)

// ServiceName is the name reported by the gRPC health service
const ServiceName = "fieldservice.FieldService"

// NewGRPCServer creates a gRPC server exposing the standard health service and reflection
func NewGRPCServer(healthServer *health.Server) *grpc.Server {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(LoggingInterceptor),
	)
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	return server
}

// LoggingInterceptor logs each unary call with its duration
func LoggingInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	event := logger.Debug(ctx)
	if err != nil {
		event = logger.Warn(ctx).Err(err)
	}
	event.Str("method", info.FullMethod).Dur("duration", time.Since(start)).Msg("gRPC request")
	return resp, err
}

// WatchHealth updates the serving status from check every interval until ctx is done
func WatchHealth(ctx context.Context, healthServer *health.Server, check func(ctx context.Context) error, interval time.Duration) {
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if check != nil {
			if err := check(ctx); err != nil {
				logger.Warn(ctx).Err(err).Msg("Health check failed")
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		healthServer.SetServingStatus("", status)
		healthServer.SetServingStatus(ServiceName, status)
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			healthServer.Shutdown()
			return
		case <-ticker.C:
			update()
		}
	}
}
