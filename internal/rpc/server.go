package rpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/repository"
)

// NewServer builds the gRPC server: health, reflection and, when logs is
// non-nil, the ExtractionLogs service.
func NewServer(logs repository.ExtractionLogRepository, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if logs != nil {
		RegisterExtractionLogsServer(srv, NewExtractionLogsService(logs, logger))
		hs.SetServingStatus(ExtractionLogsServiceName, healthpb.HealthCheckResponse_SERVING)
	}
	// Reflection for grpcurl
	reflection.Register(srv)
	return srv, hs
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("grpc.request.failed", "method", info.FullMethod, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
			return resp, err
		}
		logger.Debug("grpc.request", "method", info.FullMethod, "elapsed_ms", time.Since(start).Milliseconds())
		return resp, nil
	}
}

// toStatus maps application errors onto gRPC status errors.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInput):
		return common.InvalidArgumentError(common.UserMessage(err))
	case errors.Is(err, common.ErrNotFound):
		return common.NotFoundError(common.UserMessage(err))
	default:
		return common.InternalError("internal error")
	}
}
