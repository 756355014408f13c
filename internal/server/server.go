package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	v1 "github.com/joseph-ayodele/docparser/api/docparser/v1"
	"github.com/joseph-ayodele/docparser/internal/common"
)

// NewGRPCServer builds a grpc.Server with the document service and the
// standard health service registered. The returned health server reports
// SERVING until the caller changes it.
func NewGRPCServer(doc *DocumentServer, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(requestLogger(logger)))
	gs := grpc.NewServer(opts...)
	v1.RegisterDocumentServiceServer(gs, doc)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(v1.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return gs, hs
}

// requestLogger tags each call with a request id and logs its outcome.
func requestLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		reqID := uuid.NewString()
		ctx = common.WithRequestID(ctx, reqID)
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("grpc.request", "method", info.FullMethod, "req_id", reqID, "duration", time.Since(start), "error", err)
		} else {
			logger.Debug("grpc.request", "method", info.FullMethod, "req_id", reqID, "duration", time.Since(start))
		}
		return resp, err
	}
}
