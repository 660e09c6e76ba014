package grpcstore

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hanpama/usergraph/internal/reqid"
)

// UnaryServerInterceptor restores the caller's request ID into the handler
// context and logs each call.
func UnaryServerInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		fields := []zap.Field{zap.String("method", info.FullMethod)}
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(reqid.Header); len(ids) > 0 {
				ctx = reqid.WithID(ctx, ids[0])
				fields = append(fields, zap.String("request_id", ids[0]))
			}
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		fields = append(fields, zap.Duration("duration", time.Since(start)), zap.Stringer("code", status.Code(err)))
		if err != nil {
			logger.Warn("record call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("record call", fields...)
		}
		return resp, err
	}
}
