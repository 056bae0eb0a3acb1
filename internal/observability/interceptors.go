// Package observability provides gRPC interceptors and the metrics HTTP server.
package observability

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"speech-translation-service/internal/observability/metrics"
)

// UnaryServerInterceptor records every unary call, converts handler panics
// into codes.Internal and logs the caller with the outcome.
func UnaryServerInterceptor(m *metrics.Metrics, logger zerolog.Logger) grpc.UnaryServerInterceptor {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("method", info.FullMethod).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("gRPC handler panic")
				err = status.Error(codes.Internal, "internal error")
			}

			code := status.Code(err)
			m.RecordGRPCRequest(info.FullMethod, code.String())

			ev := logger.Info()
			if code == codes.Internal || code == codes.Unavailable {
				ev = logger.Warn()
			}
			ev.Str("method", info.FullMethod).
				Str("code", code.String()).
				Str("userId", incoming(ctx, "x-user-id")).
				Str("requestId", incoming(ctx, "x-request-id")).
				Dur("duration", time.Since(start)).
				Msg("gRPC unary call")
		}()

		return handler(ctx, req)
	}
}

// StreamServerInterceptor records streaming calls. Only the health and
// reflection services stream.
func StreamServerInterceptor(m *metrics.Metrics, logger zerolog.Logger) grpc.StreamServerInterceptor {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		err := handler(srv, ss)

		code := status.Code(err)
		m.RecordGRPCRequest(info.FullMethod, code.String())
		logger.Debug().
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("gRPC stream completed")

		return err
	}
}

func incoming(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
