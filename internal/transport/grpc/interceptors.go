package grpcx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/cwrk-planet/board-service/pkg/logger"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const mdRequestID = "x-request-id"

// UnaryServerInterceptor: request-scoped логгер, recovery, deadline guard
// (если у вызова нет deadline) и лог вызова с gRPC кодом.
func UnaryServerInterceptor(guard time.Duration) grpc.UnaryServerInterceptor {
	if guard <= 0 {
		guard = 10 * time.Second
	}
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		start := time.Now()
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, guard)
			defer cancel()
		}
		l := logger.FromContext(ctx).With("req_id", requestID(ctx), "method", info.FullMethod)
		ctx = logger.WithContext(ctx, l)

		defer func() {
			if r := recover(); r != nil {
				l.Error("grpc unary panic", "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}
			logCall(l, "grpc unary", start, err)
		}()

		return handler(ctx, req)
	}
}

func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		start := time.Now()
		l := logger.FromContext(ss.Context()).With("req_id", requestID(ss.Context()), "method", info.FullMethod)

		defer func() {
			if r := recover(); r != nil {
				l.Error("grpc stream panic", "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}
			logCall(l, "grpc stream", start, err)
		}()

		return handler(srv, ss)
	}
}

func logCall(l *slog.Logger, msg string, start time.Time, err error) {
	code := status.Code(err)
	level := slog.LevelInfo
	switch code {
	case codes.OK, codes.NotFound, codes.InvalidArgument:
	case codes.Internal, codes.Unknown, codes.DataLoss:
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	l.Log(context.Background(), level, msg,
		"code", code.String(),
		"dur_ms", time.Since(start).Milliseconds(),
		"err", errString(err))
}

// requestID берёт x-request-id из метаданных или генерирует новый.
func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(mdRequestID); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
