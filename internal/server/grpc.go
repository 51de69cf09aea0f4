package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	chatv1 "gochat/api/chat/v1"
	"gochat/internal/chat/handler"
	"gochat/internal/common"
	"gochat/internal/metrics"
	"gochat/internal/user"
)

// NewGRPCServer registers the chat and auth services plus grpc.health.v1 and reflection.
func NewGRPCServer(
	chat *handler.GRPCHandler,
	auth *user.GRPCHandler,
	tokens common.TokenValidator,
	log *zap.Logger,
) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingUnaryInterceptor(log),
			common.AuthInterceptor(tokens, user.PublicGRPCMethods),
		),
		grpc.StreamInterceptor(LoggingStreamInterceptor(log)),
	)

	chatv1.RegisterChatServiceServer(s, chat)
	chatv1.RegisterAuthServiceServer(s, auth)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(chatv1.ChatService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	return s
}

// LoggingUnaryInterceptor runs outside auth so rejected calls are counted too.
func LoggingUnaryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		code := status.Code(err)
		metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()

		if err != nil {
			log.Info("grpc call failed",
				zap.String("method", info.FullMethod),
				zap.String("code", code.String()),
				zap.Duration("duration", duration),
				zap.Error(err))
		} else {
			log.Debug("grpc call",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", duration))
		}
		return resp, err
	}
}

func LoggingStreamInterceptor(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		err := handler(srv, stream)
		if err != nil {
			log.Info("grpc stream ended with error", zap.String("method", info.FullMethod), zap.Error(err))
		}
		return err
	}
}
