package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/ogurasousui/peoplesoft-ledger/internal/adapters/grpc/handler"
	"github.com/ogurasousui/peoplesoft-ledger/internal/core/ledger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Server は gRPC サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
}

// New は指定されたアドレスで待ち受ける gRPC サーバーを構築し、LedgerService を登録します。
func New(listenAddr string, svc ledger.UseCase, opts ...grpc.ServerOption) *Server {
	srv := grpc.NewServer(opts...)
	handler.RegisterLedgerServiceServer(srv, handler.NewLedgerGrpcHandler(svc))

	return &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は lis で待ち受けます。コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.grpcServer.GracefulStop()
	}()

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// GracefulStop はサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// LoggingInterceptor は各 RPC の結果と所要時間を記録する UnaryServerInterceptor を返します。
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		attrs := []any{
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			logger.WarnContext(ctx, "rpc failed", append(attrs, slog.String("error", err.Error()))...)
		} else {
			logger.DebugContext(ctx, "rpc handled", attrs...)
		}
		return resp, err
	}
}
