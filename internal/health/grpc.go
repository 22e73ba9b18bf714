package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer returns a gRPC server exposing only the health service
// (plus reflection, so grpcurl works without local protos).
func NewGRPCServer(c *Checker) *grpc.Server {
	s := grpc.NewServer()
	c.Register(s)
	reflection.Register(s)
	return s
}

// Serve listens on addr and serves s until ctx is cancelled, then stops
// gracefully.
func Serve(ctx context.Context, addr string, s *grpc.Server, logger *slog.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("grpc health listening", "addr", lis.Addr().String())
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.GracefulStop()
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("grpc serve: %w", err)
	}
}
