// Package server hosts the HTTP and gRPC transports and their shared middleware.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"gochat/internal/config"
)

const shutdownTimeout = 30 * time.Second

// Server runs any number of HTTP servers and at most one gRPC server until its context ends.
type Server struct {
	httpServers []*http.Server
	grpcServer  *grpc.Server
	grpcAddr    string
	log         *zap.Logger
}

func New(log *zap.Logger) *Server {
	return &Server{log: log}
}

func (s *Server) WithHTTP(addr string, h http.Handler, cfg config.ServerConfig) *Server {
	s.httpServers = append(s.httpServers, &http.Server{
		Addr:           addr,
		Handler:        h,
		ReadTimeout:    time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	})
	return s
}

func (s *Server) WithGRPC(addr string, srv *grpc.Server) *Server {
	s.grpcServer = srv
	s.grpcAddr = addr
	return s
}

// Run binds every listener before serving so a bad address fails fast. It returns nil after
// a graceful shutdown triggered by ctx.
func (s *Server) Run(ctx context.Context) error {
	httpListeners := make([]net.Listener, 0, len(s.httpServers))
	closeAll := func() {
		for _, l := range httpListeners {
			l.Close()
		}
	}
	for _, srv := range s.httpServers {
		lis, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			closeAll()
			return fmt.Errorf("listen http %s: %w", srv.Addr, err)
		}
		httpListeners = append(httpListeners, lis)
	}

	var grpcListener net.Listener
	if s.grpcServer != nil {
		lis, err := net.Listen("tcp", s.grpcAddr)
		if err != nil {
			closeAll()
			return fmt.Errorf("listen grpc %s: %w", s.grpcAddr, err)
		}
		grpcListener = lis
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, srv := range s.httpServers {
		srv, lis := srv, httpListeners[i]
		g.Go(func() error {
			s.log.Info("http server listening", zap.String("addr", lis.Addr().String()))
			if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	if grpcListener != nil {
		g.Go(func() error {
			s.log.Info("grpc server listening", zap.String("addr", grpcListener.Addr().String()))
			if err := s.grpcServer.Serve(grpcListener); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range s.httpServers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("http shutdown %s: %w", srv.Addr, err))
			}
		}
		if s.grpcServer != nil {
			s.grpcServer.GracefulStop()
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
