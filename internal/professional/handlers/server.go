// Package handlers exposes the professionals service over HTTP. A gRPC server
// runs alongside for health checking and reflection, and the REST routes are
// served through a gRPC-Gateway mux.
package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gartstein/professionals/internal/professional/auth"
	"github.com/gartstein/professionals/internal/professional/models"
	"github.com/gartstein/professionals/internal/professional/storage"
	"github.com/gartstein/professionals/internal/professional/views"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ProfessionalController defines the business logic interface
// that the HTTP handlers will invoke.
type ProfessionalController interface {
	Upsert(ctx context.Context, in models.ProfessionalInput) (*models.Professional, models.Outcome, error)
	BulkUpsert(ctx context.Context, records []models.BulkRecord) *models.BatchResult
	List(ctx context.Context, opts models.ListOptions) ([]views.ProfileView, error)
	AttachResume(ctx context.Context, professionalID uint64, file *models.ResumeFile) (*models.ResumeAttachment, error)
	DeleteProfessional(ctx context.Context, id uint64) error
}

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	conn         *grpc.ClientConn
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	grpcServer := grpc.NewServer(grpcOpts...)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	return &Server{
		grpcServer:   grpcServer,
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		health:       healthServer,
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
}

// RegisterHTTPGateway builds the HTTP handler: the REST routes of h and
// /healthz behind the auth middleware, plus media under /media/ when media is
// not nil. /healthz reports the gRPC health service reached through dialOpts.
func (s *Server) RegisterHTTPGateway(
	_ context.Context,
	h *ProfessionalHandler,
	dialOpts []grpc.DialOption,
	jwtSecret string,
	media http.Handler,
) error {
	conn, err := grpc.NewClient(fmt.Sprintf("localhost%s", s.grpcEndpoint), dialOpts...)
	if err != nil {
		return fmt.Errorf("failed to create health client: %w", err)
	}
	s.conn = conn

	mux := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))
	if h != nil {
		if err := h.Register(mux); err != nil {
			return err
		}
	}

	root := http.NewServeMux()
	if media != nil {
		root.Handle(storage.MediaPrefix, media)
	}
	root.Handle("/", auth.HTTPMiddleware(mux, jwtSecret))

	s.httpServer.Handler = root
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	s.grpcServer.GracefulStop()
	if s.conn != nil {
		_ = s.conn.Close()
	}

	s.logger.Info("Servers stopped")
}
