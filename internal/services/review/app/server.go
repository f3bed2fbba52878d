// Package server hosts the review service: a gRPC health endpoint for
// orchestration plus the JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	apperrors "github.com/Angad-23/paper-checker/internal/platform/errors"
	httpapi "github.com/Angad-23/paper-checker/internal/services/review/api/http"
	"github.com/Angad-23/paper-checker/internal/services/review/artifact"
	"github.com/Angad-23/paper-checker/internal/services/review/domain"
	"github.com/Angad-23/paper-checker/internal/services/review/feed"
	"github.com/Angad-23/paper-checker/internal/services/review/notify"
	reviewsqlite "github.com/Angad-23/paper-checker/internal/services/review/storage/sqlite"
)

// Options configures a review server.
type Options struct {
	GRPCPort          int
	HTTPAddr          string
	DBPath            string
	ArtifactDir       string
	GradingConfigPath string
	TokenSecret       string
}

// Server hosts the review service.
type Server struct {
	listener     net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	store        *reviewsqlite.Store
	httpListener net.Listener
	httpServer   *http.Server
	broker       *feed.Broker
}

// New creates a configured review server listening on the provided ports.
func New(opts Options) (*Server, error) {
	if strings.TrimSpace(opts.TokenSecret) == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if strings.TrimSpace(opts.HTTPAddr) == "" {
		return nil, fmt.Errorf("http addr is required")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.GRPCPort))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", opts.GRPCPort, err)
	}

	store, err := openReviewStore(opts.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	artifactDir := strings.TrimSpace(opts.ArtifactDir)
	if artifactDir == "" {
		artifactDir = filepath.Join("data", "artifacts")
	}
	artifacts, err := artifact.NewStore(artifactDir)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	scale, err := LoadGradingScale(opts.GradingConfigPath)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	broker := feed.NewBroker()
	inbox := newInboxAdapter(store)
	dispatcher := notify.NewDispatcher(inbox, broker)
	service := domain.NewService(newSubmissionStoreAdapter(store), inbox, artifacts, dispatcher, broker, scale)

	auth, err := httpapi.NewTokenAuthenticator(opts.TokenSecret)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	httpListener, err := net.Listen("tcp", opts.HTTPAddr)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("listen on http addr %s: %w", opts.HTTPAddr, err)
	}
	mux := http.NewServeMux()
	httpapi.NewHandler(service, broker, auth).RegisterRoutes(mux)
	httpServer := &http.Server{Handler: mux}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(errorUnaryInterceptor),
	)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:     listener,
		grpcServer:   grpcServer,
		health:       healthServer,
		store:        store,
		httpListener: httpListener,
		httpServer:   httpServer,
		broker:       broker,
	}, nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// HTTPAddr returns the HTTP listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Run creates and serves a review server until the context ends.
func Run(ctx context.Context, opts Options) error {
	reviewServer, err := New(opts)
	if err != nil {
		return err
	}
	return reviewServer.Serve(ctx)
}

// Serve starts the review server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	log.Printf("review server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	log.Printf("review HTTP server listening at %v", s.httpListener.Addr())
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	shutdownGRPC := func() {
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
	}
	shutdownHTTP := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}

	select {
	case <-ctx.Done():
		shutdownGRPC()
		shutdownHTTP()
		err := <-serveErr
		return handleErr(err)
	case err := <-serveErr:
		shutdownHTTP()
		return handleErr(err)
	case err := <-httpErr:
		if err == http.ErrServerClosed {
			return nil
		}
		shutdownGRPC()
		grpcErr := <-serveErr
		if handled := handleErr(grpcErr); handled != nil {
			return handled
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}

// errorUnaryInterceptor converts domain errors returned by gRPC handlers
// into statuses carrying structured error details. Foreign errors, including
// statuses the health service already produced, pass through untouched.
func errorUnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err == nil {
		return resp, nil
	}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return resp, apperrors.HandleError(err)
	}
	return resp, err
}

func openReviewStore(path string) (*reviewsqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "review.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := reviewsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open review sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close review store: %v", err)
		}
	}
}
