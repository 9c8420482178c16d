package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	api "toolshed-backend/internal/api/grpc"
	"toolshed-backend/internal/api/grpc/interceptor"
	httpapi "toolshed-backend/internal/api/http"
	"toolshed-backend/internal/bootstrap"
	"toolshed-backend/internal/config"
	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/security"
	"toolshed-backend/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Toolshed backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.HTTPAddress(), "grpc", cfg.GRPCAddress())
	logger.Info("Rental configuration", "anchor_weekday", cfg.Rental.AnchorWeekday, "maintenance_blocking_levels", cfg.Rental.MaintenanceBlockingLevels)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	notifier, err := bootstrap.NewNotifier(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize notifications: %v", err)
	}

	// Initialize Services
	policy := cfg.MaintenancePolicy()
	services := httpapi.Services{
		Rentals: service.NewRentalService(store, notifier,
			service.WithCalendar(cfg.Calendar()),
			service.WithMaintenancePolicy(policy),
		),
		Ledger:  service.NewLedgerService(store),
		Tools:   service.NewToolService(store, policy),
		Members: service.NewMemberService(store),
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)

	// Set up HTTP server
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           httpapi.NewRouter(httpapi.NewHandler(services, tokenManager)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Set up gRPC server
	var grpcServer *grpc.Server
	if addr := cfg.GRPCAddress(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", addr)
			log.Fatalf("Failed to listen: %v", err)
		}

		authInterceptor := interceptor.NewAuthInterceptor(tokenManager)
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(authInterceptor.Unary()))
		api.RegisterRentalServiceServer(grpcServer, api.NewRentalHandler(services.Rentals))

		healthServer := health.NewServer()
		healthServer.SetServingStatus(api.RentalServiceName, healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(grpcServer, healthServer)
		reflection.Register(grpcServer)

		go func() {
			logger.Info("gRPC server listening", "address", addr)
			if err := grpcServer.Serve(lis); err != nil {
				errc <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errc:
		logger.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
