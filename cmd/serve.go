package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/health/grpc_health_v1"

	grpcapi "speech-translation-service/internal/api/grpc"
	"speech-translation-service/internal/app"
	"speech-translation-service/internal/config"
	httpapi "speech-translation-service/internal/http"
	"speech-translation-service/internal/observability"
	"speech-translation-service/internal/observability/logging"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP, gRPC and metrics servers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg *config.Configuration) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	if err := application.Start(ctx); err != nil {
		application.Shutdown(context.Background())
		return err
	}
	logger := application.Logger

	obs := observability.NewServer(":"+cfg.Observability.MetricsPort, prometheus.DefaultGatherer)
	obs.Start()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(application),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		application.Shutdown(context.Background())
		return fmt.Errorf("failed to listen: %w", err)
	}
	grpcServer, healthServer := grpcapi.NewServer(application.Pipeline, application.Metrics, logging.WithComponent("grpc"))
	grpcErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Msg("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			grpcErr <- err
		}
	}()

	obs.SetReady(true)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-httpErr:
		logger.Error().Err(runErr).Msg("HTTP server failed")
	case runErr = <-grpcErr:
		logger.Error().Err(runErr).Msg("gRPC server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	obs.SetReady(false)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP server shutdown error")
	}
	application.Shutdown(shutdownCtx)
	if err := obs.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Observability server shutdown error")
	}

	logger.Info().Msg("Shutdown complete")
	return runErr
}
