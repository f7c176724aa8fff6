package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/product-catalog/internal/adapter/handler"
	"github.com/rl1809/product-catalog/internal/config"
	"github.com/rl1809/product-catalog/internal/core/service"
	"github.com/rl1809/product-catalog/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("CATALOG_CONFIG"), "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Default().Fatalw("failed to load config", "error", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		logger.Default().Fatalw("failed to build logger", "error", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := setupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalw("failed to set up tracing", "error", err)
	}

	repo, closeRepo, err := openRepository(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatalw("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
	}

	catalog := service.NewCatalogService(repo, service.WithLogger(log))

	// gRPC
	grpcServer := grpc.NewServer()
	handler.RegisterCatalogServer(grpcServer, handler.NewGRPCHandler(catalog))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(handler.CatalogServiceName, healthpb.HealthCheckResponse_SERVING)

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalw("failed to listen", "addr", cfg.GRPCAddr, "error", err)
		}
		go func() {
			log.Infow("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				log.Errorw("gRPC server error", "error", err)
			}
		}()
	}

	// HTTP
	httpHandler := handler.NewHTTPHandler(catalog, log)
	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpHandler.Router(handler.RouterOptions{
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		}),
	}

	if cfg.HTTPAddr != "" {
		go func() {
			log.Infow("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("HTTP server error", "error", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("HTTP shutdown", "error", err)
	}
	log.Infow("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Infow("gRPC server stopped")

	closeRepo()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warnw("tracer shutdown", "error", err)
	}
	log.Infow("connections closed")
}

// setupTracing installs an OTLP/HTTP exporter when endpoint is set. endpoint
// is a base URL; the exporter appends /v1/traces. Without one the global
// no-op provider stays in place.
func setupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
