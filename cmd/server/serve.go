package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/invoice-dashboard/internal/adapter/handler"
	"github.com/rl1809/invoice-dashboard/internal/core/service"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	repo, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Infow("connected to database", "driver", cfg.Database.Driver)

	if cfg.Database.AutoMigrate {
		if err := migrateStore(ctx, repo); err != nil {
			return err
		}
		log.Infow("schema migrated")
	}

	cache, closeCache, err := openPageCache(ctx, cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeCache()
	log.Infow("page cache ready", "backend", cfg.Cache.Backend)

	invoiceService := service.NewInvoiceService(repo, cache, log)

	// gRPC server
	grpcServer := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, handler.NewGRPCHandler(repo, log))

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddress)
	if err != nil {
		return err
	}
	go func() {
		log.Infow("gRPC server listening", "address", cfg.Server.GRPCAddress)
		if err := grpcServer.Serve(lis); err != nil {
			log.Errorw("gRPC server error", "error", err)
		}
	}()

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	httpHandler := handler.NewHTTPHandler(invoiceService, cache, log)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddress,
		Handler: handler.NewRouter(httpHandler, log),
	}
	go func() {
		log.Infow("HTTP server listening", "address", cfg.Server.HTTPAddress)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("HTTP shutdown", "error", err)
	}
	log.Infow("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Infow("gRPC server stopped")

	return nil
}
