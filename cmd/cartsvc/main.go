package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/pkg/cartsvc"
	"github.com/example/storefront/pkg/catalog"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/grpc"
	"github.com/example/storefront/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/cartsvc.yaml", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting cart service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	products, closeCatalog, err := catalog.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	defer closeCatalog()
	logger.Info("Catalog loaded",
		zap.String("source", cfg.Catalog.Source),
		zap.Int("products", len(products.All())))

	// Redis
	carts := repository.NewRedisCartRepository(&cfg.Redis)
	defer carts.Close()
	if err := carts.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	gin.SetMode(gin.ReleaseMode)
	server := cartsvc.NewServer(carts, products, logger.Named("cartsvc"))

	health := grpc.NewHealthServer(cfg.Server.Name, logger.Named("health"))
	go func() {
		if err := health.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort)); err != nil {
			logger.Error("gRPC health server stopped", zap.Error(err))
		}
	}()
	defer health.Stop()

	// Register in etcd for service discovery
	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
		Path: "/api",
	}
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd)
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		sd = nil
	} else {
		defer sd.Close()
		// the lease is kept alive until ctx is cancelled
		if err := sd.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register service", zap.Error(err))
		} else {
			logger.Info("Service registered in etcd", zap.String("address", instance.Addr()))
		}
	}

	health.SetServing(true)
	if err := server.Start(ctx, cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server error", zap.Error(err))
	}
	health.SetServing(false)

	if sd != nil {
		deregCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := sd.Deregister(deregCtx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
		cancel()
	}

	logger.Info("Service stopped")
}
