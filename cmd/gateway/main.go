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

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/gateway"
	"github.com/example/storefront/pkg/cart"
	"github.com/example/storefront/pkg/catalog"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/order"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
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

	logger.Info("Starting storefront gateway",
		zap.Int("port", cfg.Gateway.Port),
		zap.String("host", cfg.Gateway.Host))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup service discovery
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd)
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		sd = nil
	} else {
		defer sd.Close()
	}

	resolveCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	cartURL := sd.ResolveURL(resolveCtx, cfg.CartAPI.Service, cfg.CartAPI.BaseURL)
	cancel()
	logger.Info("Using cart service", zap.String("url", cartURL), zap.String("shopper_id", cfg.CartAPI.ShopperID))

	products, closeCatalog, err := catalog.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	defer closeCatalog()

	cartStore := cart.NewStore(
		cart.NewHTTPRemote(cartURL, cfg.CartAPI.ShopperID, &http.Client{Timeout: cfg.CartAPI.Timeout}),
		logger.Named("cart"),
	)

	orderOpts := []order.Option{order.WithLogger(logger.Named("orders"))}
	var events gateway.EventReader
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			logger.Warn("MongoDB unavailable, order journal disabled", zap.Error(err))
		} else {
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				mongoRepo.Close(closeCtx)
			}()
			orderOpts = append(orderOpts, order.WithJournal(mongoRepo))
			events = mongoRepo
		}
	}

	system := actor.NewActorSystem()
	sess, err := session.New(system, session.Stores{
		Catalog: products,
		Cart:    cartStore,
		Orders:  order.New(cartStore, orderOpts...),
	}, logger, session.Options{
		Name:           "shopper-" + cfg.CartAPI.ShopperID,
		RequestTimeout: cfg.Session.RequestTimeout,
		RemoteTimeout:  cfg.CartAPI.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to start shopper session", zap.Error(err))
	}
	defer sess.Close()

	gin.SetMode(gin.ReleaseMode)
	gw := gateway.NewGateway(cfg, logger.Named("gateway"), sess, events)

	if err := gw.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Gateway error", zap.Error(err))
	}

	logger.Info("Gateway stopped")
}
