package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/middleware"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Storefront is what the gateway needs from a shopper session.
type Storefront interface {
	Search(term string) ([]models.Product, error)
	SetFilters(f session.SetFilters) ([]models.Product, error)
	Products() ([]models.Product, error)
	Categories() ([]string, error)
	Product(id string) (models.Product, error)

	Cart() (session.CartView, error)
	AddToCart(ref models.ProductRef, quantity int) (session.CartView, error)
	RemoveFromCart(productID string) (session.CartView, error)
	SetQuantity(productID string, quantity int) (session.CartView, error)
	ClearCart() (session.CartView, error)

	PlaceOrder(shipping models.ShippingInfo) (models.Order, error)
	CancelOrder(orderID string) (bool, error)
	ReplaceOrder(orderID string) (models.Order, error)
	History() ([]models.Order, error)
	Order(orderID string) (models.Order, error)
}

// EventReader returns the audit trail of an order, newest first.
type EventReader interface {
	OrderEvents(ctx context.Context, orderID string, limit int64) ([]models.OrderEvent, error)
}

type Gateway struct {
	config  *config.Config
	store   Storefront
	events  EventReader
	logger  *zap.Logger
	router  *gin.Engine
	handler http.Handler
}

func NewGateway(cfg *config.Config, logger *zap.Logger, store Storefront, events EventReader) *Gateway {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst).Middleware())

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Gateway.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	g := &Gateway{
		config:  cfg,
		store:   store,
		events:  events,
		logger:  logger,
		router:  router,
		handler: c.Handler(router),
	}
	g.SetupRoutes()
	return g
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", g.listProducts)
			products.POST("/search", g.searchProducts)
			products.PUT("/filters", g.setFilters)
			products.GET("/:id", g.getProduct)
		}
		v1.GET("/categories", g.listCategories)

		cart := v1.Group("/cart")
		{
			cart.GET("", g.getCart)
			cart.DELETE("", g.clearCart)
			cart.POST("/items", g.addToCart)
			cart.PUT("/items/:id", g.setQuantity)
			cart.DELETE("/items/:id", g.removeFromCart)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("", g.listOrders)
			orders.POST("", g.placeOrder)
			orders.GET("/:id", g.getOrder)
			orders.GET("/:id/events", g.orderEvents)
			orders.POST("/:id/cancel", g.cancelOrder)
			orders.POST("/:id/replace", g.replaceOrder)
		}
	}
}

func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Start serves until ctx is done, then shuts down gracefully.
func (g *Gateway) Start(ctx context.Context) error {
	addr := g.config.Gateway.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           g.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("Gateway starting", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (g *Gateway) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		g.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (g *Gateway) listProducts(c *gin.Context) {
	products, err := g.store.Products()
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

func (g *Gateway) searchProducts(c *gin.Context) {
	var req struct {
		Term string `json:"term"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	products, err := g.store.Search(req.Term)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

type filtersRequest struct {
	Category string           `json:"category"`
	MinPrice *decimal.Decimal `json:"min_price"`
	MaxPrice *decimal.Decimal `json:"max_price"`
	Sort     string           `json:"sort"`
}

func (g *Gateway) setFilters(c *gin.Context) {
	var req filtersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if (req.MinPrice != nil && req.MinPrice.IsNegative()) || (req.MaxPrice != nil && req.MaxPrice.IsNegative()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prices must not be negative"})
		return
	}

	products, err := g.store.SetFilters(session.SetFilters{
		Category: req.Category,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		SortKey:  req.Sort,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

func (g *Gateway) getProduct(c *gin.Context) {
	p, err := g.store.Product(c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (g *Gateway) listCategories(c *gin.Context) {
	cats, err := g.store.Categories()
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (g *Gateway) getCart(c *gin.Context) {
	view, err := g.store.Cart()
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type addItemRequest struct {
	models.ProductRef
	Quantity int `json:"quantity"`
}

func (g *Gateway) addToCart(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := g.store.AddToCart(req.ProductRef, req.Quantity)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (g *Gateway) setQuantity(c *gin.Context) {
	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := g.store.SetQuantity(c.Param("id"), *req.Quantity)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (g *Gateway) removeFromCart(c *gin.Context) {
	view, err := g.store.RemoveFromCart(c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (g *Gateway) clearCart(c *gin.Context) {
	view, err := g.store.ClearCart()
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (g *Gateway) listOrders(c *gin.Context) {
	orders, err := g.store.History()
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

func (g *Gateway) placeOrder(c *gin.Context) {
	var shipping models.ShippingInfo
	if err := c.ShouldBindJSON(&shipping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := g.store.PlaceOrder(shipping)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (g *Gateway) getOrder(c *gin.Context) {
	o, err := g.store.Order(c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (g *Gateway) cancelOrder(c *gin.Context) {
	id := c.Param("id")
	cancelled, err := g.store.CancelOrder(id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "cancelled": cancelled})
}

func (g *Gateway) replaceOrder(c *gin.Context) {
	o, err := g.store.ReplaceOrder(c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (g *Gateway) orderEvents(c *gin.Context) {
	if g.events == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order journal is not configured"})
		return
	}

	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	events, err := g.events.OrderEvents(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
			return
		}
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
