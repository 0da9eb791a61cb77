// Package cartsvc serves the cart REST API the storefront's cart store talks
// to.
package cartsvc

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/example/storefront/pkg/middleware"
	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductLookup resolves the product copied into a new cart line.
type ProductLookup interface {
	GetByID(id string) (models.Product, bool)
}

type Server struct {
	repo     Repository
	products ProductLookup
	logger   *zap.Logger
	router   *gin.Engine
	now      func() time.Time

	// serializes every write to the same shopper's cart within this process
	locks sync.Map
}

func NewServer(repo Repository, products ProductLookup, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	s := &Server{
		repo:     repo,
		products: products,
		logger:   logger,
		router:   router,
		now:      time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is done, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Cart service started", zap.String("address", addr))
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

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	cart := s.router.Group("/api/cart/:userId")
	{
		cart.GET("", s.getCart)
		cart.POST("/add", s.addItem)
		cart.DELETE("/remove/:productId", s.removeItem)
		cart.PUT("/update", s.updateItem)
		cart.DELETE("/clear", s.clearCart)
	}
}

type itemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) lock(userID string) func() {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (s *Server) getCart(c *gin.Context) {
	lines, err := s.repo.Lines(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.internalError(c, "Failed to fetch cart", err)
		return
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	c.JSON(http.StatusOK, lines)
}

func (s *Server) addItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be at least 1"})
		return
	}

	product, ok := s.products.GetByID(req.ProductID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	userID := c.Param("userId")
	defer s.lock(userID)()

	line, err := s.addLine(c.Request.Context(), userID, product, req.Quantity)
	if err != nil {
		s.internalError(c, "Failed to add item to cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "added", "item": line})
}

func (s *Server) addLine(ctx context.Context, userID string, product models.Product, quantity int) (models.CartLine, error) {
	line, found, err := s.repo.Get(ctx, userID, product.ID)
	if err != nil {
		return models.CartLine{}, err
	}
	if found {
		line.Quantity += quantity
	} else {
		line = models.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Quantity:  quantity,
			AddedAt:   s.now(),
		}
	}
	return line, s.repo.Put(ctx, userID, line)
}

func (s *Server) removeItem(c *gin.Context) {
	userID := c.Param("userId")
	defer s.lock(userID)()

	if err := s.repo.Delete(c.Request.Context(), userID, c.Param("productId")); err != nil {
		s.internalError(c, "Failed to remove item from cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (s *Server) updateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.Param("userId")
	defer s.lock(userID)()

	if req.Quantity <= 0 {
		if err := s.repo.Delete(ctx, userID, req.ProductID); err != nil {
			s.internalError(c, "Failed to remove item from cart", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "removed"})
		return
	}

	line, found, err := s.repo.Get(ctx, userID, req.ProductID)
	if err != nil {
		s.internalError(c, "Failed to update cart item", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
		return
	}
	line.Quantity = req.Quantity
	if err := s.repo.Put(ctx, userID, line); err != nil {
		s.internalError(c, "Failed to update cart item", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "item": line})
}

func (s *Server) clearCart(c *gin.Context) {
	userID := c.Param("userId")
	defer s.lock(userID)()

	if err := s.repo.Clear(c.Request.Context(), userID); err != nil {
		s.internalError(c, "Failed to clear cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	if errors.Is(err, context.Canceled) {
		c.Status(499)
		return
	}
	s.logger.Error(msg, zap.String("user_id", c.Param("userId")), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
