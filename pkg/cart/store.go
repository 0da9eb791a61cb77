// Package cart keeps the shopper's cart as a local cache of the remote cart
// service.
package cart

import (
	"context"
	"sync"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store caches the remote cart. Every successful mutation invalidates the
// cache and reloads it from the remote, so the last reload always wins. A
// failed remote call leaves the cache untouched.
type Store struct {
	remote Remote
	logger *zap.Logger

	mu    sync.RWMutex
	lines []models.CartLine
}

func NewStore(remote Remote, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		remote: remote,
		logger: logger,
		lines:  []models.CartLine{},
	}
}

// Load replaces the cache with the remote cart.
func (s *Store) Load(ctx context.Context) error {
	lines, err := s.remote.Fetch(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch cart", zap.Error(err))
		return err
	}
	s.replace(lines)
	return nil
}

// invalidate drops the cached lines in favour of a fresh remote read.
func (s *Store) invalidate(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Store) replace(lines []models.CartLine) {
	kept := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	s.mu.Lock()
	s.lines = kept
	s.mu.Unlock()
}

// AddItem adds quantity units of ref to the cart. A quantity below 1 adds one
// unit. Errors are returned to the caller so a workflow can abort.
func (s *Store) AddItem(ctx context.Context, ref models.ProductRef, quantity int) error {
	id := ref.ResolveID()
	if id == "" {
		s.logger.Error("Product ID not found", zap.Any("product", ref))
		return apperr.Invalid("product id is required")
	}
	if quantity < 1 {
		quantity = 1
	}

	if err := s.remote.Add(ctx, id, quantity); err != nil {
		s.logger.Error("Failed to add item to cart",
			zap.String("product_id", id),
			zap.Int("quantity", quantity),
			zap.Error(err))
		return err
	}
	return s.invalidate(ctx)
}

// RemoveItem removes the line for productID. Removing an absent product is not
// an error.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	if err := s.remote.Remove(ctx, productID); err != nil {
		s.logger.Error("Failed to remove item from cart", zap.String("product_id", productID), zap.Error(err))
		return err
	}
	return s.invalidate(ctx)
}

// SetQuantity sets the quantity of productID. A quantity of zero or less is
// sent as a removal so that no line is ever stored at 0.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	if err := s.remote.Update(ctx, productID, quantity); err != nil {
		s.logger.Error("Failed to update cart quantity",
			zap.String("product_id", productID),
			zap.Int("quantity", quantity),
			zap.Error(err))
		return err
	}
	return s.invalidate(ctx)
}

// Clear empties the remote cart and then the cache, without a reload.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.remote.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear cart", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.lines = []models.CartLine{}
	s.mu.Unlock()
	return nil
}

// Lines returns a copy of the cached lines.
func (s *Store) Lines() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneLines(s.lines)
}

// Total is the sum of price × quantity over the cached lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *Store) QuantityOf(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}
