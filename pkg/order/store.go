// Package order keeps the shopper's placed orders and their status.
package order

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartSource is the part of the cart the order store snapshots and clears.
type CartSource interface {
	Lines() []models.CartLine
	Total() decimal.Decimal
	Clear(ctx context.Context) error
}

// Journal receives every order transition.
type Journal interface {
	Record(ctx context.Context, event models.OrderEvent) error
}

const (
	ActionPlaced    = "place_order"
	ActionCancelled = "cancel_order"
	ActionReplaced  = "replace_order"
)

type Store struct {
	cart    CartSource
	journal Journal
	logger  *zap.Logger
	now     func() time.Time
	newID   func(time.Time) string

	mu     sync.RWMutex
	orders []models.Order
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces GenerateID. The generator must not keep returning
// ids already in use; PlaceOrder and ReplaceOrder give up after a few clashes.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithJournal(j Journal) Option {
	return func(s *Store) { s.journal = j }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func New(cart CartSource, opts ...Option) *Store {
	s := &Store{
		cart:   cart,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  GenerateID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateID returns an id of the form ORD-<unix millis>-<9 hex chars>.
func GenerateID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("ORD-%d-%s", at.UnixMilli(), suffix)
}

// PlaceOrder snapshots the cart into a new pending order and clears the cart.
// A failed cart clear is logged; the order stays placed.
func (s *Store) PlaceOrder(ctx context.Context, shipping models.ShippingInfo) (models.Order, error) {
	if err := shipping.Validate(); err != nil {
		return models.Order{}, apperr.Invalid("shipping info: %v", err)
	}

	s.mu.Lock()
	lines := s.cart.Lines()
	if len(lines) == 0 {
		s.mu.Unlock()
		return models.Order{}, apperr.Invalid("cart is empty")
	}

	placed := s.now()
	id, err := s.uniqueID(placed)
	if err != nil {
		s.mu.Unlock()
		return models.Order{}, err
	}
	o := models.Order{
		ID:       id,
		Items:    models.CloneLines(lines),
		Total:    s.cart.Total(),
		Status:   models.OrderPending,
		PlacedAt: placed,
		Shipping: shipping.Normalized(),
	}
	s.orders = append(s.orders, o)
	if err := s.cart.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear cart after placing order", zap.String("order_id", o.ID), zap.Error(err))
	}
	s.mu.Unlock()

	s.logger.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Int("item_count", len(o.Items)),
		zap.String("total", o.Total.StringFixed(2)))
	s.record(ctx, ActionPlaced, o)
	return o.Clone(), nil
}

// CancelOrder moves a pending order to cancelled and reports whether anything
// changed. Only pending orders can be cancelled: cancelled and completed
// orders keep their status, and unknown ids are ignored.
func (s *Store) CancelOrder(ctx context.Context, orderID string) bool {
	s.mu.Lock()
	i := s.indexOf(orderID)
	if i < 0 || s.orders[i].Status != models.OrderPending {
		s.mu.Unlock()
		return false
	}
	s.orders[i].Status = models.OrderCancelled
	o := s.orders[i].Clone()
	s.mu.Unlock()

	s.logger.Info("Order cancelled", zap.String("order_id", orderID))
	s.record(ctx, ActionCancelled, o)
	return true
}

// ReplaceOrder places a copy of an existing order, in any status, under a new
// id and timestamp with status pending. The original is not modified.
func (s *Store) ReplaceOrder(ctx context.Context, orderID string) (models.Order, error) {
	s.mu.Lock()
	i := s.indexOf(orderID)
	if i < 0 {
		s.mu.Unlock()
		return models.Order{}, apperr.NotFound("order", orderID)
	}

	placed := s.now()
	id, err := s.uniqueID(placed)
	if err != nil {
		s.mu.Unlock()
		return models.Order{}, err
	}
	o := s.orders[i].Clone()
	o.ID = id
	o.PlacedAt = placed
	o.Status = models.OrderPending
	s.orders = append(s.orders, o)
	s.mu.Unlock()

	s.logger.Info("Order replaced", zap.String("original_id", orderID), zap.String("order_id", o.ID))
	s.record(ctx, ActionReplaced, o)
	return o.Clone(), nil
}

// History returns every order, most recently placed first. Orders placed at
// the same instant keep their insertion order.
func (s *Store) History() []models.Order {
	s.mu.RLock()
	out := make([]models.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.Clone()
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlacedAt.After(out[j].PlacedAt)
	})
	return out
}

func (s *Store) GetByID(orderID string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(orderID); i >= 0 {
		return s.orders[i].Clone(), true
	}
	return models.Order{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// caller holds s.mu
func (s *Store) indexOf(orderID string) int {
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			return i
		}
	}
	return -1
}

// maxIDAttempts bounds how often a clashing id is regenerated.
const maxIDAttempts = 8

// uniqueID draws ids until one is unused. The caller holds s.mu.
func (s *Store) uniqueID(at time.Time) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID(at)
		if s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique order id after %d attempts", maxIDAttempts)
}

func (s *Store) record(ctx context.Context, action string, o models.Order) {
	if s.journal == nil {
		return
	}
	event := models.OrderEvent{
		Action:  action,
		OrderID: o.ID,
		Status:  o.Status,
		Total:   o.Total,
		At:      s.now(),
	}
	if err := s.journal.Record(ctx, event); err != nil {
		s.logger.Warn("Failed to record order event",
			zap.String("action", action),
			zap.String("order_id", o.ID),
			zap.Error(err))
	}
}
