package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCart struct {
	lines    []models.CartLine
	clearErr error
	cleared  int
}

func (c *fakeCart) Lines() []models.CartLine { return models.CloneLines(c.lines) }

func (c *fakeCart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *fakeCart) Clear(context.Context) error {
	if c.clearErr != nil {
		return c.clearErr
	}
	c.cleared++
	c.lines = nil
	return nil
}

type memJournal struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (j *memJournal) Record(_ context.Context, e models.OrderEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
	return nil
}

func (j *memJournal) actions() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.events))
	for i, e := range j.events {
		out[i] = e.Action
	}
	return out
}

// fixedClock returns the same instant until advanced.
type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func counterIDs() func(time.Time) string {
	n := 0
	return func(time.Time) string {
		n++
		return fmt.Sprintf("ORD-%d", n)
	}
}

func shipping() models.ShippingInfo {
	return models.ShippingInfo{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		Address: "1 Main St", City: "London", State: "LDN", ZipCode: "00001", Phone: "555",
	}
}

func filledCart() *fakeCart {
	return &fakeCart{lines: []models.CartLine{
		{ProductID: "p1", Name: "Mug", Price: decimal.RequireFromString("4.25"), Quantity: 2},
		{ProductID: "p2", Name: "Tea", Price: decimal.RequireFromString("10"), Quantity: 1},
	}}
}

func TestGenerateID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	id := GenerateID(at)
	assert.Regexp(t, regexp.MustCompile(`^ORD-1700000000123-[0-9a-f]{9}$`), id)
	assert.NotEqual(t, id, GenerateID(at))
}

func TestStore_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots_and_clears_cart", func(t *testing.T) {
		cart := filledCart()
		want := cart.Lines()
		journal := &memJournal{}
		s := New(cart, WithJournal(journal))

		o, err := s.PlaceOrder(ctx, shipping())
		require.NoError(t, err)

		assert.Empty(t, cart.Lines())
		assert.Equal(t, 1, s.Len())
		assert.Equal(t, want, o.Items)
		assert.Equal(t, "18.5", o.Total.String())
		assert.Equal(t, models.OrderPending, o.Status)
		assert.Equal(t, []string{ActionPlaced}, journal.actions())
	})

	t.Run("snapshot_is_independent_of_cart", func(t *testing.T) {
		cart := filledCart()
		s := New(cart)
		o, err := s.PlaceOrder(ctx, shipping())
		require.NoError(t, err)

		cart.lines = []models.CartLine{{ProductID: "p9", Quantity: 7}}
		stored, ok := s.GetByID(o.ID)
		require.True(t, ok)
		assert.Len(t, stored.Items, 2)
		assert.Equal(t, "p1", stored.Items[0].ProductID)
	})

	t.Run("empty_cart", func(t *testing.T) {
		s := New(&fakeCart{})
		_, err := s.PlaceOrder(ctx, shipping())
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		assert.Zero(t, s.Len())
	})

	t.Run("blank_shipping_field", func(t *testing.T) {
		cart := filledCart()
		s := New(cart)
		info := shipping()
		info.Phone = " "
		_, err := s.PlaceOrder(ctx, info)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		assert.Len(t, cart.Lines(), 2)
	})

	t.Run("clear_failure_keeps_order", func(t *testing.T) {
		cart := filledCart()
		cart.clearErr = errors.New("remote down")
		s := New(cart)
		_, err := s.PlaceOrder(ctx, shipping())
		require.NoError(t, err)
		assert.Equal(t, 1, s.Len())
	})
}

func TestStore_CancelOrder(t *testing.T) {
	ctx := context.Background()
	s := New(filledCart(), WithIDGenerator(counterIDs()))
	o, err := s.PlaceOrder(ctx, shipping())
	require.NoError(t, err)

	t.Run("unknown_id_is_noop", func(t *testing.T) {
		before := s.History()
		assert.False(t, s.CancelOrder(ctx, "ORD-missing"))
		assert.Equal(t, before, s.History())
	})

	t.Run("pending_to_cancelled", func(t *testing.T) {
		assert.True(t, s.CancelOrder(ctx, o.ID))
		got, _ := s.GetByID(o.ID)
		assert.Equal(t, models.OrderCancelled, got.Status)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("already_cancelled", func(t *testing.T) {
		assert.False(t, s.CancelOrder(ctx, o.ID))
	})

	t.Run("completed_is_left_alone", func(t *testing.T) {
		cart := filledCart()
		journal := &memJournal{}
		s := New(cart, WithJournal(journal))
		done, err := s.PlaceOrder(ctx, shipping())
		require.NoError(t, err)
		s.orders[s.indexOf(done.ID)].Status = models.OrderCompleted

		assert.False(t, s.CancelOrder(ctx, done.ID))
		got, _ := s.GetByID(done.ID)
		assert.Equal(t, models.OrderCompleted, got.Status)
		assert.Equal(t, []string{ActionPlaced}, journal.actions())
	})
}

func TestStore_ReplaceOrder(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	journal := &memJournal{}
	s := New(filledCart(), WithClock(clock.now), WithJournal(journal))

	o, err := s.PlaceOrder(ctx, shipping())
	require.NoError(t, err)
	require.True(t, s.CancelOrder(ctx, o.ID))

	clock.advance(time.Hour)
	r, err := s.ReplaceOrder(ctx, o.ID)
	require.NoError(t, err)

	assert.NotEqual(t, o.ID, r.ID)
	assert.Equal(t, models.OrderPending, r.Status)
	assert.Equal(t, o.Items, r.Items)
	assert.True(t, o.Total.Equal(r.Total))
	assert.Equal(t, o.Shipping, r.Shipping)
	assert.Equal(t, clock.now(), r.PlacedAt)

	orig, ok := s.GetByID(o.ID)
	require.True(t, ok)
	assert.Equal(t, models.OrderCancelled, orig.Status)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{ActionPlaced, ActionCancelled, ActionReplaced}, journal.actions())

	_, err = s.ReplaceOrder(ctx, "ORD-missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStore_History(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	cart := filledCart()
	s := New(cart, WithClock(clock.now), WithIDGenerator(counterIDs()))

	place := func() models.Order {
		cart.lines = filledCart().lines
		o, err := s.PlaceOrder(ctx, shipping())
		require.NoError(t, err)
		return o
	}

	first := place()
	second := place() // same instant as first
	clock.advance(time.Minute)
	third := place()

	var got []string
	for _, o := range s.History() {
		got = append(got, o.ID)
	}
	assert.Equal(t, []string{third.ID, first.ID, second.ID}, got)
}

func TestStore_UniqueIDOnClash(t *testing.T) {
	ctx := context.Background()
	ids := []string{"ORD-1", "ORD-1", "ORD-2"}
	gen := func(time.Time) string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	cart := filledCart()
	s := New(cart, WithIDGenerator(gen))

	a, err := s.PlaceOrder(ctx, shipping())
	require.NoError(t, err)
	cart.lines = filledCart().lines
	b, err := s.PlaceOrder(ctx, shipping())
	require.NoError(t, err)

	assert.Equal(t, "ORD-1", a.ID)
	assert.Equal(t, "ORD-2", b.ID)
}

func TestStore_IDGeneratorExhausted(t *testing.T) {
	ctx := context.Background()
	cart := filledCart()
	s := New(cart, WithIDGenerator(func(time.Time) string { return "ORD-1" }))

	_, err := s.PlaceOrder(ctx, shipping())
	require.NoError(t, err)

	cart.lines = filledCart().lines
	_, err = s.PlaceOrder(ctx, shipping())
	assert.ErrorContains(t, err, "unique order id")
	assert.Equal(t, 1, s.Len())
	assert.Len(t, cart.Lines(), 2, "cart is kept when no order was placed")

	_, err = s.ReplaceOrder(ctx, "ORD-1")
	assert.Error(t, err)
	assert.Equal(t, 1, s.Len())
}
