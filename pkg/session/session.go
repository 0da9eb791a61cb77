// Package session hosts a shopper's catalog, cart and order stores behind a
// single actor.
package session

import (
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

type Options struct {
	// Name of the actor, unique within the actor system.
	Name string
	// RequestTimeout bounds how long a caller waits for a reply, including
	// time spent queued behind other events.
	RequestTimeout time.Duration
	// RemoteTimeout bounds each cart service round-trip.
	RemoteTimeout time.Duration
}

type Session struct {
	system  *actor.ActorSystem
	pid     *actor.PID
	timeout time.Duration
}

func New(system *actor.ActorSystem, stores Stores, logger *zap.Logger, opts Options) (*Session, error) {
	if opts.Name == "" {
		opts.Name = "shopper"
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 10 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * opts.RemoteTimeout
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return &shopperActor{
			stores:        stores,
			logger:        logger.Named(opts.Name),
			remoteTimeout: opts.RemoteTimeout,
		}
	})
	pid, err := system.Root.SpawnNamed(props, opts.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn shopper actor: %w", err)
	}

	return &Session{
		system:  system,
		pid:     pid,
		timeout: opts.RequestTimeout,
	}, nil
}

func (s *Session) request(msg any) (any, error) {
	result, err := s.system.Root.RequestFuture(s.pid, msg, s.timeout).Result()
	if err != nil {
		return nil, fmt.Errorf("session request %T: %w", msg, err)
	}
	r, ok := result.(*reply)
	if !ok {
		return nil, fmt.Errorf("session request %T: unexpected reply %T", msg, result)
	}
	return r.value, r.err
}

func ask[T any](s *Session, msg any) (T, error) {
	v, err := s.request(msg)
	t, _ := v.(T)
	return t, err
}

func (s *Session) Search(term string) ([]models.Product, error) {
	return ask[[]models.Product](s, &Search{Term: term})
}

func (s *Session) SetFilters(f SetFilters) ([]models.Product, error) {
	return ask[[]models.Product](s, &f)
}

func (s *Session) Products() ([]models.Product, error) {
	return ask[[]models.Product](s, &ListProducts{})
}

func (s *Session) Categories() ([]string, error) {
	return ask[[]string](s, &ListCategories{})
}

func (s *Session) Product(id string) (models.Product, error) {
	return ask[models.Product](s, &GetProduct{ID: id})
}

func (s *Session) Cart() (CartView, error) {
	return ask[CartView](s, &GetCart{})
}

func (s *Session) AddToCart(ref models.ProductRef, quantity int) (CartView, error) {
	return ask[CartView](s, &AddToCart{Ref: ref, Quantity: quantity})
}

func (s *Session) RemoveFromCart(productID string) (CartView, error) {
	return ask[CartView](s, &RemoveFromCart{ProductID: productID})
}

func (s *Session) SetQuantity(productID string, quantity int) (CartView, error) {
	return ask[CartView](s, &SetQuantity{ProductID: productID, Quantity: quantity})
}

func (s *Session) ClearCart() (CartView, error) {
	return ask[CartView](s, &ClearCart{})
}

func (s *Session) PlaceOrder(shipping models.ShippingInfo) (models.Order, error) {
	return ask[models.Order](s, &PlaceOrder{Shipping: shipping})
}

func (s *Session) CancelOrder(orderID string) (bool, error) {
	return ask[bool](s, &CancelOrder{OrderID: orderID})
}

func (s *Session) ReplaceOrder(orderID string) (models.Order, error) {
	return ask[models.Order](s, &ReplaceOrder{OrderID: orderID})
}

func (s *Session) History() ([]models.Order, error) {
	return ask[[]models.Order](s, &OrderHistory{})
}

func (s *Session) Order(orderID string) (models.Order, error) {
	return ask[models.Order](s, &GetOrder{OrderID: orderID})
}

// Close stops the actor after it drains its mailbox.
func (s *Session) Close() error {
	return s.system.Root.PoisonFuture(s.pid).Wait()
}
