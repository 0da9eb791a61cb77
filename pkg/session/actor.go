package session

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/cart"
	"github.com/example/storefront/pkg/catalog"
	"github.com/example/storefront/pkg/order"
	"go.uber.org/zap"
)

// Stores are the three stores a shopper session owns.
type Stores struct {
	Catalog *catalog.Store
	Cart    *cart.Store
	Orders  *order.Store
}

// shopperActor runs every UI event for one shopper to completion before
// taking the next, so the stores never see interleaved operations.
type shopperActor struct {
	stores        Stores
	logger        *zap.Logger
	remoteTimeout time.Duration
}

func (a *shopperActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.logger.Info("Shopper session started")
		rctx, cancel := a.remote()
		defer cancel()
		if err := a.stores.Cart.Load(rctx); err != nil {
			a.logger.Warn("Starting with an empty cart", zap.Error(err))
		}

	case *actor.Stopping:
		a.logger.Info("Shopper session stopping")

	case *Search:
		ctx.Respond(&reply{value: a.stores.Catalog.Search(msg.Term)})

	case *SetFilters:
		c := a.stores.Catalog
		if msg.Category != "" {
			c.SetCategory(msg.Category)
		}
		if msg.MinPrice != nil || msg.MaxPrice != nil {
			_, lo, hi, _ := c.Criteria()
			if msg.MinPrice != nil {
				lo = *msg.MinPrice
			}
			if msg.MaxPrice != nil {
				hi = *msg.MaxPrice
			}
			if lo.GreaterThan(hi) {
				ctx.Respond(&reply{err: apperr.Invalid("min price %s exceeds max price %s", lo, hi)})
				return
			}
			c.SetPriceRange(lo, hi)
		}
		if msg.SortKey != "" {
			c.SetSortKey(msg.SortKey)
		}
		ctx.Respond(&reply{value: c.ApplyFilters()})

	case *ListProducts:
		ctx.Respond(&reply{value: a.stores.Catalog.Products()})

	case *ListCategories:
		ctx.Respond(&reply{value: a.stores.Catalog.Categories()})

	case *GetProduct:
		p, ok := a.stores.Catalog.GetByID(msg.ID)
		if !ok {
			ctx.Respond(&reply{err: apperr.NotFound("product", msg.ID)})
			return
		}
		ctx.Respond(&reply{value: p})

	case *GetCart:
		ctx.Respond(&reply{value: a.cartView()})

	case *AddToCart:
		a.respondCart(ctx, func(rctx context.Context) error {
			return a.stores.Cart.AddItem(rctx, msg.Ref, msg.Quantity)
		})

	case *RemoveFromCart:
		a.respondCart(ctx, func(rctx context.Context) error {
			return a.stores.Cart.RemoveItem(rctx, msg.ProductID)
		})

	case *SetQuantity:
		a.respondCart(ctx, func(rctx context.Context) error {
			return a.stores.Cart.SetQuantity(rctx, msg.ProductID, msg.Quantity)
		})

	case *ClearCart:
		a.respondCart(ctx, a.stores.Cart.Clear)

	case *PlaceOrder:
		rctx, cancel := a.remote()
		defer cancel()
		o, err := a.stores.Orders.PlaceOrder(rctx, msg.Shipping)
		ctx.Respond(&reply{value: o, err: err})

	case *CancelOrder:
		rctx, cancel := a.remote()
		defer cancel()
		ctx.Respond(&reply{value: a.stores.Orders.CancelOrder(rctx, msg.OrderID)})

	case *ReplaceOrder:
		rctx, cancel := a.remote()
		defer cancel()
		o, err := a.stores.Orders.ReplaceOrder(rctx, msg.OrderID)
		ctx.Respond(&reply{value: o, err: err})

	case *OrderHistory:
		ctx.Respond(&reply{value: a.stores.Orders.History()})

	case *GetOrder:
		o, ok := a.stores.Orders.GetByID(msg.OrderID)
		if !ok {
			ctx.Respond(&reply{err: apperr.NotFound("order", msg.OrderID)})
			return
		}
		ctx.Respond(&reply{value: o})
	}
}

func (a *shopperActor) remote() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.remoteTimeout)
}

func (a *shopperActor) cartView() CartView {
	return CartView{
		Items: a.stores.Cart.Lines(),
		Total: a.stores.Cart.Total(),
	}
}

// respondCart runs a cart mutation and answers with the resulting cart view,
// or the error and the unchanged view.
func (a *shopperActor) respondCart(ctx actor.Context, op func(context.Context) error) {
	rctx, cancel := a.remote()
	defer cancel()
	err := op(rctx)
	ctx.Respond(&reply{value: a.cartView(), err: err})
}
