package session

import (
	"github.com/example/storefront/pkg/models"
	"github.com/shopspring/decimal"
)

// Catalog messages
type (
	Search struct {
		Term string
	}

	// SetFilters updates the non-empty criteria and recomputes the view.
	SetFilters struct {
		Category string
		MinPrice *decimal.Decimal
		MaxPrice *decimal.Decimal
		SortKey  string
	}

	ListProducts   struct{}
	ListCategories struct{}

	GetProduct struct {
		ID string
	}
)

// Cart messages
type (
	GetCart struct{}

	AddToCart struct {
		Ref      models.ProductRef
		Quantity int
	}

	RemoveFromCart struct {
		ProductID string
	}

	SetQuantity struct {
		ProductID string
		Quantity  int
	}

	ClearCart struct{}
)

// Order messages
type (
	PlaceOrder struct {
		Shipping models.ShippingInfo
	}

	CancelOrder struct {
		OrderID string
	}

	ReplaceOrder struct {
		OrderID string
	}

	OrderHistory struct{}

	GetOrder struct {
		OrderID string
	}
)

// CartView is the cart as shown to the shopper.
type CartView struct {
	Items []models.CartLine `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

type reply struct {
	value any
	err   error
}
