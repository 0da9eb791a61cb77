package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product in a cart, with name, price and image copied at the
// time it was added.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at,omitempty"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// UnmarshalJSON accepts the identity under either "product_id" or "id".
func (l *CartLine) UnmarshalJSON(data []byte) error {
	type plain CartLine
	var aux struct {
		plain
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*l = CartLine(aux.plain)
	if l.ProductID == "" {
		l.ProductID = aux.ID
	}
	return nil
}

// CloneLines copies a slice of lines so the result shares nothing with src.
func CloneLines(src []CartLine) []CartLine {
	if src == nil {
		return []CartLine{}
	}
	out := make([]CartLine, len(src))
	copy(out, src)
	return out
}
