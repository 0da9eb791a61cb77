package models

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	Rating      float64         `gorm:"type:decimal(2,1)" json:"rating"`
	Stock       int             `json:"stock"`
	Image       string          `gorm:"type:varchar(512)" json:"image"`
	Position    int             `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// Ref returns the reference used to put this product into a cart.
func (p Product) Ref() ProductRef {
	return ProductRef{ID: p.ID}
}

// ProductRef identifies a product on add-to-cart. Callers may send either the
// denormalized product_id or the canonical id.
type ProductRef struct {
	ProductID string `json:"product_id,omitempty"`
	ID        string `json:"id,omitempty"`
}

// ResolveID returns product_id if set, else id, else "".
func (r ProductRef) ResolveID() string {
	if r.ProductID != "" {
		return r.ProductID
	}
	return r.ID
}
