package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCancelled OrderStatus = "cancelled"
	OrderCompleted OrderStatus = "completed"
)

type ShippingInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

var validate = validator.New()

// Normalized returns a copy with surrounding whitespace trimmed from every field.
func (s ShippingInfo) Normalized() ShippingInfo {
	return ShippingInfo{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Email:     strings.TrimSpace(s.Email),
		Address:   strings.TrimSpace(s.Address),
		City:      strings.TrimSpace(s.City),
		State:     strings.TrimSpace(s.State),
		ZipCode:   strings.TrimSpace(s.ZipCode),
		Phone:     strings.TrimSpace(s.Phone),
	}
}

// Validate checks that every field is non-blank. No format checks are made.
func (s ShippingInfo) Validate() error {
	return validate.Struct(s.Normalized())
}

type Order struct {
	ID       string          `json:"id"`
	Items    []CartLine      `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Status   OrderStatus     `json:"status"`
	PlacedAt time.Time       `json:"date"`
	Shipping ShippingInfo    `json:"shippingInfo"`
}

// Clone returns a copy whose Items slice is not shared with o.
func (o Order) Clone() Order {
	o.Items = CloneLines(o.Items)
	return o
}

// OrderEvent is the audit record of an order transition.
type OrderEvent struct {
	Action  string          `json:"action"`
	OrderID string          `json:"order_id"`
	Status  OrderStatus     `json:"status"`
	Total   decimal.Decimal `json:"total"`
	At      time.Time       `json:"at"`
}
