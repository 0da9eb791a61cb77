package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRef_ResolveID(t *testing.T) {
	assert.Equal(t, "p1", ProductRef{ProductID: "p1", ID: "x"}.ResolveID())
	assert.Equal(t, "x", ProductRef{ID: "x"}.ResolveID())
	assert.Equal(t, "", ProductRef{}.ResolveID())
}

func TestCartLine_UnmarshalJSON(t *testing.T) {
	t.Run("product_id", func(t *testing.T) {
		var l CartLine
		require.NoError(t, json.Unmarshal([]byte(`{"product_id":"p1","name":"A","price":10.5,"quantity":2}`), &l))
		assert.Equal(t, "p1", l.ProductID)
		assert.True(t, decimal.RequireFromString("21").Equal(l.Subtotal()))
	})

	t.Run("id fallback", func(t *testing.T) {
		var l CartLine
		require.NoError(t, json.Unmarshal([]byte(`{"id":"p2","price":"3","quantity":1}`), &l))
		assert.Equal(t, "p2", l.ProductID)
		assert.Equal(t, 1, l.Quantity)
	})
}

func TestShippingInfo_Validate(t *testing.T) {
	info := ShippingInfo{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		Address: "1 Main St", City: "London", State: "LDN", ZipCode: "00001", Phone: "555",
	}
	assert.NoError(t, info.Validate())

	info.City = "   "
	assert.Error(t, info.Validate())
}

func TestOrder_Clone(t *testing.T) {
	o := Order{ID: "o1", Items: []CartLine{{ProductID: "p1", Quantity: 1}}}
	c := o.Clone()
	c.Items[0].Quantity = 5
	assert.Equal(t, 1, o.Items[0].Quantity)
}
