package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/cart"
	"github.com/example/storefront/pkg/cartsvc"
	"github.com/example/storefront/pkg/catalog"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/order"
	"github.com/example/storefront/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubEvents struct {
	orderID string
}

func (s *stubEvents) OrderEvents(_ context.Context, orderID string, _ int64) ([]models.OrderEvent, error) {
	s.orderID = orderID
	return []models.OrderEvent{{Action: order.ActionPlaced, OrderID: orderID, Status: models.OrderPending}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Gateway:   config.GatewayConfig{AllowedOrigins: []string{"*"}},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
}

func newSession(t *testing.T, cartURL string, client *http.Client) *session.Session {
	t.Helper()
	products := catalog.New(catalog.Seed())
	cartStore := cart.NewStore(cart.NewHTTPRemote(cartURL, "1", client), zap.NewNop())
	s, err := session.New(actor.NewActorSystem(), session.Stores{
		Catalog: products,
		Cart:    cartStore,
		Orders:  order.New(cartStore),
	}, zap.NewNop(), session.Options{RequestTimeout: 5 * time.Second, RemoteTimeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestGateway(t *testing.T, cfg *config.Config, events EventReader) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := httptest.NewServer(cartsvc.NewServer(cartsvc.NewMemoryRepository(), catalog.New(catalog.Seed()), zap.NewNop()).Handler())
	t.Cleanup(svc.Close)
	return NewGateway(cfg, zap.NewNop(), newSession(t, svc.URL+"/api", svc.Client()), events).Handler()
}

func call(t *testing.T, h http.Handler, method, path, body string, out any) int {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

const shippingJSON = `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com",
	"address":"1 Main St","city":"London","state":"LDN","zipCode":"00001","phone":"555"}`

func TestGateway_Catalog(t *testing.T) {
	h := newTestGateway(t, testConfig(), nil)

	var cats struct{ Categories []string }
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/api/v1/categories", "", &cats))
	assert.Equal(t, []string{"All", "Electronics", "Accessories", "Home"}, cats.Categories)

	var list struct {
		Products []models.Product
		Total    int
	}
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodPut, "/api/v1/products/filters",
		`{"category":"Electronics","sort":"price-high"}`, &list))
	require.Equal(t, 4, list.Total)
	assert.Equal(t, []string{"2", "1", "9", "5"}, productIDs(list.Products))

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/v1/products/search", `{"term":"coffee"}`, &list))
	assert.Equal(t, 1, list.Total)

	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPut, "/api/v1/products/filters", `{"min_price":-1}`, nil))
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/v1/products/nope", "", nil))

	var p models.Product
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/api/v1/products/3", "", &p))
	assert.Equal(t, "Laptop Backpack", p.Name)
}

func TestGateway_CartAndOrders(t *testing.T) {
	events := &stubEvents{}
	h := newTestGateway(t, testConfig(), events)

	var view session.CartView
	assert.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, "/api/v1/cart/items", `{"product_id":"3","quantity":2}`, &view))
	assert.Equal(t, "99.98", view.Total.StringFixed(2))

	assert.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"4"}`, &view))
	assert.Len(t, view.Items, 2)

	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, "/api/v1/cart/items", `{"quantity":1}`, nil))

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodPut, "/api/v1/cart/items/3", `{"quantity":1}`, &view))
	assert.Equal(t, "129.98", view.Total.StringFixed(2))

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodDelete, "/api/v1/cart/items/4", "", &view))
	assert.Len(t, view.Items, 1)

	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, "/api/v1/orders", `{"firstName":"Ada"}`, nil))

	var placed models.Order
	assert.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, "/api/v1/orders", shippingJSON, &placed))
	assert.Equal(t, models.OrderPending, placed.Status)
	assert.Equal(t, "49.99", placed.Total.StringFixed(2))

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/api/v1/cart", "", &view))
	assert.Empty(t, view.Items)

	var cancelled struct{ Cancelled bool }
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/v1/orders/"+placed.ID+"/cancel", "", &cancelled))
	assert.True(t, cancelled.Cancelled)
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/v1/orders/ORD-nope/cancel", "", &cancelled))
	assert.False(t, cancelled.Cancelled)

	var replaced models.Order
	assert.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, "/api/v1/orders/"+placed.ID+"/replace", "", &replaced))
	assert.NotEqual(t, placed.ID, replaced.ID)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodPost, "/api/v1/orders/ORD-nope/replace", "", nil))

	var history struct {
		Orders []models.Order
		Total  int
	}
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/api/v1/orders", "", &history))
	assert.Equal(t, 2, history.Total)

	var got models.Order
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/api/v1/orders/"+placed.ID, "", &got))
	assert.Equal(t, models.OrderCancelled, got.Status)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/v1/orders/ORD-nope", "", nil))

	var evs struct{ Events []models.OrderEvent }
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/api/v1/orders/"+placed.ID+"/events", "", &evs))
	assert.Equal(t, placed.ID, events.orderID)
	assert.Len(t, evs.Events, 1)
	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodGet, "/api/v1/orders/x/events?limit=0", "", nil))
}

func TestGateway_EmptyCartCheckout(t *testing.T) {
	h := newTestGateway(t, testConfig(), nil)
	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, "/api/v1/orders", shippingJSON, nil))
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/v1/orders/x/events", "", nil))
}

func TestGateway_RemoteFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	h := NewGateway(testConfig(), zap.NewNop(), newSession(t, url, nil), nil).Handler()
	assert.Equal(t, http.StatusBadGateway, call(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"1"}`, nil))

	var view session.CartView
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/api/v1/cart", "", &view))
	assert.Empty(t, view.Items)
}

func TestGateway_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}
	h := newTestGateway(t, cfg, nil)

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/health", "", nil))
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/health", "", nil))
	assert.Equal(t, http.StatusTooManyRequests, call(t, h, http.MethodGet, "/health", "", nil))
}

func TestGateway_CORS(t *testing.T) {
	h := newTestGateway(t, testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://shop.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func productIDs(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
