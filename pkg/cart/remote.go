package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
)

// Remote is the cart service that owns the shopper's cart. The Store treats it
// as the source of truth.
type Remote interface {
	Fetch(ctx context.Context) ([]models.CartLine, error)
	Add(ctx context.Context, productID string, quantity int) error
	Remove(ctx context.Context, productID string) error
	Update(ctx context.Context, productID string, quantity int) error
	Clear(ctx context.Context) error
}

// HTTPRemote talks to the cart service REST API for a single shopper.
type HTTPRemote struct {
	baseURL    string
	shopperID  string
	httpClient *http.Client
}

func NewHTTPRemote(baseURL, shopperID string, client *http.Client) *HTTPRemote {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRemote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		shopperID:  shopperID,
		httpClient: client,
	}
}

type itemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (r *HTTPRemote) Fetch(ctx context.Context) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := r.do(ctx, http.MethodGet, "", nil, &lines); err != nil {
		return nil, apperr.Remote("fetch cart", err)
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	return lines, nil
}

func (r *HTTPRemote) Add(ctx context.Context, productID string, quantity int) error {
	body := itemRequest{ProductID: productID, Quantity: quantity}
	if err := r.do(ctx, http.MethodPost, "/add", body, nil); err != nil {
		return apperr.Remote("add cart item", err)
	}
	return nil
}

func (r *HTTPRemote) Remove(ctx context.Context, productID string) error {
	if err := r.do(ctx, http.MethodDelete, "/remove/"+url.PathEscape(productID), nil, nil); err != nil {
		return apperr.Remote("remove cart item", err)
	}
	return nil
}

func (r *HTTPRemote) Update(ctx context.Context, productID string, quantity int) error {
	body := itemRequest{ProductID: productID, Quantity: quantity}
	if err := r.do(ctx, http.MethodPut, "/update", body, nil); err != nil {
		return apperr.Remote("update cart item", err)
	}
	return nil
}

func (r *HTTPRemote) Clear(ctx context.Context) error {
	if err := r.do(ctx, http.MethodDelete, "/clear", nil, nil); err != nil {
		return apperr.Remote("clear cart", err)
	}
	return nil
}

func (r *HTTPRemote) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	endpoint := fmt.Sprintf("%s/cart/%s%s", r.baseURL, url.PathEscape(r.shopperID), path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
