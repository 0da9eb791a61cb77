package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/shopspring/decimal"
)

// fakeRemote is an in-memory cart service keyed by product id.
type fakeRemote struct {
	mu      sync.Mutex
	prices  map[string]decimal.Decimal
	lines   []models.CartLine
	fail    error
	fetches int
	updates []int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{prices: map[string]decimal.Decimal{
		"p1": decimal.RequireFromString("10.50"),
		"p2": decimal.RequireFromString("3"),
	}}
}

var errDown = apperr.Remote("fake", errors.New("service unavailable"))

func (f *fakeRemote) Fetch(context.Context) ([]models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fail != nil {
		return nil, f.fail
	}
	return models.CloneLines(f.lines), nil
}

func (f *fakeRemote) Add(_ context.Context, id string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	for i := range f.lines {
		if f.lines[i].ProductID == id {
			f.lines[i].Quantity += qty
			return nil
		}
	}
	f.lines = append(f.lines, models.CartLine{ProductID: id, Name: id, Price: f.prices[id], Quantity: qty})
	return nil
}

func (f *fakeRemote) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	for i := range f.lines {
		if f.lines[i].ProductID == id {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeRemote) Update(_ context.Context, id string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.updates = append(f.updates, qty)
	for i := range f.lines {
		if f.lines[i].ProductID == id {
			f.lines[i].Quantity = qty
		}
	}
	return nil
}

func (f *fakeRemote) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.lines = nil
	return nil
}

func (f *fakeRemote) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}
