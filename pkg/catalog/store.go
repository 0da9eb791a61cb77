// Package catalog holds the purchasable products and the filtered, sorted view
// shown to the shopper.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/example/storefront/pkg/models"
	"github.com/shopspring/decimal"
)

// AllCategories is the category sentinel that disables category filtering.
const AllCategories = "All"

const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
	SortName      = "name"
)

type Store struct {
	mu       sync.RWMutex
	products []models.Product
	view     []models.Product

	category string
	minPrice decimal.Decimal
	maxPrice decimal.Decimal
	sortKey  string
}

func New(products []models.Product) *Store {
	all := make([]models.Product, len(products))
	copy(all, products)
	return &Store{
		products: all,
		view:     all,
		category: AllCategories,
		minPrice: decimal.Zero,
		maxPrice: decimal.NewFromInt(1000),
		sortKey:  SortName,
	}
}

// Products returns the current view.
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.view)
}

// All returns the full, unfiltered catalog in load order.
func (s *Store) All() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.products)
}

// Search replaces the view with products whose name or description contains
// term, case-insensitively. A blank term resets the view to the full catalog.
func (s *Store) Search(term string) []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(term) == "" {
		s.view = s.products
		return clone(s.view)
	}

	needle := strings.ToLower(term)
	var view []models.Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			view = append(view, p)
		}
	}
	s.view = view
	return clone(view)
}

func (s *Store) SetCategory(category string) {
	s.mu.Lock()
	s.category = category
	s.mu.Unlock()
}

func (s *Store) SetPriceRange(min, max decimal.Decimal) {
	s.mu.Lock()
	s.minPrice, s.maxPrice = min, max
	s.mu.Unlock()
}

func (s *Store) SetSortKey(key string) {
	s.mu.Lock()
	s.sortKey = key
	s.mu.Unlock()
}

// Criteria reports the active category, price range and sort key.
func (s *Store) Criteria() (category string, min, max decimal.Decimal, sortKey string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.category, s.minPrice, s.maxPrice, s.sortKey
}

// ApplyFilters recomputes the view from the full catalog: category, then
// inclusive price range, then a stable sort on the active key.
func (s *Store) ApplyFilters() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if s.category != AllCategories && p.Category != s.category {
			continue
		}
		if p.Price.LessThan(s.minPrice) || p.Price.GreaterThan(s.maxPrice) {
			continue
		}
		view = append(view, p)
	}

	sort.SliceStable(view, less(view, s.sortKey))
	s.view = view
	return clone(view)
}

func less(view []models.Product, key string) func(i, j int) bool {
	switch key {
	case SortPriceLow:
		return func(i, j int) bool { return view[i].Price.LessThan(view[j].Price) }
	case SortPriceHigh:
		return func(i, j int) bool { return view[i].Price.GreaterThan(view[j].Price) }
	case SortRating:
		return func(i, j int) bool { return view[i].Rating > view[j].Rating }
	default:
		return func(i, j int) bool { return view[i].Name < view[j].Name }
	}
}

// Categories lists the distinct categories in first-seen order, prefixed with
// AllCategories.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	out := []string{AllCategories}
	for _, p := range s.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

func (s *Store) GetByID(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func clone(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	copy(out, in)
	return out
}
