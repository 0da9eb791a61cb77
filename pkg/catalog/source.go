package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/example/storefront/pkg/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Source loads the full catalog.
type Source interface {
	Products(ctx context.Context) ([]models.Product, error)
}

// Load builds a Store from src.
func Load(ctx context.Context, src Source) (*Store, error) {
	products, err := src.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return New(products), nil
}

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       string  `yaml:"price"`
	Category    string  `yaml:"category"`
	Rating      float64 `yaml:"rating"`
	Stock       int     `yaml:"stock"`
	Image       string  `yaml:"image"`
}

// FileSource reads products from a YAML seed file.
type FileSource struct {
	Path string
}

func (f FileSource) Products(_ context.Context) ([]models.Product, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) ([]models.Product, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	products := make([]models.Product, 0, len(file.Products))
	seen := make(map[string]struct{}, len(file.Products))
	for i, sp := range file.Products {
		if sp.ID == "" {
			return nil, fmt.Errorf("product #%d: missing id", i)
		}
		if _, dup := seen[sp.ID]; dup {
			return nil, fmt.Errorf("product %q: duplicate id", sp.ID)
		}
		seen[sp.ID] = struct{}{}

		price, err := decimal.NewFromString(sp.Price)
		if err != nil {
			return nil, fmt.Errorf("product %q: invalid price %q: %w", sp.ID, sp.Price, err)
		}
		if price.IsNegative() || sp.Stock < 0 || sp.Rating < 0 || sp.Rating > 5 {
			return nil, fmt.Errorf("product %q: price, stock or rating out of range", sp.ID)
		}

		products = append(products, models.Product{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			Price:       price,
			Category:    sp.Category,
			Rating:      sp.Rating,
			Stock:       sp.Stock,
			Image:       sp.Image,
		})
	}
	return products, nil
}

// StaticSource serves a fixed product list.
type StaticSource []models.Product

func (s StaticSource) Products(_ context.Context) ([]models.Product, error) {
	return []models.Product(s), nil
}

// Seed is the sample catalog used when no other source is configured.
func Seed() []models.Product {
	p := func(id, name, desc, price, category string, rating float64, stock int, image string) models.Product {
		return models.Product{
			ID: id, Name: name, Description: desc, Price: decimal.RequireFromString(price),
			Category: category, Rating: rating, Stock: stock, Image: image,
		}
	}
	return []models.Product{
		p("1", "Wireless Headphones", "High-quality wireless headphones with noise cancellation", "199.99", "Electronics", 4.5, 50, "https://source.unsplash.com/featured/?headphones"),
		// same listing as 1 under another id
		p("9", "Wireless Headphones", "High-quality wireless headphones with noise cancellation", "199.99", "Electronics", 4.5, 50, "https://source.unsplash.com/featured/?headphones"),
		p("2", "Smart Watch", "Feature-rich smartwatch with health tracking", "299.99", "Electronics", 4.3, 30, "https://source.unsplash.com/featured/?smartwatch"),
		p("3", "Laptop Backpack", "Durable laptop backpack with multiple compartments", "49.99", "Accessories", 4.7, 100, "https://source.unsplash.com/featured/?backpack"),
		p("4", "Coffee Maker", "Programmable coffee maker with thermal carafe", "79.99", "Home", 4.2, 25, "https://source.unsplash.com/featured/?coffeemaker"),
		p("5", "Fitness Tracker", "Advanced fitness tracker with heart rate monitoring", "89.99", "Electronics", 4.4, 75, "https://source.unsplash.com/featured/?fitnesstracker"),
	}
}
