package catalog

import (
	"context"
	"fmt"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/repository"
)

// Open loads the catalog from the configured source. The returned close func
// releases any database connection and is never nil.
func Open(ctx context.Context, cfg *config.Config) (*Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Catalog.Source {
	case "", "seed":
		return New(Seed()), noop, nil

	case "file":
		s, err := Load(ctx, FileSource{Path: cfg.Catalog.File})
		return s, noop, err

	case "mysql":
		repo, err := repository.NewProductRepository(&cfg.MySQL)
		if err != nil {
			return nil, noop, err
		}
		if cfg.Catalog.SeedDB {
			if err := repo.Seed(ctx, Seed()); err != nil {
				repo.Close()
				return nil, noop, fmt.Errorf("failed to seed products: %w", err)
			}
		}
		s, err := Load(ctx, repo)
		if err != nil {
			repo.Close()
			return nil, noop, err
		}
		return s, repo.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}
