package cartsvc

import (
	"context"
	"sync"

	"github.com/example/storefront/pkg/models"
)

// Repository persists carts keyed by shopper id.
type Repository interface {
	Lines(ctx context.Context, userID string) ([]models.CartLine, error)
	Get(ctx context.Context, userID, productID string) (models.CartLine, bool, error)
	Put(ctx context.Context, userID string, line models.CartLine) error
	Delete(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

// MemoryRepository keeps carts in process memory, in insertion order.
type MemoryRepository struct {
	mu    sync.Mutex
	carts map[string][]models.CartLine
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string][]models.CartLine)}
}

func (m *MemoryRepository) Lines(_ context.Context, userID string) ([]models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneLines(m.carts[userID]), nil
}

func (m *MemoryRepository) Get(_ context.Context, userID, productID string) (models.CartLine, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.carts[userID] {
		if l.ProductID == productID {
			return l, true, nil
		}
	}
	return models.CartLine{}, false, nil
}

func (m *MemoryRepository) Put(_ context.Context, userID string, line models.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.carts[userID]
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i] = line
			return nil
		}
	}
	m.carts[userID] = append(lines, line)
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, userID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			m.carts[userID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MemoryRepository) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}
