package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dukerupert/volund/internal/domain"
)

// MemoryStore is an in-process session store for development and tests.
// Snapshots round-trip through JSON so it exercises the same serialization
// path as the Redis store.
type MemoryStore struct {
	mu        sync.RWMutex
	carts     map[string][]byte
	customers map[string][]byte
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts:     make(map[string][]byte),
		customers: make(map[string][]byte),
	}
}

func (s *MemoryStore) Cart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	s.mu.RLock()
	data, ok := s.carts[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCartNotFound
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}

	return &cart, nil
}

func (s *MemoryStore) SaveCart(ctx context.Context, sessionID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	s.mu.Lock()
	s.carts[sessionID] = data
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) ClearCart(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Customer(ctx context.Context, sessionID string) (*domain.CustomerInfo, error) {
	s.mu.RLock()
	data, ok := s.customers[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCustomerNotFound
	}

	var customer domain.CustomerInfo
	if err := json.Unmarshal(data, &customer); err != nil {
		return nil, fmt.Errorf("failed to decode customer: %w", err)
	}

	return &customer, nil
}

func (s *MemoryStore) SaveCustomer(ctx context.Context, sessionID string, customer *domain.CustomerInfo) error {
	data, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("failed to encode customer: %w", err)
	}

	s.mu.Lock()
	s.customers[sessionID] = data
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) ClearCustomer(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.customers, sessionID)
	s.mu.Unlock()
	return nil
}
