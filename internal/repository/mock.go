package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/volund/internal/domain"
)

// MockOrderRepository is an in-memory OrderRepository for testing.
// The mutex makes it safe for tests that exercise concurrent fulfillment.
type MockOrderRepository struct {
	mu     sync.Mutex
	Orders map[string]*domain.Order

	// InsertFunc allows customizing insert behavior
	InsertFunc func(ctx context.Context, order *domain.Order) error

	// MarkFulfilledFunc allows customizing the fulfillment claim behavior
	MarkFulfilledFunc func(ctx context.Context, id string) (*domain.Order, error)

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockOrderRepository creates a new in-memory order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		Orders:  make(map[string]*domain.Order),
		CallLog: []string{},
	}
}

func (m *MockOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "Insert")

	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, order)
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	stored := *order
	m.Orders[order.ID] = &stored
	return nil
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "FindByID")

	order, exists := m.Orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) SetPaymentSession(ctx context.Context, id, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "SetPaymentSession")

	order, exists := m.Orders[id]
	if !exists {
		return ErrOrderNotFound
	}
	order.PaymentSessionID = sessionID
	return nil
}

func (m *MockOrderRepository) MarkFulfilled(ctx context.Context, id string) (*domain.Order, error) {
	if m.MarkFulfilledFunc != nil {
		return m.MarkFulfilledFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "MarkFulfilled")

	order, exists := m.Orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	if order.Fulfilled {
		return nil, ErrAlreadyFulfilled
	}
	order.Fulfilled = true
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) MarkUnfulfilled(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "MarkUnfulfilled")

	order, exists := m.Orders[id]
	if !exists {
		return ErrOrderNotFound
	}
	order.Fulfilled = false
	return nil
}

func (m *MockOrderRepository) DeleteUnfulfilledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "DeleteUnfulfilledBefore")

	var deleted int64
	for id, order := range m.Orders {
		if !order.Fulfilled && order.CreatedAt.Before(cutoff) {
			delete(m.Orders, id)
			deleted++
		}
	}
	return deleted, nil
}

// MockProductRepository is an in-memory ProductRepository for testing.
type MockProductRepository struct {
	mu       sync.Mutex
	Products []domain.Product

	// ReplaceCatalogFunc allows customizing catalog replacement behavior
	ReplaceCatalogFunc func(ctx context.Context, products []domain.Product) error

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProductRepository creates a new in-memory product repository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		CallLog: []string{},
	}
}

func (m *MockProductRepository) ReplaceCatalog(ctx context.Context, products []domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "ReplaceCatalog")

	if m.ReplaceCatalogFunc != nil {
		return m.ReplaceCatalogFunc(ctx, products)
	}

	m.Products = make([]domain.Product, len(products))
	copy(m.Products, products)
	return nil
}

func (m *MockProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "List")

	out := make([]domain.Product, len(m.Products))
	copy(out, m.Products)
	return out, nil
}

func (m *MockProductRepository) FindByProductID(ctx context.Context, productID int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "FindByProductID")

	for i := range m.Products {
		if m.Products[i].ProductID == productID {
			copied := m.Products[i]
			return &copied, nil
		}
	}
	return nil, ErrProductNotFound
}

func (m *MockProductRepository) FindVariant(ctx context.Context, variantID string) (*domain.Product, *domain.Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "FindVariant")

	for i := range m.Products {
		for j := range m.Products[i].Variants {
			if m.Products[i].Variants[j].ID == variantID {
				product := m.Products[i]
				variant := m.Products[i].Variants[j]
				return &product, &variant, nil
			}
		}
	}
	return nil, nil, ErrVariantNotFound
}

func (m *MockProductRepository) StockProductIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "StockProductIDs")

	seen := make(map[int64]bool)
	var ids []int64
	for i := range m.Products {
		id := m.Products[i].StockProductID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}
