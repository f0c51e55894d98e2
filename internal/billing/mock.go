package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates checkout session flows without calling the Stripe API.
type MockProvider struct {
	// CreateCheckoutSessionFunc allows customizing session creation behavior
	CreateCheckoutSessionFunc func(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// GetCheckoutSessionFunc allows customizing session retrieval behavior
	GetCheckoutSessionFunc func(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// VerifyWebhookSignatureFunc allows customizing webhook verification behavior
	VerifyWebhookSignatureFunc func(payload []byte, signature string, secret string) error

	// Sessions stores created checkout sessions for retrieval
	Sessions map[string]*CheckoutSession

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]*CheckoutSession),
		CallLog:  []string{},
	}
}

// CreateCheckoutSession creates a mock checkout session.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(%s, %d lines)", params.OrderID, len(params.LineItems)))

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	if len(params.LineItems) == 0 {
		return nil, ErrNoLineItems
	}
	if params.OrderID == "" {
		return nil, ErrMissingOrderID
	}

	var total int64
	for _, item := range params.LineItems {
		total += item.UnitAmountCents * item.Quantity
	}

	sess := &CheckoutSession{
		ID:               "cs_test_" + uuid.New().String()[:8],
		URL:              "https://checkout.example.com/pay/" + params.OrderID,
		Status:           "open",
		CustomerEmail:    params.CustomerEmail,
		OrderID:          params.OrderID,
		AmountTotalCents: total,
		CreatedAt:        time.Now(),
	}

	m.Sessions[sess.ID] = sess
	return sess, nil
}

// GetCheckoutSession retrieves a mock checkout session.
func (m *MockProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetCheckoutSession(%s)", sessionID))

	if m.GetCheckoutSessionFunc != nil {
		return m.GetCheckoutSessionFunc(ctx, sessionID)
	}

	sess, exists := m.Sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// VerifyWebhookSignature verifies a mock webhook signature.
func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	m.CallLog = append(m.CallLog, "VerifyWebhookSignature")

	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature, secret)
	}
	return nil
}

// CompleteSession marks a mock session complete.
// Used in tests to simulate a successful payment.
func (m *MockProvider) CompleteSession(sessionID string) error {
	sess, exists := m.Sessions[sessionID]
	if !exists {
		return ErrSessionNotFound
	}
	sess.Status = "complete"
	return nil
}
