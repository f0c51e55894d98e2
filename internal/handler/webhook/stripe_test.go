package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/volund/internal/billing"
	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/fulfillment"
	"github.com/dukerupert/volund/internal/repository"
	"github.com/dukerupert/volund/internal/service"
)

type stripeWebhookFixture struct {
	handler     *StripeHandler
	orders      *repository.MockOrderRepository
	fulfillment *fulfillment.MockProvider
	billing     *billing.MockProvider
}

func newStripeWebhookFixture(t *testing.T) *stripeWebhookFixture {
	t.Helper()

	orders := repository.NewMockOrderRepository()
	fulfillmentMock := fulfillment.NewMockProvider()
	billingMock := billing.NewMockProvider()

	orderService := service.NewOrderService(orders, fulfillmentMock, billingMock, nil)
	h := NewStripeHandler(billingMock, orderService, StripeWebhookConfig{
		WebhookSecret: "whsec_test",
	}, nil)

	return &stripeWebhookFixture{
		handler:     h,
		orders:      orders,
		fulfillment: fulfillmentMock,
		billing:     billingMock,
	}
}

// seedPaidOrder inserts an unfulfilled order and points a mock payment
// session at it, returning the session ID.
func (f *stripeWebhookFixture) seedPaidOrder(t *testing.T) string {
	t.Helper()

	order := &domain.Order{
		Items: []domain.LineItem{
			{ProductID: "var-s", Title: "Logo Tee", Quantity: 1, VariantID: 9001},
		},
		Customer: domain.CustomerInfo{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Country:   "US",
		},
	}
	require.NoError(t, f.orders.Insert(context.Background(), order))

	sessionID := "cs_test_paid"
	f.billing.GetCheckoutSessionFunc = func(ctx context.Context, id string) (*billing.CheckoutSession, error) {
		if id != sessionID {
			return nil, billing.ErrSessionNotFound
		}
		return &billing.CheckoutSession{
			ID:      sessionID,
			Status:  "complete",
			OrderID: order.ID,
		}, nil
	}
	require.NoError(t, f.orders.SetPaymentSession(context.Background(), order.ID, sessionID))
	return sessionID
}

func checkoutCompletedEvent(sessionID string) []byte {
	return fmt.Appendf(nil,
		`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":%q}}}`,
		sessionID,
	)
}

func (f *stripeWebhookFixture) post(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, req)
	return rec
}

func TestStripeWebhook_FulfillsOrder(t *testing.T) {
	f := newStripeWebhookFixture(t)
	sessionID := f.seedPaidOrder(t)

	rec := f.post(checkoutCompletedEvent(sessionID), "t=1,v1=sig")
	require.Equal(t, http.StatusOK, rec.Code)

	f.handler.Wait()

	require.Len(t, f.fulfillment.SubmittedOrders, 1)
	for _, order := range f.orders.Orders {
		assert.True(t, order.Fulfilled)
	}
}

func TestStripeWebhook_RedeliverySubmitsOnce(t *testing.T) {
	f := newStripeWebhookFixture(t)
	sessionID := f.seedPaidOrder(t)
	payload := checkoutCompletedEvent(sessionID)

	first := f.post(payload, "t=1,v1=sig")
	require.Equal(t, http.StatusOK, first.Code)
	f.handler.Wait()

	second := f.post(payload, "t=2,v1=sig")
	require.Equal(t, http.StatusOK, second.Code)
	f.handler.Wait()

	assert.Len(t, f.fulfillment.SubmittedOrders, 1)
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	f := newStripeWebhookFixture(t)
	sessionID := f.seedPaidOrder(t)

	f.billing.VerifyWebhookSignatureFunc = func(payload []byte, signature, secret string) error {
		return errors.New("signature mismatch")
	}

	rec := f.post(checkoutCompletedEvent(sessionID), "t=1,v1=bad")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.handler.Wait()
	assert.Empty(t, f.fulfillment.SubmittedOrders)
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	f := newStripeWebhookFixture(t)

	rec := f.post(checkoutCompletedEvent("cs_x"), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStripeWebhook_UnknownOrderAcked(t *testing.T) {
	f := newStripeWebhookFixture(t)

	// A session whose order the sweeper already deleted. The delivery is
	// still acknowledged; the gap is only logged.
	f.billing.GetCheckoutSessionFunc = func(ctx context.Context, id string) (*billing.CheckoutSession, error) {
		return &billing.CheckoutSession{ID: id, Status: "complete", OrderID: "gone"}, nil
	}

	rec := f.post(checkoutCompletedEvent("cs_gone"), "t=1,v1=sig")

	assert.Equal(t, http.StatusOK, rec.Code)
	f.handler.Wait()
	assert.Empty(t, f.fulfillment.SubmittedOrders)
}

func TestStripeWebhook_IgnoresOtherEventTypes(t *testing.T) {
	f := newStripeWebhookFixture(t)

	payload := []byte(`{"id":"evt_2","type":"payment_intent.created","data":{"object":{"id":"pi_1"}}}`)
	rec := f.post(payload, "t=1,v1=sig")

	assert.Equal(t, http.StatusOK, rec.Code)
	f.handler.Wait()
	assert.Empty(t, f.fulfillment.SubmittedOrders)
}

func TestStripeWebhook_RejectsNonPost(t *testing.T) {
	f := newStripeWebhookFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/stripe", nil)
	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
