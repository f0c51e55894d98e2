package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/volund/internal/billing"
	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/fulfillment"
	"github.com/dukerupert/volund/internal/repository"
)

// OrderService provides business logic for the order lifecycle after payment.
type OrderService interface {
	// Get returns the order with the given ID.
	Get(ctx context.Context, orderID string) (*domain.Order, error)

	// Fulfill claims an order and submits it to the fulfillment provider.
	// The claim is an atomic flip of the fulfilled flag, so a redelivered
	// payment event results in at most one provider submission. A claim
	// that loses to an earlier delivery is a silent no-op.
	Fulfill(ctx context.Context, orderID string) error

	// FulfillPaymentSession resolves a completed payment session to its
	// order and fulfills it.
	FulfillPaymentSession(ctx context.Context, paymentSessionID string) error

	// DeleteAbandoned removes unfulfilled orders older than the given age
	// and returns the number deleted.
	DeleteAbandoned(ctx context.Context, olderThan time.Duration) (int64, error)
}

type orderService struct {
	orders      repository.OrderRepository
	fulfillment fulfillment.Provider
	billing     billing.Provider
	logger      *slog.Logger
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(
	orders repository.OrderRepository,
	fulfillmentProvider fulfillment.Provider,
	billingProvider billing.Provider,
	logger *slog.Logger,
) OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &orderService{
		orders:      orders,
		fulfillment: fulfillmentProvider,
		billing:     billingProvider,
		logger:      logger,
	}
}

func (s *orderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *orderService) Fulfill(ctx context.Context, orderID string) error {
	order, err := s.orders.MarkFulfilled(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyFulfilled) {
			s.logger.Info("order already fulfilled, skipping",
				"order_id", orderID,
			)
			return nil
		}
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to claim order: %w", err)
	}

	submitted, err := s.fulfillment.SubmitOrder(ctx, recipientFor(order.Customer), orderItemsFor(order.Items))
	if err != nil {
		// Release the claim so a later delivery can retry.
		if rollbackErr := s.orders.MarkUnfulfilled(ctx, orderID); rollbackErr != nil {
			s.logger.Error("failed to release fulfillment claim",
				"order_id", orderID,
				"error", rollbackErr,
			)
		}
		return fmt.Errorf("failed to submit order %s: %w", orderID, err)
	}

	s.logger.Info("order fulfilled",
		"order_id", orderID,
		"provider_order_id", submitted.ID,
		"recipient_email", submitted.RecipientEmail,
		"dashboard_url", submitted.DashboardURL,
	)
	return nil
}

func (s *orderService) FulfillPaymentSession(ctx context.Context, paymentSessionID string) error {
	sess, err := s.billing.GetCheckoutSession(ctx, paymentSessionID)
	if err != nil {
		return fmt.Errorf("failed to load payment session: %w", err)
	}
	if sess.OrderID == "" {
		return ErrMissingOrderID
	}
	return s.Fulfill(ctx, sess.OrderID)
}

func (s *orderService) DeleteAbandoned(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	deleted, err := s.orders.DeleteUnfulfilledBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete abandoned orders: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("abandoned orders deleted",
			"count", deleted,
			"older_than", olderThan.String(),
		)
	}
	return deleted, nil
}
