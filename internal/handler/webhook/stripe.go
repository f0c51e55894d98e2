package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/dukerupert/volund/internal/billing"
	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/handler"
	"github.com/dukerupert/volund/internal/service"
	"github.com/dukerupert/volund/internal/telemetry"
)

// fulfillTimeout bounds the detached fulfillment work spawned per event.
const fulfillTimeout = 30 * time.Second

// StripeHandler handles Stripe webhook events.
type StripeHandler struct {
	provider     billing.Provider
	orderService service.OrderService
	config       StripeWebhookConfig
	logger       *slog.Logger

	wg sync.WaitGroup
}

// StripeWebhookConfig contains configuration for Stripe webhook handling.
type StripeWebhookConfig struct {
	// WebhookSecret is the webhook signing secret from the Stripe dashboard.
	WebhookSecret string
}

// NewStripeHandler creates a new Stripe webhook handler.
func NewStripeHandler(provider billing.Provider, orderService service.OrderService, config StripeWebhookConfig, logger *slog.Logger) *StripeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeHandler{
		provider:     provider,
		orderService: orderService,
		config:       config,
		logger:       logger,
	}
}

// HandleWebhook processes incoming Stripe webhook events.
//
// The event is acknowledged as soon as the signature and payload check out;
// fulfillment runs detached from the request. A fulfillment failure is a
// reconciliation gap to log, never a retry signal to Stripe: redelivery
// cannot double-submit because the order claim is atomic, and an order the
// sweeper already deleted is gone for good.
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	if r.Method != http.MethodPost {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Method not allowed"))
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Missing signature"))
		return
	}

	if err := h.provider.VerifyWebhookSignature(payload, signature, h.config.WebhookSecret); err != nil {
		h.logger.Warn("stripe webhook signature verification failed", "error", err)
		handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "", "Invalid signature"))
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Invalid JSON"))
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "event_id", event.ID)
	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues("stripe", string(event.Type)).Inc()
		defer func() {
			telemetry.Business.WebhookLatency.WithLabelValues("stripe", string(event.Type)).Observe(time.Since(startTime).Seconds())
		}()
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutSessionCompleted(event)
	default:
		h.logger.Debug("unhandled stripe event type", "type", event.Type)
	}

	// Always acknowledge a verified event; Stripe retries anything else.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received": true}`))
}

// handleCheckoutSessionCompleted resolves a paid checkout session to its
// order and fulfills it in the background.
func (h *StripeHandler) handleCheckoutSessionCompleted(event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("failed to parse checkout session from webhook", "error", err)
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues("stripe", string(event.Type)).Inc()
		}
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), fulfillTimeout)
		defer cancel()

		if err := h.orderService.FulfillPaymentSession(ctx, sess.ID); err != nil {
			h.logger.Error("fulfillment failed",
				"payment_session_id", sess.ID,
				"error", err,
			)
			if telemetry.Business != nil {
				telemetry.Business.WebhookFailed.WithLabelValues("stripe", string(event.Type)).Inc()
			}
			return
		}
		if telemetry.Business != nil {
			telemetry.Business.WebhookProcessed.WithLabelValues("stripe", string(event.Type)).Inc()
			telemetry.Business.OrdersFulfilled.Inc()
		}
	}()
}

// Wait blocks until all in-flight fulfillment work finishes. Called during
// graceful shutdown, and by tests.
func (h *StripeHandler) Wait() {
	h.wg.Wait()
}
