package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dukerupert/volund/internal/domain"
	"github.com/dukerupert/volund/internal/handler"
	"github.com/dukerupert/volund/internal/service"
	"github.com/dukerupert/volund/internal/telemetry"
)

// resyncTimeout bounds the detached catalog resync spawned per accepted
// stock event. A full resync walks every store product.
const resyncTimeout = 5 * time.Minute

// PrintfulHandler handles Printful stock webhook events. The provider
// redelivers stock events aggressively, so deliveries are debounced: the
// first one in a window triggers a full catalog resync, the rest are
// acknowledged and dropped.
type PrintfulHandler struct {
	catalogService service.CatalogService
	debouncer      *Debouncer
	config         PrintfulWebhookConfig
	logger         *slog.Logger

	wg sync.WaitGroup
}

// PrintfulWebhookConfig contains configuration for Printful webhook handling.
type PrintfulWebhookConfig struct {
	// WebhookSecret is the shared secret stock deliveries are signed with.
	// Leaving it empty disables signature verification.
	WebhookSecret string

	// DebounceWindow is how long after an accepted delivery further ones
	// are absorbed. Zero means DefaultDebounceWindow.
	DebounceWindow time.Duration
}

// NewPrintfulHandler creates a new Printful webhook handler.
func NewPrintfulHandler(catalogService service.CatalogService, config PrintfulWebhookConfig, logger *slog.Logger) *PrintfulHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrintfulHandler{
		catalogService: catalogService,
		debouncer:      NewDebouncer(config.DebounceWindow),
		config:         config,
		logger:         logger,
	}
}

// stockEvent is the slice of the Printful delivery payload we care about.
type stockEvent struct {
	Type string `json:"type"`
}

// HandleWebhook processes incoming Printful stock events.
//
// Every authenticated delivery is answered 200 whether or not it triggers
// work; a non-2xx answer would only make the provider redeliver a burst we
// have already absorbed.
func (h *PrintfulHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Method not allowed"))
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Error reading request body"))
		return
	}

	if h.config.WebhookSecret != "" {
		signature := r.Header.Get("X-Printful-Signature")
		if !validSignature(payload, signature, h.config.WebhookSecret) {
			h.logger.Warn("printful webhook signature verification failed")
			handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "", "Invalid signature"))
			return
		}
	}

	var event stockEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Invalid JSON"))
		return
	}
	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues("printful", event.Type).Inc()
	}

	if !h.debouncer.TryAccept() {
		h.logger.Info("stock webhook debounced", "type", event.Type)
		if telemetry.Business != nil {
			telemetry.Business.WebhookDebounced.Inc()
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	h.logger.Info("stock webhook accepted, resyncing catalog", "type", event.Type)
	w.WriteHeader(http.StatusOK)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
		defer cancel()

		result, err := h.catalogService.Resync(ctx)
		if err != nil {
			h.logger.Error("catalog resync failed", "error", err)
			if telemetry.Business != nil {
				telemetry.Business.WebhookFailed.WithLabelValues("printful", event.Type).Inc()
			}
			return
		}
		if telemetry.Business != nil {
			telemetry.Business.WebhookProcessed.WithLabelValues("printful", event.Type).Inc()
			telemetry.Business.CatalogResyncs.Inc()
			telemetry.Business.CatalogProducts.Set(float64(result.Products))
		}
	}()
}

// Wait blocks until all in-flight resync work finishes. Called during
// graceful shutdown, and by tests.
func (h *PrintfulHandler) Wait() {
	h.wg.Wait()
}

// validSignature checks the hex HMAC-SHA256 of the payload in constant time.
func validSignature(payload []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
