package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/volund/internal/fulfillment"
	"github.com/dukerupert/volund/internal/repository"
	"github.com/dukerupert/volund/internal/service"
)

// countingCatalog wraps the real catalog service to count resyncs safely
// across the handler's worker goroutines.
type countingCatalog struct {
	service.CatalogService

	mu      sync.Mutex
	resyncs int
}

func (c *countingCatalog) Resync(ctx context.Context) (*service.ResyncResult, error) {
	c.mu.Lock()
	c.resyncs++
	c.mu.Unlock()
	return c.CatalogService.Resync(ctx)
}

func (c *countingCatalog) Resyncs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resyncs
}

type printfulWebhookFixture struct {
	handler *PrintfulHandler
	catalog *countingCatalog
}

func newPrintfulWebhookFixture(t *testing.T, config PrintfulWebhookConfig) *printfulWebhookFixture {
	t.Helper()

	fulfillmentMock := fulfillment.NewMockProvider()
	fulfillmentMock.ListStoreProductsFunc = func(ctx context.Context) ([]int64, error) {
		return nil, nil
	}

	catalog := &countingCatalog{
		CatalogService: service.NewCatalogService(
			repository.NewMockProductRepository(),
			fulfillmentMock,
			service.CatalogConfig{},
			nil,
		),
	}

	return &printfulWebhookFixture{
		handler: NewPrintfulHandler(catalog, config, nil),
		catalog: catalog,
	}
}

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (f *printfulWebhookFixture) post(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/printful", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("X-Printful-Signature", signature)
	}
	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, req)
	return rec
}

var stockPayload = []byte(`{"type":"stock_updated","data":{"product_id":71}}`)

func TestPrintfulWebhook_TriggersResync(t *testing.T) {
	f := newPrintfulWebhookFixture(t, PrintfulWebhookConfig{WebhookSecret: "shh"})

	rec := f.post(stockPayload, signPayload(stockPayload, "shh"))
	require.Equal(t, http.StatusOK, rec.Code)

	f.handler.Wait()
	assert.Equal(t, 1, f.catalog.Resyncs())
}

func TestPrintfulWebhook_BurstResyncsOnce(t *testing.T) {
	f := newPrintfulWebhookFixture(t, PrintfulWebhookConfig{WebhookSecret: "shh"})
	signature := signPayload(stockPayload, "shh")

	// The provider redelivers in bursts; every delivery is acked but only
	// the first triggers work.
	for i := 0; i < 5; i++ {
		rec := f.post(stockPayload, signature)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	f.handler.Wait()
	assert.Equal(t, 1, f.catalog.Resyncs())
}

func TestPrintfulWebhook_InvalidSignature(t *testing.T) {
	f := newPrintfulWebhookFixture(t, PrintfulWebhookConfig{WebhookSecret: "shh"})

	rec := f.post(stockPayload, signPayload(stockPayload, "wrong-secret"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.handler.Wait()
	assert.Equal(t, 0, f.catalog.Resyncs())
}

func TestPrintfulWebhook_MissingSignature(t *testing.T) {
	f := newPrintfulWebhookFixture(t, PrintfulWebhookConfig{WebhookSecret: "shh"})

	rec := f.post(stockPayload, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPrintfulWebhook_NoSecretSkipsVerification(t *testing.T) {
	f := newPrintfulWebhookFixture(t, PrintfulWebhookConfig{})

	rec := f.post(stockPayload, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	f.handler.Wait()
	assert.Equal(t, 1, f.catalog.Resyncs())
}

func TestPrintfulWebhook_RejectsNonPost(t *testing.T) {
	f := newPrintfulWebhookFixture(t, PrintfulWebhookConfig{})

	req := httptest.NewRequest(http.MethodGet, "/webhooks/printful", nil)
	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPrintfulWebhook_NewWindowResyncsAgain(t *testing.T) {
	f := newPrintfulWebhookFixture(t, PrintfulWebhookConfig{
		DebounceWindow: 10 * time.Millisecond,
	})

	first := f.post(stockPayload, "")
	require.Equal(t, http.StatusOK, first.Code)
	f.handler.Wait()

	time.Sleep(20 * time.Millisecond)

	second := f.post(stockPayload, "")
	require.Equal(t, http.StatusOK, second.Code)
	f.handler.Wait()

	assert.Equal(t, 2, f.catalog.Resyncs())
}
