// Package jobs holds the background workers the server runs alongside the
// HTTP listener.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/volund/internal/service"
	"github.com/dukerupert/volund/internal/telemetry"
)

// SweeperConfig holds abandoned-order sweeper configuration
type SweeperConfig struct {
	// Interval is how often the sweep runs.
	Interval time.Duration

	// Retention is how old an unfulfilled order must be before it is
	// deleted. Orders younger than this may still be mid-payment.
	Retention time.Duration
}

// Sweeper periodically deletes unfulfilled orders that were confirmed but
// never paid. Orders accumulate ahead of payment because confirmation
// freezes the cart before the shopper reaches the payment page.
type Sweeper struct {
	orderService service.OrderService
	config       SweeperConfig
	logger       *slog.Logger
}

// NewSweeper creates a new abandoned-order sweeper
func NewSweeper(orderService service.OrderService, config SweeperConfig, logger *slog.Logger) *Sweeper {
	// Set defaults
	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}
	if config.Retention == 0 {
		config.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		orderService: orderService,
		config:       config,
		logger:       logger,
	}
}

// Start sweeps once immediately and then on every tick until the context is
// cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("sweeper starting",
		"interval", s.config.Interval,
		"retention", s.config.Retention,
	)

	s.sweep(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.orderService.DeleteAbandoned(ctx, s.config.Retention)
	if err != nil {
		s.logger.Error("sweep failed", "error", err)
		return
	}
	if deleted > 0 && telemetry.Business != nil {
		telemetry.Business.OrdersSwept.Add(float64(deleted))
	}
}
