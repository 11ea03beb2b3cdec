// Package scheduler runs the nightly cartera snapshot: once a day it walks
// every tenant with student accounts and writes the arrears aggregates to the
// application log, so operations can track portfolio drift without querying
// the API.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appbilling "github.com/campus/backend/internal/application/billing"
)

// TenantProvider lists the tenants the snapshot should cover
type TenantProvider interface {
	DistinctTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CarteraStatsSource produces the arrears aggregates for one tenant
type CarteraStatsSource interface {
	GetCarteraStats(ctx context.Context, tenantID uuid.UUID) (*appbilling.CarteraSummary, error)
}

// CarteraSnapshotConfig holds configuration for the snapshot trigger
type CarteraSnapshotConfig struct {
	// SnapshotHour and SnapshotMinute set the daily run time (24h clock)
	SnapshotHour   int
	SnapshotMinute int

	// CheckInterval is how often to check whether it is time to run
	CheckInterval time.Duration
}

// DefaultCarteraSnapshotConfig returns the default snapshot configuration
func DefaultCarteraSnapshotConfig() CarteraSnapshotConfig {
	return CarteraSnapshotConfig{
		SnapshotHour:   2, // 2am
		SnapshotMinute: 0,
		CheckInterval:  time.Minute,
	}
}

// CarteraSnapshotScheduler triggers the daily cartera snapshot
type CarteraSnapshotScheduler struct {
	config  CarteraSnapshotConfig
	tenants TenantProvider
	stats   CarteraStatsSource
	logger  *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // Track which date we last ran for
}

// NewCarteraSnapshotScheduler creates a new snapshot scheduler
func NewCarteraSnapshotScheduler(
	config CarteraSnapshotConfig,
	tenants TenantProvider,
	stats CarteraStatsSource,
	logger *zap.Logger,
) *CarteraSnapshotScheduler {
	return &CarteraSnapshotScheduler{
		config:  config,
		tenants: tenants,
		stats:   stats,
		logger:  logger,
	}
}

// Start starts the snapshot scheduler
func (c *CarteraSnapshotScheduler) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cartera snapshot scheduler started",
		zap.Int("snapshot_hour", c.config.SnapshotHour),
		zap.Int("snapshot_minute", c.config.SnapshotMinute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop stops the snapshot scheduler
func (c *CarteraSnapshotScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cartera snapshot scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically whether it is time to snapshot
func (c *CarteraSnapshotScheduler) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the snapshot when the configured time is reached
func (c *CarteraSnapshotScheduler) checkAndTrigger(ctx context.Context) {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	// Skip if we already ran today
	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if now.Hour() != c.config.SnapshotHour || now.Minute() != c.config.SnapshotMinute {
		return
	}

	c.mu.Lock()
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering daily cartera snapshot")
	c.SnapshotAll(ctx)
}

// SnapshotAll writes one snapshot line per tenant. A failing tenant is logged
// and skipped so the remaining tenants still get their snapshot.
func (c *CarteraSnapshotScheduler) SnapshotAll(ctx context.Context) {
	tenantIDs, err := c.tenants.DistinctTenantIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to list tenants for cartera snapshot", zap.Error(err))
		return
	}

	c.logger.Info("Running cartera snapshot",
		zap.Int("tenant_count", len(tenantIDs)),
	)

	for _, tenantID := range tenantIDs {
		summary, err := c.stats.GetCarteraStats(ctx, tenantID)
		if err != nil {
			c.logger.Error("Cartera snapshot failed for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}

		c.logger.Info("Cartera snapshot",
			zap.String("tenant_id", tenantID.String()),
			zap.String("total_pending_amount", summary.TotalPendingAmount.String()),
			zap.Int64("total_pending_count", summary.TotalPendingCount),
			zap.String("overdue_amount", summary.Overdue.Amount.String()),
			zap.Int64("overdue_count", summary.Overdue.Count),
			zap.String("due_today_amount", summary.Today.Amount.String()),
			zap.String("upcoming_amount", summary.Upcoming.Amount.String()),
		)
	}
}
