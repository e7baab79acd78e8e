package service

import (
	"context"
	"os"
	"strconv"
	"time"

	"keibaboard/internal/logger"
	"keibaboard/internal/storage"
)

// DefaultSettlementInterval is the default pause between settlement sweeps.
const DefaultSettlementInterval = 1 * time.Minute

// SettlementWorker periodically settles every race that has a result
// attached but is not yet settled. It is one of possibly several
// settlement callers; the engine's idempotency guard makes overlap with a
// manual admin run safe.
type SettlementWorker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	ticker   *time.Ticker
	interval time.Duration
	engine   *SettlementEngine
}

// NewSettlementWorker creates a new settlement worker
func NewSettlementWorker(engine *SettlementEngine) *SettlementWorker {
	ctx, cancel := context.WithCancel(context.Background())

	// Sweep interval can be tightened from the environment (for testing)
	interval := DefaultSettlementInterval
	if s := os.Getenv("SETTLEMENT_INTERVAL_SECONDS"); s != "" {
		if seconds, err := strconv.Atoi(s); err == nil && seconds > 0 {
			interval = time.Duration(seconds) * time.Second
			logger.Infof("settlement worker config interval=%ds", seconds)
		}
	}

	return &SettlementWorker{
		ctx:      ctx,
		cancel:   cancel,
		ticker:   time.NewTicker(interval),
		interval: interval,
		engine:   engine,
	}
}

// Start begins the background worker
func (w *SettlementWorker) Start() {
	logger.Infof("settlement worker started interval=%v", w.interval)

	// Run immediately on start
	w.settlePendingRaces()

	// Then run on ticker
	go func() {
		for {
			select {
			case <-w.ticker.C:
				w.settlePendingRaces()
			case <-w.ctx.Done():
				logger.Infof("settlement worker stopped")
				return
			}
		}
	}()
}

// Stop stops the background worker
func (w *SettlementWorker) Stop() {
	w.ticker.Stop()
	w.cancel()
}

// settlePendingRaces settles each race with a result but no settlement.
// A failing race is logged and skipped; it stays pending and the next
// sweep retries it.
func (w *SettlementWorker) settlePendingRaces() {
	raceIDs, err := storage.RacesPendingSettlement()
	if err != nil {
		logger.Errorf("settlement worker query failed error=%v", err)
		return
	}

	if len(raceIDs) == 0 {
		return
	}

	logger.Infof("settlement worker sweep pending=%d", len(raceIDs))

	for _, raceID := range raceIDs {
		result, err := w.engine.SettleRace(w.ctx, raceID)
		if err != nil {
			logger.Errorf("settlement worker race failed race_id=%s error=%v", raceID, err)
			continue
		}
		logger.Infof("settlement worker race settled race_id=%s winners=%d total_paid=%d", raceID, result.Winners, result.TotalPaid)
	}
}
