package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"keibaboard/internal/economy"
	"keibaboard/internal/logger"
	"keibaboard/internal/storage"
)

// ErrRaceNotFinalized is returned when settlement is invoked before the
// race has a result attached. Settlement is deferred; no writes happen.
var ErrRaceNotFinalized = errors.New("race not finalized")

// SettlementEngine resolves the bets of a finished race and credits
// payouts to user ledgers exactly once per (race, user, bet), no matter
// how many times settlement runs. Concurrent invocations coordinate only
// through the store: the unique payout index decides races between them.
type SettlementEngine struct {
	notifier *NotificationService
}

// NewSettlementEngine creates a new settlement engine
func NewSettlementEngine() *SettlementEngine {
	return &SettlementEngine{}
}

// SetNotificationService sets the notification service for settlement summaries
func (e *SettlementEngine) SetNotificationService(ns *NotificationService) {
	e.notifier = ns
}

// SettlementResult summarizes one settlement invocation.
type SettlementResult struct {
	RaceID    string
	Bets      int   // bets on the race
	Resolved  int   // bets newly resolved by this invocation
	Winners   int   // winning bets newly paid by this invocation
	Skipped   int   // bets already resolved or already paid elsewhere
	TotalPaid int64 // sum of payouts credited by this invocation
}

// SettleRace settles every pending bet on the race, one bet per SQL
// transaction: a failure leaves only that bet pending and the run is
// safely retriable. Once all bets are resolved the race flips to settled.
func (e *SettlementEngine) SettleRace(ctx context.Context, raceID string) (*SettlementResult, error) {
	race, err := storage.GetRace(raceID)
	if err != nil {
		return nil, err
	}
	if !race.HasResult {
		return nil, fmt.Errorf("race %s: %w", raceID, ErrRaceNotFinalized)
	}

	bets, err := storage.BetsForRace(raceID)
	if err != nil {
		return nil, err
	}

	result := &SettlementResult{RaceID: raceID, Bets: len(bets)}

	if race.Settled {
		// Cheap no-op: re-verify idempotency, write nothing.
		if err := e.verifySettled(race, bets); err != nil {
			return nil, err
		}
		result.Skipped = len(bets)
		return result, nil
	}

	logger.Infof("settlement started race_id=%s bets=%d horse_id=%d odds=%s",
		raceID, len(bets), race.ResultHorseID, race.ResultOdds)

	for _, bet := range bets {
		if bet.Resolved() {
			result.Skipped++
			continue
		}

		if bet.HorseID != race.ResultHorseID {
			if err := e.settleLosingBet(ctx, bet); err != nil {
				return nil, fmt.Errorf("failed to settle bet %d: %w", bet.ID, err)
			}
			result.Resolved++
			continue
		}

		payout, paid, err := e.settleWinningBet(ctx, race, bet)
		if err != nil {
			return nil, fmt.Errorf("failed to settle bet %d: %w", bet.ID, err)
		}
		if !paid {
			// Someone else already paid this bet; success, not an error.
			result.Skipped++
			continue
		}
		result.Resolved++
		result.Winners++
		result.TotalPaid += payout
		logger.Debugf("payout credited race_id=%s bet_id=%d user_id=%d payout=%d", raceID, bet.ID, bet.UserID, payout)
	}

	// Every bet processed: flip the race to settled.
	_, err = storage.DB().ExecContext(ctx, `
		UPDATE keiba_races SET settled = 1 WHERE id = ?
	`, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark race settled: %w", err)
	}

	logger.Infof("settlement completed race_id=%s resolved=%d winners=%d total_paid=%d skipped=%d",
		raceID, result.Resolved, result.Winners, result.TotalPaid, result.Skipped)

	if e.notifier != nil {
		e.notifier.SendSettlementSummary(result)
	}

	return result, nil
}

// settleLosingBet marks a losing bet resolved. No ledger write: losing
// bets pay zero. The is_win guard makes concurrent duplicates a no-op.
func (e *SettlementEngine) settleLosingBet(ctx context.Context, bet *storage.Bet) error {
	_, err := storage.DB().ExecContext(ctx, `
		UPDATE keiba_transactions
		SET is_win = 0, payout = 0
		WHERE id = ? AND is_win IS NULL
	`, bet.ID)
	return err
}

// settleWinningBet credits the payout and marks the bet, atomically.
// Returns the credited amount and whether this invocation paid the bet.
func (e *SettlementEngine) settleWinningBet(ctx context.Context, race *storage.Race, bet *storage.Bet) (int64, bool, error) {
	// Idempotency pre-check against the structured payout key.
	exists, err := storage.PayoutExists(race.ID, bet.UserID, bet.ID)
	if err != nil {
		return 0, false, err
	}
	if exists {
		return 0, false, nil
	}

	// Payout-boost items are evaluated against the bettor's inventory at
	// settlement time.
	inv, err := storage.GetInventory(bet.UserID)
	if err != nil {
		return 0, false, err
	}
	multiplier := economy.PayoutMultiplier(inv)
	payout := decimal.NewFromInt(bet.Amount).Mul(race.ResultOdds).Mul(multiplier).Floor().IntPart()

	tx, err := storage.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, amount, source_type, description, race_id, bet_id)
		VALUES (?, ?, 'PAYOUT', ?, ?, ?)
	`, bet.UserID, payout, fmt.Sprintf("Keiba payout for bet #%d on race %s", bet.ID, race.ID), race.ID, bet.ID)
	if storage.IsUniqueViolation(err) {
		// Lost the race against a concurrent settlement: the payout
		// already exists, so this bet is done.
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert payout transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, payout, bet.UserID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to credit balance: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE keiba_transactions SET is_win = 1, payout = ? WHERE id = ?
	`, payout, bet.ID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to mark bet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return payout, true, nil
}

// verifySettled cross-checks an already-settled race: every winning bet
// must have its payout row, every bet must be resolved. Discrepancies are
// logged for the operator; nothing is written.
func (e *SettlementEngine) verifySettled(race *storage.Race, bets []*storage.Bet) error {
	for _, bet := range bets {
		if !bet.Resolved() {
			logger.Warnf("settled race has unresolved bet race_id=%s bet_id=%d", race.ID, bet.ID)
			continue
		}
		if !*bet.IsWin {
			continue
		}
		exists, err := storage.PayoutExists(race.ID, bet.UserID, bet.ID)
		if err != nil {
			return err
		}
		if !exists {
			logger.Warnf("winning bet has no payout transaction race_id=%s bet_id=%d user_id=%d", race.ID, bet.ID, bet.UserID)
		}
	}
	return nil
}
