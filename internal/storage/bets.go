package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// PlaceBet stakes amount on a horse in a race. The debit and the BET
// ledger row are written atomically with the bet itself.
func PlaceBet(ctx context.Context, userID int64, raceID string, horseID, amount int64) (*Bet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("bet amount must be positive, got %d", amount)
	}

	race, err := GetRace(raceID)
	if err != nil {
		return nil, err
	}
	if race.HasResult || race.Settled {
		return nil, fmt.Errorf("betting on race %s is closed", raceID)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE id = ?`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance < amount {
		return nil, fmt.Errorf("insufficient balance: have %d, need %d", balance, amount)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, amount, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO keiba_transactions (user_id, race_id, horse_id, amount)
		VALUES (?, ?, ?, ?)
	`, userID, raceID, horseID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bet: %w", err)
	}

	betID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, amount, source_type, description, race_id, bet_id)
		VALUES (?, ?, 'BET', ?, ?, ?)
	`, userID, -amount, fmt.Sprintf("Stake on horse %d in race %s", horseID, raceID), raceID, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bet transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return GetBet(betID)
}

// GetBet retrieves a bet by id. Returns ErrNotFound if it does not exist.
func GetBet(id int64) (*Bet, error) {
	bet, err := scanBet(db.QueryRow(`
		SELECT id, user_id, race_id, horse_id, amount, is_win, payout, created_at
		FROM keiba_transactions
		WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bet %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	return bet, nil
}

// BetsForRace returns every bet placed against a race.
func BetsForRace(raceID string) ([]*Bet, error) {
	rows, err := db.Query(`
		SELECT id, user_id, race_id, horse_id, amount, is_win, payout, created_at
		FROM keiba_transactions
		WHERE race_id = ?
		ORDER BY id
	`, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()
	return collectBets(rows)
}

// BetsForRaceUser returns the raw bet rows for a (race, user) pair. Used
// by the operator diagnostics tooling.
func BetsForRaceUser(raceID string, userID int64) ([]*Bet, error) {
	rows, err := db.Query(`
		SELECT id, user_id, race_id, horse_id, amount, is_win, payout, created_at
		FROM keiba_transactions
		WHERE race_id = ? AND user_id = ?
		ORDER BY id
	`, raceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()
	return collectBets(rows)
}

// PayoutExists reports whether a PAYOUT ledger row already references the
// (race, user, bet) idempotency key.
func PayoutExists(raceID string, userID, betID int64) (bool, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM transactions
		WHERE source_type = 'PAYOUT' AND race_id = ? AND user_id = ? AND bet_id = ?
	`, raceID, userID, betID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check payout: %w", err)
	}
	return n > 0, nil
}

// CountPayoutTransactions counts the PAYOUT ledger rows that reference a
// race for a user. More than one row per winning bet indicates a double
// payout; this is the operator reconciliation query.
func CountPayoutTransactions(raceID string, userID int64) (int, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM transactions
		WHERE source_type = 'PAYOUT' AND race_id = ? AND user_id = ?
	`, raceID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count payout transactions: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBet(row rowScanner) (*Bet, error) {
	var bet Bet
	var isWin sql.NullBool
	err := row.Scan(&bet.ID, &bet.UserID, &bet.RaceID, &bet.HorseID, &bet.Amount, &isWin, &bet.Payout, &bet.PlacedAt)
	if err != nil {
		return nil, err
	}
	if isWin.Valid {
		v := isWin.Bool
		bet.IsWin = &v
	}
	return &bet, nil
}

func collectBets(rows *sql.Rows) ([]*Bet, error) {
	var bets []*Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bets, nil
}
