package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// User holds the per-user game data aggregate: progression scalars and the
// money balance. Inventory and active boosts live in their own tables.
type User struct {
	ID        int64     `json:"id" db:"id"`
	MemberID  string    `json:"member_id" db:"member_id"`
	Username  string    `json:"username" db:"username"`
	Level     int64     `json:"level" db:"level"`
	XP        int64     `json:"xp" db:"xp"`
	Balance   int64     `json:"balance" db:"balance"` // whole currency units
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Transaction is an atomic currency ledger entry. Rows are append-only;
// they are never updated or deleted. On PAYOUT rows, (RaceID, UserID,
// BetID) is the structured idempotency key, enforced by a unique index.
type Transaction struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Amount      int64     `json:"amount" db:"amount"` // signed
	SourceType  string    `json:"source_type" db:"source_type"`
	Description string    `json:"description" db:"description"`
	RaceID      string    `json:"race_id,omitempty" db:"race_id"`
	BetID       int64     `json:"bet_id,omitempty" db:"bet_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Transaction source types. The set is closed.
const (
	SourceWelcomeBonus = "WELCOME_BONUS"
	SourceBet          = "BET"
	SourcePayout       = "PAYOUT"
)

// Race is a scheduled keiba race. The result fields are attached once the
// outcome is known; Settled flips exactly once, by the settlement engine.
type Race struct {
	ID            string          `json:"id" db:"id"` // YYYYMMDD_HHMM, Japan-local
	Name          string          `json:"name" db:"name"`
	HasResult     bool            `json:"has_result"`
	ResultHorseID int64           `json:"result_horse_id,omitempty" db:"result_horse_id"`
	ResultOdds    decimal.Decimal `json:"result_odds,omitempty" db:"result_odds"`
	Settled       bool            `json:"settled" db:"settled"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Bet is a stake placed by one user on one race. IsWin stays nil until
// settlement resolves it; once assigned, the row is immutable.
type Bet struct {
	ID       int64     `json:"id" db:"id"`
	UserID   int64     `json:"user_id" db:"user_id"`
	RaceID   string    `json:"race_id" db:"race_id"`
	HorseID  int64     `json:"horse_id" db:"horse_id"`
	Amount   int64     `json:"amount" db:"amount"`
	IsWin    *bool     `json:"is_win,omitempty" db:"is_win"`
	Payout   int64     `json:"payout" db:"payout"`
	PlacedAt time.Time `json:"placed_at" db:"placed_at"`
}

// Resolved reports whether settlement has assigned the win/loss flag.
func (b *Bet) Resolved() bool {
	return b.IsWin != nil
}
