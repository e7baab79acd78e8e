package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const (
	// WelcomeBonusAmount is the starting balance granted to a new user.
	WelcomeBonusAmount int64 = 1000
)

// ErrNotFound is returned when a referenced race or bet does not exist.
var ErrNotFound = errors.New("not found")

var db *sql.DB

// InitDB initializes the SQLite database connection with WAL mode.
// An empty path is a configuration error and aborts before any read.
func InitDB(dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("database path is not configured")
	}

	var err error

	path := dbPath
	if dbPath != ":memory:" {
		path, err = filepath.Abs(dbPath)
		if err != nil {
			return err
		}
	}

	db, err = sql.Open("sqlite", path)
	if err != nil {
		return err
	}

	// A single connection: the sqlite file has one writer anyway, and the
	// modernc driver gives every connection its own copy of an in-memory
	// database.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return err
	}
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		return err
	}

	// Run migrations
	if err := runMigrations(); err != nil {
		return err
	}

	return nil
}

// DB returns the database connection
func DB() *sql.DB {
	return db
}

// runMigrations creates the necessary tables
func runMigrations() error {
	usersTable := `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			member_id TEXT UNIQUE NOT NULL,
			username TEXT,
			level INTEGER NOT NULL DEFAULT 1,
			xp INTEGER NOT NULL DEFAULT 0,
			balance INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`

	transactionsTable := `
		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			source_type TEXT NOT NULL,
			description TEXT,
			race_id TEXT,
			bet_id INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)
	`

	racesTable := `
		CREATE TABLE IF NOT EXISTS keiba_races (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			result_horse_id INTEGER,
			result_odds TEXT,
			settled INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`

	betsTable := `
		CREATE TABLE IF NOT EXISTS keiba_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			race_id TEXT NOT NULL,
			horse_id INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			is_win INTEGER,
			payout INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (race_id) REFERENCES keiba_races(id)
		)
	`

	itemsTable := `
		CREATE TABLE IF NOT EXISTS user_items (
			user_id INTEGER NOT NULL,
			item_id TEXT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			UNIQUE (user_id, item_id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)
	`

	boostsTable := `
		CREATE TABLE IF NOT EXISTS user_boosts (
			user_id INTEGER NOT NULL,
			booster_id TEXT NOT NULL,
			expires_at_ms INTEGER NOT NULL,
			UNIQUE (user_id, booster_id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)
	`

	// The partial unique index is the idempotency guard for settlement:
	// at most one PAYOUT ledger row may exist per (race, user, bet).
	createIndexes := `
		CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
		CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_payout_key
			ON transactions(race_id, user_id, bet_id)
			WHERE source_type = 'PAYOUT';
		CREATE INDEX IF NOT EXISTS idx_keiba_transactions_race_id ON keiba_transactions(race_id);
		CREATE INDEX IF NOT EXISTS idx_keiba_transactions_user_id ON keiba_transactions(user_id);
	`

	for _, stmt := range []string{usersTable, transactionsTable, racesTable, betsTable, itemsTable, boostsTable, createIndexes} {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// CloseDB closes the database connection
func CloseDB() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// IsUniqueViolation reports whether err is a sqlite unique-constraint
// failure, e.g. a concurrent settlement losing the race on the payout key.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetUserByMemberID retrieves a user by their board member ID
func GetUserByMemberID(memberID string) (*User, error) {
	var user User
	err := db.QueryRow(`
		SELECT id, member_id, username, level, xp, balance, created_at, updated_at
		FROM users
		WHERE member_id = ?
	`, memberID).Scan(
		&user.ID,
		&user.MemberID,
		&user.Username,
		&user.Level,
		&user.XP,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by member_id: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by their internal ID
func GetUserByID(id int64) (*User, error) {
	var user User
	err := db.QueryRow(`
		SELECT id, member_id, username, level, xp, balance, created_at, updated_at
		FROM users
		WHERE id = ?
	`, id).Scan(
		&user.ID,
		&user.MemberID,
		&user.Username,
		&user.Level,
		&user.XP,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// CreateUser creates a new user with the given member info and welcome bonus
func CreateUser(memberID, username string) (*User, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Insert user with initial balance
	result, err := tx.Exec(`
		INSERT INTO users (member_id, username, balance)
		VALUES (?, ?, ?)
	`, memberID, username, WelcomeBonusAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	userID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	// Create welcome bonus transaction
	_, err = tx.Exec(`
		INSERT INTO transactions (user_id, amount, source_type, description)
		VALUES (?, ?, 'WELCOME_BONUS', 'Welcome bonus for joining!')
	`, userID, WelcomeBonusAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to insert welcome bonus transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Fetch and return the created user
	return GetUserByMemberID(memberID)
}

// TransactionsForUser returns a user's ledger entries, newest first.
func TransactionsForUser(userID int64, limit int) ([]*Transaction, error) {
	rows, err := db.Query(`
		SELECT id, user_id, amount, source_type, COALESCE(description, ''),
			COALESCE(race_id, ''), COALESCE(bet_id, 0), created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.SourceType, &t.Description, &t.RaceID, &t.BetID, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}
