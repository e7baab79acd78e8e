package storage

import (
	"fmt"

	"keibaboard/internal/economy"
)

// GetInventory returns the user's item quantities. Items with zero
// quantity are omitted, matching the absent-key-means-zero convention.
func GetInventory(userID int64) (economy.Inventory, error) {
	rows, err := db.Query(`
		SELECT item_id, quantity
		FROM user_items
		WHERE user_id = ? AND quantity > 0
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	inv := economy.Inventory{}
	for rows.Next() {
		var itemID string
		var quantity int64
		if err := rows.Scan(&itemID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		inv[itemID] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inv, nil
}

// GrantItem adjusts the owned quantity of an item by delta. The quantity
// check constraint rejects adjustments that would go negative.
func GrantItem(userID int64, itemID string, delta int64) error {
	_, err := db.Exec(`
		INSERT INTO user_items (user_id, item_id, quantity)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, item_id) DO UPDATE SET quantity = quantity + excluded.quantity
	`, userID, itemID, delta)
	if err != nil {
		return fmt.Errorf("failed to grant item: %w", err)
	}
	return nil
}

// GetActiveBoosts returns every recorded booster expiry for the user,
// including expired ones: expiry is evaluated lazily by the readers, and
// entries are never proactively deleted.
func GetActiveBoosts(userID int64) (economy.ActiveBoosts, error) {
	rows, err := db.Query(`
		SELECT booster_id, expires_at_ms
		FROM user_boosts
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query boosts: %w", err)
	}
	defer rows.Close()

	boosts := economy.ActiveBoosts{}
	for rows.Next() {
		var boosterID string
		var expiresAt int64
		if err := rows.Scan(&boosterID, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan boost row: %w", err)
		}
		boosts[boosterID] = expiresAt
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return boosts, nil
}

// ActivateBoost records a booster expiry for the user, replacing any
// previous expiry for the same booster.
func ActivateBoost(userID int64, boosterID string, expiresAtMs int64) error {
	_, err := db.Exec(`
		INSERT INTO user_boosts (user_id, booster_id, expires_at_ms)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, booster_id) DO UPDATE SET expires_at_ms = excluded.expires_at_ms
	`, userID, boosterID, expiresAtMs)
	if err != nil {
		return fmt.Errorf("failed to activate boost: %w", err)
	}
	return nil
}
