package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Race ids carry the Japan-local calendar date of the race.
var jst = time.FixedZone("JST", 9*60*60)

var raceIDPattern = regexp.MustCompile(`^\d{8}_\d{4}$`)

// NewRaceID mints a race id in the YYYYMMDD_HHMM format from the race's
// post time.
func NewRaceID(postTime time.Time) string {
	return postTime.In(jst).Format("20060102_1504")
}

// ValidRaceID reports whether id is a well-formed race identifier.
func ValidRaceID(id string) bool {
	return raceIDPattern.MatchString(id)
}

// CreateRace schedules a race. The result is attached later, when known.
func CreateRace(id, name string) (*Race, error) {
	if !ValidRaceID(id) {
		return nil, fmt.Errorf("invalid race id: %q", id)
	}

	_, err := db.Exec(`
		INSERT INTO keiba_races (id, name)
		VALUES (?, ?)
	`, id, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert race: %w", err)
	}

	return GetRace(id)
}

// GetRace retrieves a race by id. Returns ErrNotFound if it does not exist.
func GetRace(id string) (*Race, error) {
	var race Race
	var horseID sql.NullInt64
	var odds sql.NullString
	var settled int64

	err := db.QueryRow(`
		SELECT id, name, result_horse_id, result_odds, settled, created_at
		FROM keiba_races
		WHERE id = ?
	`, id).Scan(&race.ID, &race.Name, &horseID, &odds, &settled, &race.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("race %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}

	race.Settled = settled != 0
	if horseID.Valid && odds.Valid {
		parsed, err := decimal.NewFromString(odds.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt odds %q on race %s: %w", odds.String, id, err)
		}
		race.HasResult = true
		race.ResultHorseID = horseID.Int64
		race.ResultOdds = parsed
	}
	return &race, nil
}

// AttachResult records the winning selection and its odds on a race.
// Results on a settled race are frozen.
func AttachResult(raceID string, horseID int64, odds decimal.Decimal) error {
	if odds.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("odds must be positive, got %s", odds)
	}

	res, err := db.Exec(`
		UPDATE keiba_races
		SET result_horse_id = ?, result_odds = ?
		WHERE id = ? AND settled = 0
	`, horseID, odds.String(), raceID)
	if err != nil {
		return fmt.Errorf("failed to attach result: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		race, err := GetRace(raceID)
		if err != nil {
			return err
		}
		return fmt.Errorf("race %s is already settled, result is frozen", race.ID)
	}
	return nil
}

// RacesPendingSettlement returns ids of races that have a result attached
// but have not been settled yet.
func RacesPendingSettlement() ([]string, error) {
	rows, err := db.Query(`
		SELECT id
		FROM keiba_races
		WHERE result_horse_id IS NOT NULL AND settled = 0
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending races: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
