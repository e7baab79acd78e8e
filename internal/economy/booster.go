package economy

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Inventory maps an item identifier to the quantity owned.
// An absent key means a quantity of zero; quantities are never negative.
type Inventory map[string]int64

// ActiveBoosts maps a booster identifier to its absolute expiry timestamp
// in milliseconds since epoch. Entries are never evicted; expiry is
// evaluated lazily on every read.
type ActiveBoosts map[string]int64

// Booster identifiers.
const (
	BoosterDoubleXP = "double_xp"
	BoosterTripleXP = "triple_xp"
	BoosterCombo    = "combo"
	BoosterFocus    = "focus"
	BoosterMoney    = "money"
	BoosterGacha    = "gacha"
	BoosterLucky    = "lucky"
	BoosterLucky2   = "lucky2"
)

// Item identifiers.
const (
	ItemTitleFirst  = "title_first"
	ItemTitleMaster = "title_master"
	ItemGoldUI      = "gold_ui"
	ItemClickGrowth = "click_growth"
	ItemAutoGrowth  = "auto_growth"
	ItemKeibaGrowth = "keiba_growth"
	ItemPet         = "pet"
)

// IsActive reports whether the booster is currently active: its recorded
// expiry must exist and be strictly greater than now. A booster is already
// inactive at the exact expiry instant.
func IsActive(boosts ActiveBoosts, boosterID string, now time.Time) bool {
	expiry, ok := boosts[boosterID]
	return ok && expiry > now.UnixMilli()
}

// Catalog maps a booster identifier to its duration. It is immutable,
// process-wide configuration; entries are never zero-valued.
type Catalog map[string]time.Duration

// DefaultCatalog returns the built-in booster durations.
func DefaultCatalog() Catalog {
	return Catalog{
		BoosterDoubleXP: 30 * time.Minute,
		BoosterTripleXP: 30 * time.Minute,
		BoosterCombo:    10 * time.Minute,
		BoosterFocus:    10 * time.Minute,
		BoosterMoney:    30 * time.Minute,
		BoosterGacha:    15 * time.Minute,
		BoosterLucky:    20 * time.Minute,
		BoosterLucky2:   20 * time.Minute,
	}
}

// LoadCatalog reads booster durations from a YAML file mapping booster id
// to a Go duration string (e.g. "30m"). Entries missing from the file fall
// back to the defaults.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	catalog := DefaultCatalog()
	for id, s := range raw {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q for booster %s: %w", s, id, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("non-positive duration %q for booster %s", s, id)
		}
		catalog[id] = d
	}
	return catalog, nil
}

// DurationOf looks up a booster's duration. The second return value is
// false for identifiers missing from the catalog; the caller decides
// whether that is an error.
func (c Catalog) DurationOf(boosterID string) (time.Duration, bool) {
	d, ok := c[boosterID]
	return d, ok
}

// Activate records the booster's expiry in boosts as now plus its catalog
// duration. Activating a booster that is already running restarts it.
func (c Catalog) Activate(boosts ActiveBoosts, boosterID string, now time.Time) error {
	d, ok := c[boosterID]
	if !ok {
		return fmt.Errorf("unknown booster: %s", boosterID)
	}
	boosts[boosterID] = now.Add(d).UnixMilli()
	return nil
}
