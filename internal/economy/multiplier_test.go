package economy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func activeUntil(now time.Time, ids ...string) ActiveBoosts {
	boosts := ActiveBoosts{}
	for _, id := range ids {
		boosts[id] = now.Add(time.Hour).UnixMilli()
	}
	return boosts
}

func TestXPMultiplier(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		inv    Inventory
		boosts ActiveBoosts
		want   string
	}{
		{"no modifiers", Inventory{}, ActiveBoosts{}, "1"},
		{"double xp", Inventory{}, activeUntil(now, BoosterDoubleXP), "2"},
		{"triple xp", Inventory{}, activeUntil(now, BoosterTripleXP), "3"},
		{
			// Highest tier wins; boosters never stack with each other.
			"double and triple both active",
			Inventory{},
			activeUntil(now, BoosterDoubleXP, BoosterTripleXP),
			"3",
		},
		{"master title only", Inventory{ItemTitleMaster: 1}, ActiveBoosts{}, "1.10"},
		{"first title only", Inventory{ItemTitleFirst: 1}, ActiveBoosts{}, "1.05"},
		{
			"both titles, no booster",
			Inventory{ItemTitleMaster: 1, ItemTitleFirst: 1},
			ActiveBoosts{},
			"1.15",
		},
		{
			"triple xp with both titles",
			Inventory{ItemTitleMaster: 1, ItemTitleFirst: 1},
			activeUntil(now, BoosterTripleXP),
			"3.45",
		},
		{
			"expired booster has no effect",
			Inventory{},
			ActiveBoosts{BoosterTripleXP: now.Add(-time.Minute).UnixMilli()},
			"1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := XPMultiplier(tt.inv, tt.boosts, now)
			assert.True(t, got.Equal(mustDecimal(t, tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestXPFlatBonus(t *testing.T) {
	now := time.Now()

	assert.Equal(t, int64(0), XPFlatBonus(ActiveBoosts{}, now))
	assert.Equal(t, int64(5), XPFlatBonus(activeUntil(now, BoosterCombo), now))
	assert.Equal(t, int64(3), XPFlatBonus(activeUntil(now, BoosterFocus), now))
	// Both apply simultaneously.
	assert.Equal(t, int64(8), XPFlatBonus(activeUntil(now, BoosterCombo, BoosterFocus), now))
}

func TestMoneyMultiplier(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		inv    Inventory
		boosts ActiveBoosts
		want   string
	}{
		{"no modifiers", Inventory{}, ActiveBoosts{}, "1"},
		{"money booster only", Inventory{}, activeUntil(now, BoosterMoney), "1.5"},
		{"gold ui only", Inventory{ItemGoldUI: 1}, ActiveBoosts{}, "1.1"},
		// 1 * 1.5 * 1.1, booster factor applied first.
		{"booster and gold ui", Inventory{ItemGoldUI: 1}, activeUntil(now, BoosterMoney), "1.65"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoneyMultiplier(tt.inv, tt.boosts, now)
			assert.True(t, got.Equal(mustDecimal(t, tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestClickPower(t *testing.T) {
	assert.Equal(t, int64(2), ClickPower(Inventory{}))
	assert.Equal(t, int64(3), ClickPower(Inventory{ItemClickGrowth: 1}))
	assert.Equal(t, int64(12), ClickPower(Inventory{ItemClickGrowth: 10}))
}

func TestAutoXPMultiplier(t *testing.T) {
	assert.True(t, AutoXPMultiplier(Inventory{}).Equal(mustDecimal(t, "1")))
	assert.True(t, AutoXPMultiplier(Inventory{ItemAutoGrowth: 3}).Equal(mustDecimal(t, "1.3")))
	// Linear and uncapped.
	assert.True(t, AutoXPMultiplier(Inventory{ItemAutoGrowth: 25}).Equal(mustDecimal(t, "3.5")))
}

func TestPayoutMultiplier(t *testing.T) {
	assert.True(t, PayoutMultiplier(Inventory{}).Equal(mustDecimal(t, "1")))
	assert.True(t, PayoutMultiplier(Inventory{ItemKeibaGrowth: 3}).Equal(mustDecimal(t, "1.15")))
	assert.True(t, PayoutMultiplier(Inventory{ItemKeibaGrowth: 40}).Equal(mustDecimal(t, "3")))
}

func TestGachaDiscount(t *testing.T) {
	now := time.Now()
	assert.True(t, GachaDiscount(ActiveBoosts{}, now).Equal(mustDecimal(t, "1")))
	assert.True(t, GachaDiscount(activeUntil(now, BoosterGacha), now).Equal(mustDecimal(t, "0.8")))
}

func TestGachaRerolls(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		inv    Inventory
		boosts ActiveBoosts
		want   int
	}{
		{"no grantor", Inventory{}, ActiveBoosts{}, 0},
		{"lucky", Inventory{}, activeUntil(now, BoosterLucky), 1},
		{"lucky2", Inventory{}, activeUntil(now, BoosterLucky2), 2},
		{"pet", Inventory{ItemPet: 1}, ActiveBoosts{}, 1},
		// Take-the-max, never additive: both lucky boosters yield 2, not 3.
		{"both lucky boosters", Inventory{}, activeUntil(now, BoosterLucky, BoosterLucky2), 2},
		{"all grantors", Inventory{ItemPet: 1}, activeUntil(now, BoosterLucky, BoosterLucky2), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GachaRerolls(tt.inv, tt.boosts, now))
		})
	}
}

func TestUnknownIdentifiersHaveNoEffect(t *testing.T) {
	now := time.Now()
	inv := Inventory{"mystery_item": 42}
	boosts := activeUntil(now, "mystery_booster")

	assert.True(t, XPMultiplier(inv, boosts, now).Equal(mustDecimal(t, "1")))
	assert.Equal(t, int64(0), XPFlatBonus(boosts, now))
	assert.True(t, MoneyMultiplier(inv, boosts, now).Equal(mustDecimal(t, "1")))
	assert.Equal(t, int64(2), ClickPower(inv))
	assert.Equal(t, 0, GachaRerolls(inv, boosts, now))
}
