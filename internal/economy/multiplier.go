package economy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Multiplier resolution is recomputed from scratch on every call — boosters
// expire between calls, so nothing here may cache state. All functions take
// their inputs explicitly and never touch shared state.

var (
	one = decimal.NewFromInt(1)

	xpTitleMasterBonus = decimal.RequireFromString("0.10")
	xpTitleFirstBonus  = decimal.RequireFromString("0.05")
	moneyBoosterFactor = decimal.RequireFromString("1.5")
	goldUIFactor       = decimal.RequireFromString("1.1")
	autoGrowthStep     = decimal.RequireFromString("0.1")
	keibaGrowthStep    = decimal.RequireFromString("0.05")
	gachaDiscountRate  = decimal.RequireFromString("0.8")
)

// XPMultiplier resolves the experience multiplier. An active XP booster
// overrides the base rather than stacking: triple beats double. Owned
// titles then add a percentage bonus on top, applied as base*(1+bonus).
func XPMultiplier(inv Inventory, boosts ActiveBoosts, now time.Time) decimal.Decimal {
	base := one
	switch {
	case IsActive(boosts, BoosterTripleXP, now):
		base = decimal.NewFromInt(3)
	case IsActive(boosts, BoosterDoubleXP, now):
		base = decimal.NewFromInt(2)
	}

	bonus := decimal.Zero
	if inv[ItemTitleMaster] > 0 {
		bonus = bonus.Add(xpTitleMasterBonus)
	}
	if inv[ItemTitleFirst] > 0 {
		bonus = bonus.Add(xpTitleFirstBonus)
	}
	return base.Mul(one.Add(bonus))
}

// XPFlatBonus resolves the additive XP bonus, independent of the
// multiplier. Combo and focus can apply simultaneously.
func XPFlatBonus(boosts ActiveBoosts, now time.Time) int64 {
	var bonus int64
	if IsActive(boosts, BoosterCombo, now) {
		bonus += 5
	}
	if IsActive(boosts, BoosterFocus, now) {
		bonus += 3
	}
	return bonus
}

// MoneyMultiplier resolves the money multiplier. The booster factor is
// applied before the ownership factor; the order is part of the contract.
func MoneyMultiplier(inv Inventory, boosts ActiveBoosts, now time.Time) decimal.Decimal {
	m := one
	if IsActive(boosts, BoosterMoney, now) {
		m = m.Mul(moneyBoosterFactor)
	}
	if inv[ItemGoldUI] > 0 {
		m = m.Mul(goldUIFactor)
	}
	return m
}

// ClickPower resolves the per-click value: a flat base of 2 plus one unit
// per click-growth item owned.
func ClickPower(inv Inventory) int64 {
	return 2 + inv[ItemClickGrowth]
}

// AutoXPMultiplier resolves the automatic XP multiplier:
// 1 + 0.1 per auto-growth item, linear and uncapped.
func AutoXPMultiplier(inv Inventory) decimal.Decimal {
	return one.Add(autoGrowthStep.Mul(decimal.NewFromInt(inv[ItemAutoGrowth])))
}

// PayoutMultiplier resolves the wagering payout multiplier:
// 1 + 0.05 per keiba-growth item, linear and uncapped. Settlement applies
// this to raw race payouts.
func PayoutMultiplier(inv Inventory) decimal.Decimal {
	return one.Add(keibaGrowthStep.Mul(decimal.NewFromInt(inv[ItemKeibaGrowth])))
}

// GachaDiscount resolves the gacha cost rate: 0.8 while the gacha booster
// is active, otherwise 1.0. Discounts do not stack.
func GachaDiscount(boosts ActiveBoosts, now time.Time) decimal.Decimal {
	if IsActive(boosts, BoosterGacha, now) {
		return gachaDiscountRate
	}
	return one
}

// GachaRerolls resolves the reroll count: the single highest-granting
// condition among the lucky boosters and pet ownership wins; grants never
// stack additively.
func GachaRerolls(inv Inventory, boosts ActiveBoosts, now time.Time) int {
	rerolls := 0
	if IsActive(boosts, BoosterLucky, now) {
		rerolls = 1
	}
	if IsActive(boosts, BoosterLucky2, now) && rerolls < 2 {
		rerolls = 2
	}
	if inv[ItemPet] > 0 && rerolls < 1 {
		rerolls = 1
	}
	return rerolls
}
