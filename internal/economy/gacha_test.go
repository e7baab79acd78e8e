package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickBetterHigherRarityWins(t *testing.T) {
	chain := []GachaItem{
		{ID: "n", Rarity: RarityN},
		{ID: "r", Rarity: RarityR},
		{ID: "sr", Rarity: RaritySR},
		{ID: "ssr", Rarity: RaritySSR},
		{ID: "ur", Rarity: RarityUR},
	}

	// Ordering holds consistently along the whole rarity chain, regardless
	// of operand order.
	for i := 0; i < len(chain); i++ {
		for j := i + 1; j < len(chain); j++ {
			got, err := PickBetter(chain[i], chain[j])
			require.NoError(t, err)
			assert.Equal(t, chain[j], got)

			got, err = PickBetter(chain[j], chain[i])
			require.NoError(t, err)
			assert.Equal(t, chain[j], got)
		}
	}
}

func TestPickBetterLeftBiasOnTie(t *testing.T) {
	a := GachaItem{ID: "a", Rarity: RaritySR}
	b := GachaItem{ID: "b", Rarity: RaritySR}

	got, err := PickBetter(a, b)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	// Idempotent: pickBetter(x, x) is the left operand.
	got, err = PickBetter(a, a)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestPickBetterUnknownRarity(t *testing.T) {
	good := GachaItem{ID: "ok", Rarity: RarityN}
	bad := GachaItem{ID: "bad", Rarity: "LEGENDARY"}

	_, err := PickBetter(good, bad)
	assert.Error(t, err)
	_, err = PickBetter(bad, good)
	assert.Error(t, err)
}

func TestBestOf(t *testing.T) {
	initial := GachaItem{ID: "first", Rarity: RarityR}
	best, err := BestOf(initial,
		GachaItem{ID: "low", Rarity: RarityN},
		GachaItem{ID: "high", Rarity: RaritySSR},
		GachaItem{ID: "tied", Rarity: RaritySSR},
	)
	require.NoError(t, err)
	// The SSR redraw wins; the equally rare later redraw does not replace it.
	assert.Equal(t, "high", best.ID)
}

func TestBestOfNoRedraws(t *testing.T) {
	initial := GachaItem{ID: "only", Rarity: RarityN}
	best, err := BestOf(initial)
	require.NoError(t, err)
	assert.Equal(t, initial, best)
}

func TestRarityRank(t *testing.T) {
	prev := -1
	for _, r := range []Rarity{RarityN, RarityR, RaritySR, RaritySSR, RarityUR} {
		rank, err := r.Rank()
		require.NoError(t, err)
		assert.Greater(t, rank, prev)
		prev = rank
	}

	_, err := Rarity("X").Rank()
	assert.Error(t, err)
}
