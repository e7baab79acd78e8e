package economy

import "fmt"

// Rarity is a gacha rarity tier. The set is closed and totally ordered:
// N < R < SR < SSR < UR. Values outside the set are a data integrity
// failure, never silently ranked.
type Rarity string

const (
	RarityN   Rarity = "N"
	RarityR   Rarity = "R"
	RaritySR  Rarity = "SR"
	RaritySSR Rarity = "SSR"
	RarityUR  Rarity = "UR"
)

var rarityRanks = map[Rarity]int{
	RarityN:   0,
	RarityR:   1,
	RaritySR:  2,
	RaritySSR: 3,
	RarityUR:  4,
}

// Rank returns the rarity's position in the total order.
func (r Rarity) Rank() (int, error) {
	rank, ok := rarityRanks[r]
	if !ok {
		return 0, fmt.Errorf("unknown rarity: %q", r)
	}
	return rank, nil
}

// GachaItem is a reward candidate.
type GachaItem struct {
	ID     string
	Rarity Rarity
}

// PickBetter returns whichever candidate has the higher rarity. On an
// exact tie the left operand wins; the reroll loop relies on that
// determinism when folding a running best against fresh draws.
func PickBetter(a, b GachaItem) (GachaItem, error) {
	ra, err := a.Rarity.Rank()
	if err != nil {
		return GachaItem{}, err
	}
	rb, err := b.Rarity.Rank()
	if err != nil {
		return GachaItem{}, err
	}
	if rb > ra {
		return b, nil
	}
	return a, nil
}

// BestOf folds PickBetter over the initial draw and any redraws, keeping
// the left bias: an equally rare redraw never replaces the running best.
func BestOf(initial GachaItem, redraws ...GachaItem) (GachaItem, error) {
	best := initial
	for _, item := range redraws {
		var err error
		best, err = PickBetter(best, item)
		if err != nil {
			return GachaItem{}, err
		}
	}
	return best, nil
}
