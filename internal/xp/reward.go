package xp

import (
	"fmt"
	"math/rand"
)

// RewardTier classifies an XP award on the variable-ratio schedule. Most
// awards are standard; a small slice of oversized payouts keeps the reward
// unpredictable, which is what sustains engagement.
type RewardTier string

const (
	RewardJackpot  RewardTier = "jackpot"
	RewardRare     RewardTier = "rare"
	RewardBonus    RewardTier = "bonus"
	RewardStandard RewardTier = "standard"
)

// Award is the outcome of classifying one base XP amount.
type Award struct {
	Tier    RewardTier `json:"tier"`
	XP      int        `json:"xp"`
	Message string     `json:"message"`
}

type rewardBand struct {
	tier       RewardTier
	weight     float64
	multiplier float64
}

// Bands are checked in order; weights must sum to 1.
var defaultBands = []rewardBand{
	{RewardJackpot, 0.01, 10.0},
	{RewardRare, 0.05, 3.0},
	{RewardBonus, 0.10, 1.5},
	{RewardStandard, 0.84, 1.0},
}

// Randomizer draws reward tiers from a weighted distribution. The random
// source is injected so tests can pin the sequence; production seeds an
// ordinary PRNG (this is engagement mechanics, not security).
type Randomizer struct {
	bands []rewardBand
	rng   *rand.Rand
}

func NewRandomizer(src rand.Source) *Randomizer {
	return &Randomizer{
		bands: defaultBands,
		rng:   rand.New(src),
	}
}

// Classify turns a base XP amount into a tiered award.
func (r *Randomizer) Classify(base int) Award {
	roll := r.rng.Float64()

	acc := 0.0
	band := r.bands[len(r.bands)-1]
	for _, b := range r.bands {
		acc += b.weight
		if roll < acc {
			band = b
			break
		}
	}

	xp := int(float64(base) * band.multiplier)
	return Award{
		Tier:    band.tier,
		XP:      xp,
		Message: rewardMessage(band.tier, xp),
	}
}

func rewardMessage(tier RewardTier, xp int) string {
	switch tier {
	case RewardJackpot:
		return fmt.Sprintf("JACKPOT! You earned %d XP!", xp)
	case RewardRare:
		return fmt.Sprintf("Rare reward! You earned %d XP!", xp)
	case RewardBonus:
		return fmt.Sprintf("Bonus! You earned %d XP!", xp)
	default:
		return fmt.Sprintf("You earned %d XP", xp)
	}
}
