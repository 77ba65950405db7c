package xp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixedSource always yields the same roll, letting tests pin a band.
type fixedSource struct{ v float64 }

func (s fixedSource) Int63() int64 { return int64(s.v * (1 << 63)) }
func (s fixedSource) Seed(int64)   {}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		roll       float64
		tier       RewardTier
		multiplied int
	}{
		{0.005, RewardJackpot, 100},
		{0.03, RewardRare, 30},
		{0.10, RewardBonus, 15},
		{0.50, RewardStandard, 10},
		{0.99, RewardStandard, 10},
	}

	for _, c := range cases {
		r := NewRandomizer(fixedSource{c.roll})
		award := r.Classify(10)
		assert.Equal(t, c.tier, award.Tier, "roll=%v", c.roll)
		assert.Equal(t, c.multiplied, award.XP, "roll=%v", c.roll)
	}
}

func TestClassifyMessages(t *testing.T) {
	r := NewRandomizer(fixedSource{0.001})
	award := r.Classify(10)
	assert.Equal(t, "JACKPOT! You earned 100 XP!", award.Message)

	r = NewRandomizer(fixedSource{0.03})
	award = r.Classify(10)
	assert.Equal(t, "Rare reward! You earned 30 XP!", award.Message)

	r = NewRandomizer(fixedSource{0.08})
	award = r.Classify(10)
	assert.Equal(t, "Bonus! You earned 15 XP!", award.Message)

	r = NewRandomizer(fixedSource{0.5})
	award = r.Classify(10)
	assert.Equal(t, "You earned 10 XP", award.Message)
}

func TestClassifyDeterministicWithSeed(t *testing.T) {
	a := NewRandomizer(rand.NewSource(42))
	b := NewRandomizer(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		awardA := a.Classify(25)
		awardB := b.Classify(25)
		assert.Equal(t, awardA, awardB)
	}
}

func TestClassifyDistribution(t *testing.T) {
	r := NewRandomizer(rand.NewSource(1))

	counts := map[RewardTier]int{}
	const n = 100_000
	for i := 0; i < n; i++ {
		counts[r.Classify(10).Tier]++
	}

	// Loose bounds; the weights are 1%, 5%, 10%, 84%.
	assert.InDelta(t, 0.01, float64(counts[RewardJackpot])/n, 0.005)
	assert.InDelta(t, 0.05, float64(counts[RewardRare])/n, 0.01)
	assert.InDelta(t, 0.10, float64(counts[RewardBonus])/n, 0.01)
	assert.InDelta(t, 0.84, float64(counts[RewardStandard])/n, 0.02)
}
