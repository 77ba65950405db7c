package xp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateUserXPState_Levels(t *testing.T) {
	cases := []struct {
		lifetime int
		level    int
		title    string
	}{
		{0, 1, "Newcomer"},
		{99, 1, "Newcomer"},
		{100, 2, "Explorer"},
		{250, 3, "Regular"},
		{999, 4, "Advocate"},
		{1000, 5, "Counselor"},
		{12000, 10, "Of Counsel"},
		{50000, 10, "Of Counsel"},
	}

	for _, c := range cases {
		state := CalculateUserXPState(c.lifetime, 0, 0, 0)
		assert.Equal(t, c.level, state.Level, "lifetime=%d", c.lifetime)
		assert.Equal(t, c.title, state.LevelTitle, "lifetime=%d", c.lifetime)
	}
}

func TestCalculateUserXPState_AvailableClamp(t *testing.T) {
	state := CalculateUserXPState(100, 150, 0, 0)
	assert.Equal(t, 0, state.AvailableXP)

	state = CalculateUserXPState(1000, 300, 200, 0)
	assert.Equal(t, 500, state.AvailableXP)
}

func TestCalculateUserXPState_Progress(t *testing.T) {
	// Halfway between 100 and 250.
	state := CalculateUserXPState(175, 0, 0, 0)
	assert.Equal(t, 75, state.XPToNextLevel)
	assert.InDelta(t, 0.5, state.ProgressToNextLevel, 0.001)

	// Top level is capped at full progress.
	state = CalculateUserXPState(20000, 0, 0, 0)
	assert.Equal(t, 0, state.XPToNextLevel)
	assert.Equal(t, 1.0, state.ProgressToNextLevel)
}

func TestTierForSpendOrXP(t *testing.T) {
	// Spend alone unlocks silver.
	state := CalculateUserXPState(0, 0, 0, 25_000)
	assert.Equal(t, "silver", state.Tier)
	assert.Equal(t, 5, state.TierDiscount)

	// XP alone unlocks gold.
	state = CalculateUserXPState(5000, 0, 0, 0)
	assert.Equal(t, "gold", state.Tier)
	assert.Equal(t, 10, state.TierDiscount)

	// Neither at platinum thresholds stays gold.
	state = CalculateUserXPState(5000, 0, 0, 100_000)
	assert.Equal(t, "gold", state.Tier)

	state = CalculateUserXPState(15000, 0, 0, 0)
	assert.Equal(t, "platinum", state.Tier)
	assert.Equal(t, 15, state.TierDiscount)
}

func TestNextDiscountTier(t *testing.T) {
	cfg := DefaultConfig()

	threshold, gap, err := cfg.NextDiscountTier(0)
	require.NoError(t, err)
	assert.Equal(t, 500, threshold)
	assert.Equal(t, 500, gap)

	threshold, gap, err = cfg.NextDiscountTier(500)
	require.NoError(t, err)
	assert.Equal(t, 1000, threshold)
	assert.Equal(t, 500, gap)

	threshold, gap, err = cfg.NextDiscountTier(9999)
	require.NoError(t, err)
	assert.Equal(t, 10000, threshold)
	assert.Equal(t, 1, gap)

	_, _, err = cfg.NextDiscountTier(10000)
	assert.ErrorIs(t, err, ErrMaxTierReached)
}

func TestIsRedemptionThreshold(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.IsRedemptionThreshold(500))
	assert.True(t, cfg.IsRedemptionThreshold(10000))
	assert.False(t, cfg.IsRedemptionThreshold(750))
	assert.False(t, cfg.IsRedemptionThreshold(0))
}

func TestXPToDiscount(t *testing.T) {
	cfg := Config{ConversionRateCents: 2}
	assert.Equal(t, 1000, cfg.XPToDiscount(500))

	assert.Equal(t, 500, DefaultConfig().XPToDiscount(500))
}
