package xp

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserXPState is the derived economy state for one user. It is computed
// from raw ledger totals and never stored.
type UserXPState struct {
	UserID              uuid.UUID `json:"user_id"`
	TotalXP             int       `json:"total_xp"`
	AvailableXP         int       `json:"available_xp"`
	LifetimeXP          int       `json:"lifetime_xp"`
	RedeemedXP          int       `json:"redeemed_xp"`
	ExpiredXP           int       `json:"expired_xp"`
	Level               int       `json:"level"`
	LevelTitle          string    `json:"level_title"`
	XPToNextLevel       int       `json:"xp_to_next_level"`
	ProgressToNextLevel float64   `json:"progress_to_next_level"`
	Tier                string    `json:"tier"`
	TierDiscount        int       `json:"tier_discount"`
}

// LedgerEntry is one append-only row of a user's XP ledger.
type LedgerEntry struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	Delta          int        `json:"delta" db:"delta"`
	Reason         string     `json:"reason" db:"reason"`
	RewardTier     RewardTier `json:"reward_tier,omitempty" db:"reward_tier"`
	IdempotencyKey string     `json:"idempotency_key" db:"idempotency_key"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

type levelStep struct {
	Threshold int
	Title     string
}

// levelTable is monotonic in Threshold. Level N is the index of the highest
// step whose threshold the lifetime XP has reached.
var levelTable = []levelStep{
	{0, "Newcomer"},
	{100, "Explorer"},
	{250, "Regular"},
	{500, "Advocate"},
	{1000, "Counselor"},
	{2000, "Senior Counselor"},
	{3500, "Partner"},
	{5500, "Senior Partner"},
	{8000, "Managing Partner"},
	{12000, "Of Counsel"},
}

type tierStep struct {
	Name         string
	MinSpend     int // cents
	MinXP        int
	DiscountPerc int
}

var tierTable = []tierStep{
	{"bronze", 0, 0, 0},
	{"silver", 25_000, 1000, 5},
	{"gold", 100_000, 5000, 10},
	{"platinum", 250_000, 15000, 15},
}

// Config holds the economy tunables that are deployment configuration,
// not code: the XP->currency conversion rate and the redemption ladder.
type Config struct {
	// ConversionRateCents is how many cents one XP is worth on redemption.
	ConversionRateCents int
	// RedemptionThresholds are the XP amounts at which a discount can be
	// claimed, ascending.
	RedemptionThresholds []int
}

func DefaultConfig() Config {
	return Config{
		ConversionRateCents:  1,
		RedemptionThresholds: []int{500, 1000, 2500, 5000, 10000},
	}
}

// CalculateUserXPState derives the full economy state from ledger totals.
// Pure and deterministic; availableXP is clamped so it can never go below
// zero even on inconsistent inputs.
func CalculateUserXPState(lifetimeXP, redeemedXP, expiredXP, lifetimeSpendCents int) UserXPState {
	available := lifetimeXP - redeemedXP - expiredXP
	if available < 0 {
		available = 0
	}

	level, title, toNext, progress := levelFor(lifetimeXP)
	tier := tierFor(lifetimeSpendCents, lifetimeXP)

	return UserXPState{
		TotalXP:             lifetimeXP,
		AvailableXP:         available,
		LifetimeXP:          lifetimeXP,
		RedeemedXP:          redeemedXP,
		ExpiredXP:           expiredXP,
		Level:               level,
		LevelTitle:          title,
		XPToNextLevel:       toNext,
		ProgressToNextLevel: progress,
		Tier:                tier.Name,
		TierDiscount:        tier.DiscountPerc,
	}
}

func levelFor(lifetimeXP int) (level int, title string, toNext int, progress float64) {
	idx := 0
	for i, step := range levelTable {
		if lifetimeXP >= step.Threshold {
			idx = i
		}
	}

	level = idx + 1
	title = levelTable[idx].Title

	if idx == len(levelTable)-1 {
		return level, title, 0, 1.0
	}

	cur := levelTable[idx].Threshold
	next := levelTable[idx+1].Threshold
	toNext = next - lifetimeXP
	progress = float64(lifetimeXP-cur) / float64(next-cur)
	return level, title, toNext, progress
}

// tierFor uses the higher of lifetime spend and lifetime XP against the
// tier table, so big spenders and heavy engagers both climb.
func tierFor(lifetimeSpendCents, lifetimeXP int) tierStep {
	best := tierTable[0]
	for _, step := range tierTable {
		if lifetimeSpendCents >= step.MinSpend || lifetimeXP >= step.MinXP {
			best = step
		}
	}
	return best
}

// ErrMaxTierReached is the sentinel for NextDiscountTier when no redemption
// threshold sits above the user's available XP.
var ErrMaxTierReached = fmt.Errorf("max discount tier reached")

// NextDiscountTier returns the smallest redemption threshold strictly
// greater than availableXP and the XP gap to it.
func (c Config) NextDiscountTier(availableXP int) (threshold, gap int, err error) {
	for _, t := range c.RedemptionThresholds {
		if t > availableXP {
			return t, t - availableXP, nil
		}
	}
	return 0, 0, ErrMaxTierReached
}

// XPToDiscount converts an XP amount to a discount value in cents.
func (c Config) XPToDiscount(xp int) int {
	return xp * c.ConversionRateCents
}

// IsRedemptionThreshold reports whether amount is one of the configured
// redemption steps.
func (c Config) IsRedemptionThreshold(amount int) bool {
	for _, t := range c.RedemptionThresholds {
		if t == amount {
			return true
		}
	}
	return false
}

// Redemption records a conversion of available XP into a discount credit.
type Redemption struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	AmountXP      int       `json:"amount_xp" db:"amount_xp"`
	DiscountCents int       `json:"discount_cents" db:"discount_cents"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
