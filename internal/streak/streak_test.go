package streak

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func day(yyyy int, m time.Month, d int) time.Time {
	return time.Date(yyyy, m, d, 12, 0, 0, 0, time.UTC)
}

func TestCheckInFirstActivity(t *testing.T) {
	s := &State{UserID: uuid.New()}
	res := CheckIn(s, day(2026, 3, 1))

	assert.True(t, res.Updated)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 1, res.LongestStreak)
	assert.Empty(t, res.MilestonesEarned)
}

func TestCheckInSameDayNoOp(t *testing.T) {
	s := &State{UserID: uuid.New()}
	CheckIn(s, day(2026, 3, 1))
	res := CheckIn(s, time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC))

	assert.False(t, res.Updated)
	assert.Equal(t, 1, res.CurrentStreak)
}

func TestCheckInConsecutiveDays(t *testing.T) {
	s := &State{UserID: uuid.New()}
	CheckIn(s, day(2026, 3, 1))
	res := CheckIn(s, day(2026, 3, 2))

	assert.True(t, res.Updated)
	assert.Equal(t, 2, res.CurrentStreak)
	assert.Equal(t, 2, res.LongestStreak)
}

func TestCheckInWithin48HoursExtends(t *testing.T) {
	s := &State{UserID: uuid.New()}
	CheckIn(s, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	// 47 hours later, two calendar days on.
	res := CheckIn(s, time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC))

	assert.Equal(t, 2, res.CurrentStreak)
}

func TestCheckInLongGapResets(t *testing.T) {
	s := &State{UserID: uuid.New()}
	for d := 1; d <= 5; d++ {
		CheckIn(s, day(2026, 3, d))
	}
	assert.Equal(t, 5, s.CurrentStreak)

	res := CheckIn(s, day(2026, 3, 10))
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 5, res.LongestStreak)
	assert.Equal(t, 0, s.LastMilestone)
}

func TestCheckInMilestoneOnce(t *testing.T) {
	s := &State{UserID: uuid.New()}
	var res CheckInResult
	for d := 1; d <= 7; d++ {
		res = CheckIn(s, day(2026, 3, d))
	}

	assert.Equal(t, []int{7}, res.MilestonesEarned)
	assert.Equal(t, 100, res.BonusXP)
	assert.Equal(t, 7, s.LastMilestone)
	// 7-day milestone carries no freeze token.
	assert.Equal(t, 0, s.FreezeTokens)

	// Day 8: no repeat of the milestone.
	res = CheckIn(s, day(2026, 3, 8))
	assert.Empty(t, res.MilestonesEarned)
	assert.Zero(t, res.BonusXP)
}

func TestMilestoneFreezeTokenCap(t *testing.T) {
	s := &State{UserID: uuid.New(), FreezeTokens: MaxFreezeTokens, CurrentStreak: 29, LongestStreak: 29}
	last := day(2026, 3, 1)
	s.LastActivityDate = &last

	res := CheckIn(s, day(2026, 3, 2))
	assert.Equal(t, []int{30}, res.MilestonesEarned)
	assert.Equal(t, 1000, res.BonusXP)
	assert.Equal(t, MaxFreezeTokens, s.FreezeTokens)
}

func TestMilestoneBonusXP(t *testing.T) {
	assert.Equal(t, 100, MilestoneBonusXP(7))
	assert.Equal(t, 250, MilestoneBonusXP(14))
	assert.Equal(t, 1000, MilestoneBonusXP(30))
	assert.Equal(t, 10000, MilestoneBonusXP(365))
	assert.Equal(t, 0, MilestoneBonusXP(8))
}

func TestEvaluateScanActiveYesterday(t *testing.T) {
	last := day(2026, 3, 4)
	s := &State{CurrentStreak: 3, LongestStreak: 3, LastMilestone: 0, LastActivityDate: &last}

	res := EvaluateScan(s, day(2026, 3, 5))
	assert.Equal(t, ScanActive, res.Outcome)
	assert.Equal(t, 3, s.CurrentStreak)
}

func TestEvaluateScanMissedDayAtRisk(t *testing.T) {
	last := day(2026, 3, 3)
	s := &State{CurrentStreak: 5, LongestStreak: 5, LastActivityDate: &last}

	res := EvaluateScan(s, day(2026, 3, 5))
	assert.Equal(t, ScanAtRisk, res.Outcome)
	assert.Equal(t, 5, s.CurrentStreak)
}

func TestEvaluateScanFreezeConsumed(t *testing.T) {
	last := day(2026, 3, 3)
	s := &State{CurrentStreak: 5, LongestStreak: 5, FreezeTokens: 2, AutoUseFreeze: true, LastActivityDate: &last}

	res := EvaluateScan(s, day(2026, 3, 5))
	assert.Equal(t, ScanFrozen, res.Outcome)
	assert.Equal(t, 1, s.FreezeTokens)
	assert.Equal(t, 5, s.CurrentStreak)
	// The freeze backfills yesterday so tomorrow's scan sees gap 1.
	assert.Equal(t, day(2026, 3, 4).Truncate(24*time.Hour), truncateDay(*s.LastActivityDate))
}

func TestEvaluateScanFreezeDisabled(t *testing.T) {
	last := day(2026, 3, 3)
	s := &State{CurrentStreak: 5, LongestStreak: 5, FreezeTokens: 2, AutoUseFreeze: false, LastActivityDate: &last}

	res := EvaluateScan(s, day(2026, 3, 5))
	assert.Equal(t, ScanAtRisk, res.Outcome)
	assert.Equal(t, 2, s.FreezeTokens)
}

func TestEvaluateScanBroken(t *testing.T) {
	last := day(2026, 3, 1)
	s := &State{CurrentStreak: 10, LongestStreak: 10, LastMilestone: 7, LastActivityDate: &last}

	res := EvaluateScan(s, day(2026, 3, 4))
	assert.Equal(t, ScanBroken, res.Outcome)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 0, s.LastMilestone)
	assert.Equal(t, 10, s.LongestStreak)
}

func TestEvaluateScanIdempotentPerDay(t *testing.T) {
	last := day(2026, 3, 3)
	s := &State{CurrentStreak: 5, LongestStreak: 5, FreezeTokens: 1, AutoUseFreeze: true, LastActivityDate: &last}

	res := EvaluateScan(s, day(2026, 3, 5))
	assert.Equal(t, ScanFrozen, res.Outcome)

	// Re-running the scan for the same date must not burn another token.
	res = EvaluateScan(s, day(2026, 3, 5))
	assert.Equal(t, ScanSkipped, res.Outcome)
	assert.Equal(t, 0, s.FreezeTokens)
}

func TestEvaluateScanMilestoneCatchUp(t *testing.T) {
	last := day(2026, 3, 4)
	s := &State{CurrentStreak: 30, LongestStreak: 30, LastMilestone: 14, FreezeTokens: 0, LastActivityDate: &last}

	res := EvaluateScan(s, day(2026, 3, 5))
	assert.Equal(t, ScanMilestone, res.Outcome)
	assert.Equal(t, 30, res.Milestone)
	assert.Equal(t, 1000, res.BonusXP)
	assert.Equal(t, 1, s.FreezeTokens)
}

func TestDemoStateFlagged(t *testing.T) {
	s := DemoState(uuid.New())
	assert.True(t, s.IsDemo)
	assert.True(t, s.AutoUseFreeze)
	assert.Equal(t, 1, s.FreezeTokens)
}
