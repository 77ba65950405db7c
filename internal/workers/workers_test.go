package workers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexengageAPI/internal/leaderboard"
)

func TestComputeTargetsOrdinaryDay(t *testing.T) {
	// Wednesday 2026-03-04, first tick of the day.
	now := time.Date(2026, 3, 4, 0, 12, 0, 0, time.UTC)

	targets := computeTargets(now)
	require.Len(t, targets, 3)

	// The daily board covers the day that just ended, not the new one.
	assert.Equal(t, leaderboard.PeriodDaily, targets[0].period)
	start, _ := leaderboard.PeriodBounds(leaderboard.PeriodDaily, targets[0].ref)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), start)

	assert.Equal(t, leaderboard.PeriodWeekly, targets[1].period)
	assert.Equal(t, now, targets[1].ref)
	assert.Equal(t, leaderboard.PeriodMonthly, targets[2].period)
	assert.Equal(t, now, targets[2].ref)
}

func TestComputeTargetsWeekBoundary(t *testing.T) {
	// Sunday 2026-03-08: the week ending Saturday gets its final run
	// before the new week's rolling board.
	now := time.Date(2026, 3, 8, 0, 30, 0, 0, time.UTC)

	targets := computeTargets(now)
	require.Len(t, targets, 4)

	assert.Equal(t, leaderboard.PeriodWeekly, targets[1].period)
	start, _ := leaderboard.PeriodBounds(leaderboard.PeriodWeekly, targets[1].ref)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), start)

	assert.Equal(t, leaderboard.PeriodWeekly, targets[2].period)
	newStart, _ := leaderboard.PeriodBounds(leaderboard.PeriodWeekly, targets[2].ref)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), newStart)
	assert.True(t, start.Before(newStart))
}

func TestComputeTargetsMonthBoundary(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 5, 0, 0, time.UTC)

	targets := computeTargets(now)
	require.Len(t, targets, 4)

	assert.Equal(t, leaderboard.PeriodMonthly, targets[1].period)
	start, _ := leaderboard.PeriodBounds(leaderboard.PeriodMonthly, targets[1].ref)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), start)

	assert.Equal(t, leaderboard.PeriodMonthly, targets[3].period)
	newStart, _ := leaderboard.PeriodBounds(leaderboard.PeriodMonthly, targets[3].ref)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), newStart)
}
