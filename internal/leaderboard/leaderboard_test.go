package leaderboard

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodType(t *testing.T) {
	for _, s := range []string{"daily", "weekly", "monthly"} {
		pt, err := ParsePeriodType(s)
		require.NoError(t, err)
		assert.Equal(t, PeriodType(s), pt)
	}

	_, err := ParsePeriodType("yearly")
	assert.Error(t, err)
}

func TestPeriodBoundsDaily(t *testing.T) {
	ref := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	start, end := PeriodBounds(PeriodDaily, ref)

	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), end)
}

func TestPeriodBoundsWeeklySundayAligned(t *testing.T) {
	// 2026-03-04 is a Wednesday; the week starts Sunday 2026-03-01.
	ref := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	start, end := PeriodBounds(PeriodWeekly, ref)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Sunday, start.Weekday())

	// A Sunday is its own week start.
	start, _ = PeriodBounds(PeriodWeekly, time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), start)
}

func TestPeriodBoundsMonthly(t *testing.T) {
	ref := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	start, end := PeriodBounds(PeriodMonthly, ref)

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestRankContiguous(t *testing.T) {
	rows := []Row{
		{UserID: uuid.New(), Username: "a", XPEarnedInPeriod: 300},
		{UserID: uuid.New(), Username: "b", XPEarnedInPeriod: 200},
		{UserID: uuid.New(), Username: "c", XPEarnedInPeriod: 100},
	}

	entries := Rank(rows, nil)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		assert.Nil(t, e.PreviousRank)
	}
}

func TestRankCarriesPreviousRank(t *testing.T) {
	u := uuid.New()
	rows := []Row{{UserID: u, XPEarnedInPeriod: 500}}
	previous := map[uuid.UUID]int{u: 15}

	entries := Rank(rows, previous)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].PreviousRank)
	assert.Equal(t, 15, *entries[0].PreviousRank)
}

func TestMovementsRankUp(t *testing.T) {
	climber := uuid.New()
	steady := uuid.New()
	faller := uuid.New()

	rows := make([]Row, 20)
	for i := range rows {
		rows[i] = Row{UserID: uuid.New(), XPEarnedInPeriod: 1000 - i}
	}
	rows[7].UserID = climber // was rank 15, now 8
	rows[4].UserID = steady  // unchanged at 5
	rows[9].UserID = faller  // was 3, now 10

	previous := map[uuid.UUID]int{climber: 15, steady: 5, faller: 3}

	ups, _ := Movements(Rank(rows, previous), 10, 5)
	require.Len(t, ups, 1)
	assert.Equal(t, climber, ups[0].UserID)
	assert.Equal(t, 8, ups[0].Rank)
	assert.Equal(t, 15, ups[0].Previous)
	assert.Equal(t, 7, ups[0].Delta)
}

func TestMovementsNearMiss(t *testing.T) {
	rows := make([]Row, 20)
	for i := range rows {
		rows[i] = Row{UserID: uuid.New(), XPEarnedInPeriod: 1000 - i}
	}

	_, misses := Movements(Rank(rows, nil), 10, 5)
	require.Len(t, misses, 5)

	// Rank 11 through 15 only, with gap to the cutoff.
	assert.Equal(t, 11, misses[0].Rank)
	assert.Equal(t, 1, misses[0].Gap)
	assert.Equal(t, 12, misses[1].Rank)
	assert.Equal(t, 2, misses[1].Gap)
	assert.Equal(t, 15, misses[4].Rank)
	assert.Equal(t, 5, misses[4].Gap)
}

func TestMovementsAcrossSnapshotRuns(t *testing.T) {
	// The first compute of a new period compares against the final run of
	// the one before, so a climb across the boundary still fires.
	climber := uuid.New()

	prevRows := make([]Row, 15)
	for i := range prevRows {
		prevRows[i] = Row{UserID: uuid.New(), XPEarnedInPeriod: 1000 - i}
	}
	prevRows[14].UserID = climber // rank 15 in the prior run

	previous := map[uuid.UUID]int{}
	for _, e := range Rank(prevRows, nil) {
		previous[e.UserID] = e.Rank
	}

	rows := make([]Row, 12)
	for i := range rows {
		rows[i] = Row{UserID: uuid.New(), XPEarnedInPeriod: 500 - i}
	}
	rows[7].UserID = climber // rank 8 now

	ups, _ := Movements(Rank(rows, previous), 10, 5)
	require.Len(t, ups, 1)
	assert.Equal(t, climber, ups[0].UserID)
	assert.Equal(t, 15, ups[0].Previous)
	assert.Equal(t, 8, ups[0].Rank)
	assert.Equal(t, 7, ups[0].Delta)
}

func TestMovementsEmptySnapshot(t *testing.T) {
	ups, misses := Movements(nil, 10, 5)
	assert.Empty(t, ups)
	assert.Empty(t, misses)
}
