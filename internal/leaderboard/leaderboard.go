package leaderboard

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

func ParsePeriodType(s string) (PeriodType, error) {
	switch PeriodType(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return PeriodType(s), nil
	}
	return "", fmt.Errorf("unknown period type %q", s)
}

// PeriodBounds returns the window [start, end) containing ref. Weekly
// windows are Sunday-aligned; daily and monthly follow the calendar.
// All boundaries are UTC midnights.
func PeriodBounds(pt PeriodType, ref time.Time) (time.Time, time.Time) {
	y, m, d := ref.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	switch pt {
	case PeriodWeekly:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return start, start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// Row is one user's standing pulled from the store before ranking.
type Row struct {
	UserID            uuid.UUID `json:"user_id" db:"user_id"`
	Username          string    `json:"username" db:"username"`
	XPTotal           int       `json:"xp_total" db:"xp_total"`
	XPEarnedInPeriod  int       `json:"xp_earned_in_period" db:"xp_earned_in_period"`
	Level             int       `json:"level" db:"level"`
	StreakDays        int       `json:"streak_days" db:"streak_days"`
	AchievementsCount int       `json:"achievements_count" db:"achievements_count"`
}

// Entry is a ranked row in a snapshot.
type Entry struct {
	Row
	Rank         int  `json:"rank" db:"rank"`
	PreviousRank *int `json:"previous_rank,omitempty" db:"previous_rank"`
}

// Snapshot is the atomically-replaced result of one compute run.
type Snapshot struct {
	PeriodType  PeriodType `json:"period_type"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	Entries     []Entry    `json:"entries"`
	ComputedAt  time.Time  `json:"computed_at"`
}

// Rank assigns contiguous ranks 1..N to rows already ordered by period XP
// descending, attaching each user's rank from the previous snapshot run.
func Rank(rows []Row, previous map[uuid.UUID]int) []Entry {
	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		e := Entry{Row: row, Rank: i + 1}
		if prev, ok := previous[row.UserID]; ok {
			p := prev
			e.PreviousRank = &p
		}
		entries = append(entries, e)
	}
	return entries
}

// RankUp is emitted for every user whose rank improved since the previous
// run.
type RankUp struct {
	UserID   uuid.UUID
	Rank     int
	Previous int
	Delta    int
}

// NearMiss is emitted for users just outside the top cutoff: rank in
// (cutoff, cutoff+window].
type NearMiss struct {
	UserID uuid.UUID
	Rank   int
	Gap    int
}

// Movements derives the notification-worthy changes from a freshly ranked
// snapshot.
func Movements(entries []Entry, cutoff, window int) ([]RankUp, []NearMiss) {
	var ups []RankUp
	var misses []NearMiss

	for _, e := range entries {
		if e.PreviousRank != nil && e.Rank < *e.PreviousRank {
			ups = append(ups, RankUp{
				UserID:   e.UserID,
				Rank:     e.Rank,
				Previous: *e.PreviousRank,
				Delta:    *e.PreviousRank - e.Rank,
			})
		}
		if e.Rank > cutoff && e.Rank <= cutoff+window {
			misses = append(misses, NearMiss{
				UserID: e.UserID,
				Rank:   e.Rank,
				Gap:    e.Rank - cutoff,
			})
		}
	}
	return ups, misses
}
