package streak

import (
	"time"

	"github.com/google/uuid"
)

const MaxFreezeTokens = 3

// State is the per-user daily streak row. Created on first qualifying
// activity; LongestStreak only ever grows.
type State struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	FreezeTokens     int        `json:"freeze_tokens" db:"freeze_tokens"`
	LastActivityDate *time.Time `json:"last_activity_date" db:"last_activity_date"`
	AutoUseFreeze    bool       `json:"auto_use_freeze" db:"auto_use_freeze"`
	LastMilestone    int        `json:"last_milestone" db:"last_milestone"`
	LastScanDate     *time.Time `json:"-" db:"last_scan_date"`
	IsDemo           bool       `json:"is_demo,omitempty" db:"-"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// milestoneXP maps streak lengths to their one-time XP bonus. Milestones
// of 30 days and up also grant a freeze token.
var milestoneXP = map[int]int{
	7:   100,
	14:  250,
	30:  1000,
	60:  2000,
	90:  3000,
	180: 5000,
	365: 10000,
}

const freezeTokenMilestone = 30

// MilestoneBonusXP returns the XP bonus for a streak length, or 0 if the
// length is not a milestone.
func MilestoneBonusXP(days int) int {
	return milestoneXP[days]
}

func grantsFreezeToken(days int) bool {
	return milestoneXP[days] > 0 && days >= freezeTokenMilestone
}

// CheckInResult reports what a check-in did to the state.
type CheckInResult struct {
	Updated          bool  `json:"updated"`
	CurrentStreak    int   `json:"current_streak"`
	LongestStreak    int   `json:"longest_streak"`
	FreezeTokens     int   `json:"freeze_tokens"`
	MilestonesEarned []int `json:"milestones_earned"`
	BonusXP          int   `json:"bonus_xp,omitempty"`
}

// CheckIn applies an explicit check-in at now, mutating s. Same calendar
// day is a no-op. A gap of up to 48 hours extends the streak; anything
// longer starts over at 1.
func CheckIn(s *State, now time.Time) CheckInResult {
	res := CheckInResult{MilestonesEarned: []int{}}

	if s.LastActivityDate != nil && sameDay(*s.LastActivityDate, now) {
		res.CurrentStreak = s.CurrentStreak
		res.LongestStreak = s.LongestStreak
		res.FreezeTokens = s.FreezeTokens
		return res
	}

	switch {
	case s.LastActivityDate == nil:
		s.CurrentStreak = 1
		s.LastMilestone = 0
	case now.Sub(*s.LastActivityDate) <= 48*time.Hour:
		s.CurrentStreak++
	default:
		// Streak broke; fresh start counting today.
		s.CurrentStreak = 1
		s.LastMilestone = 0
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}

	if bonus := MilestoneBonusXP(s.CurrentStreak); bonus > 0 && s.LastMilestone != s.CurrentStreak {
		s.LastMilestone = s.CurrentStreak
		res.MilestonesEarned = append(res.MilestonesEarned, s.CurrentStreak)
		res.BonusXP = bonus
		if grantsFreezeToken(s.CurrentStreak) && s.FreezeTokens < MaxFreezeTokens {
			s.FreezeTokens++
		}
	}

	t := now
	s.LastActivityDate = &t
	s.UpdatedAt = now

	res.Updated = true
	res.CurrentStreak = s.CurrentStreak
	res.LongestStreak = s.LongestStreak
	res.FreezeTokens = s.FreezeTokens
	return res
}

// ScanOutcome is what the daily scan decided for one user.
type ScanOutcome int

const (
	ScanSkipped ScanOutcome = iota // already scanned for this date, or active today
	ScanActive                     // activity yesterday, streak intact
	ScanMilestone
	ScanFrozen
	ScanAtRisk
	ScanBroken
)

// ScanResult carries the decision plus any milestone bonus due.
type ScanResult struct {
	Outcome   ScanOutcome
	Milestone int
	BonusXP   int
}

// EvaluateScan applies the daily scan to s relative to refDate (the job's
// reference midnight), mutating s. Re-running with the same refDate is a
// no-op per user: LastScanDate gates the whole decision.
func EvaluateScan(s *State, refDate time.Time) ScanResult {
	refDay := truncateDay(refDate)

	if s.LastScanDate != nil && sameDay(*s.LastScanDate, refDay) {
		return ScanResult{Outcome: ScanSkipped}
	}
	s.LastScanDate = &refDay

	if s.CurrentStreak == 0 || s.LastActivityDate == nil {
		return ScanResult{Outcome: ScanSkipped}
	}

	gap := daysBetween(truncateDay(*s.LastActivityDate), refDay)

	switch {
	case gap <= 0:
		// Already active on the reference day.
		return ScanResult{Outcome: ScanSkipped}

	case gap == 1:
		// Active yesterday. Catch milestones reached without an explicit
		// check-in (activity logged through other paths).
		if bonus := MilestoneBonusXP(s.CurrentStreak); bonus > 0 && s.LastMilestone != s.CurrentStreak {
			s.LastMilestone = s.CurrentStreak
			if grantsFreezeToken(s.CurrentStreak) && s.FreezeTokens < MaxFreezeTokens {
				s.FreezeTokens++
			}
			return ScanResult{Outcome: ScanMilestone, Milestone: s.CurrentStreak, BonusXP: bonus}
		}
		return ScanResult{Outcome: ScanActive}

	default:
		if s.AutoUseFreeze && s.FreezeTokens > 0 {
			s.FreezeTokens--
			// The freeze stands in for the missed day so tomorrow's scan
			// sees an intact streak.
			yesterday := refDay.AddDate(0, 0, -1)
			s.LastActivityDate = &yesterday
			return ScanResult{Outcome: ScanFrozen}
		}
		if gap == 2 {
			// Exactly one day missing: warn, don't reset.
			return ScanResult{Outcome: ScanAtRisk}
		}
		s.CurrentStreak = 0
		s.LastMilestone = 0
		return ScanResult{Outcome: ScanBroken}
	}
}

// DemoState is the fallback returned when streak persistence is
// unavailable. Always flagged so it can't be mistaken for a real ledger.
func DemoState(userID uuid.UUID) *State {
	return &State{
		UserID:        userID,
		CurrentStreak: 0,
		LongestStreak: 0,
		FreezeTokens:  1,
		AutoUseFreeze: true,
		IsDemo:        true,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return truncateDay(a).Equal(truncateDay(b))
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
