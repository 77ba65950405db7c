package challenge

import (
	"time"

	"github.com/google/uuid"

	"lexengageAPI/internal/event"
)

type Type string

const (
	TypeDaily      Type = "daily"
	TypeWeekly     Type = "weekly"
	TypeOnboarding Type = "onboarding"
	TypeSeasonal   Type = "seasonal"
)

// AutoEnrollable reports whether users may be enrolled in a challenge of
// this type automatically when an event would satisfy its requirements.
func (t Type) AutoEnrollable() bool {
	switch t {
	case TypeDaily, TypeWeekly, TypeOnboarding:
		return true
	}
	return false
}

// Requirements describes which engagement events count toward a challenge.
// An event qualifies when its name or category matches, and every listed
// property equals the event's property value.
type Requirements struct {
	EventName     string            `json:"event_name,omitempty"`
	EventCategory string            `json:"event_category,omitempty"`
	PropertyMatch map[string]string `json:"property_match,omitempty"`
}

func (r Requirements) Matches(ev *event.EngagementEvent) bool {
	nameOK := r.EventName != "" && r.EventName == ev.Name
	categoryOK := r.EventCategory != "" && r.EventCategory == ev.Category
	if !nameOK && !categoryOK {
		return false
	}

	for key, want := range r.PropertyMatch {
		got, ok := ev.Property(key)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Definition is a published challenge. Read-only to the progress tracker.
type Definition struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	Type         Type         `json:"type" db:"type"`
	Name         string       `json:"name" db:"name"`
	Description  string       `json:"description" db:"description"`
	Requirements Requirements `json:"requirements" db:"requirements"`
	Target       int          `json:"target" db:"target"`
	XPReward     int          `json:"xp_reward" db:"xp_reward"`
	StartDate    time.Time    `json:"start_date" db:"start_date"`
	EndDate      time.Time    `json:"end_date" db:"end_date"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Progress is one user's row against one challenge. Progress is
// non-decreasing, never exceeds Target, and the status flips to completed
// exactly once.
type Progress struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	Progress    int        `json:"progress" db:"progress"`
	Target      int        `json:"target" db:"target"`
	Status      Status     `json:"status" db:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	EnrolledAt  time.Time  `json:"enrolled_at" db:"enrolled_at"`
}

// Update is returned to callers of ProcessEvent for each challenge the
// event advanced.
type Update struct {
	ChallengeID uuid.UUID `json:"challenge_id"`
	Name        string    `json:"name"`
	Progress    int       `json:"progress"`
	Target      int       `json:"target"`
	Completed   bool      `json:"completed"`
	XPAwarded   int       `json:"xp_awarded,omitempty"`
}
