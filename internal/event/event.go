package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EngagementEvent is one row from the engagement-event stream: a page view,
// a document view, a purchase, a check-in. The gamification engine consumes
// these; it never produces them.
type EngagementEvent struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"event_name"`
	Category   string         `json:"event_category"`
	UserID     uuid.UUID      `json:"user_id"`
	SessionID  string         `json:"session_id,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// DedupKey identifies a logical event for idempotent XP awards. Client
// retries carry the same event ID, so the same key.
func (e *EngagementEvent) DedupKey() string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("%s:%s:%s:%d", e.UserID, e.Name, e.SessionID, e.Timestamp.Unix())
}

// Property returns the event property rendered as a string, for matching
// against challenge requirements.
func (e *EngagementEvent) Property(key string) (string, bool) {
	v, ok := e.Properties[key]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}
