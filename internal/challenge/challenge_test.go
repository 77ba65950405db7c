package challenge

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"lexengageAPI/internal/event"
)

func TestTypeAutoEnrollable(t *testing.T) {
	assert.True(t, TypeDaily.AutoEnrollable())
	assert.True(t, TypeWeekly.AutoEnrollable())
	assert.True(t, TypeOnboarding.AutoEnrollable())
	assert.False(t, TypeSeasonal.AutoEnrollable())
}

func TestRequirementsMatchesByName(t *testing.T) {
	r := Requirements{EventName: "document_viewed"}

	ev := &event.EngagementEvent{Name: "document_viewed", Category: "content", UserID: uuid.New()}
	assert.True(t, r.Matches(ev))

	ev.Name = "page_viewed"
	assert.False(t, r.Matches(ev))
}

func TestRequirementsMatchesByCategory(t *testing.T) {
	r := Requirements{EventCategory: "assessment"}

	ev := &event.EngagementEvent{Name: "quiz_completed", Category: "assessment"}
	assert.True(t, r.Matches(ev))

	ev.Category = "content"
	assert.False(t, r.Matches(ev))
}

func TestRequirementsNameOrCategory(t *testing.T) {
	r := Requirements{EventName: "quiz_completed", EventCategory: "assessment"}

	// Either side matching is enough.
	assert.True(t, r.Matches(&event.EngagementEvent{Name: "quiz_completed", Category: "other"}))
	assert.True(t, r.Matches(&event.EngagementEvent{Name: "other", Category: "assessment"}))
	assert.False(t, r.Matches(&event.EngagementEvent{Name: "other", Category: "other"}))
}

func TestRequirementsEmptyNeverMatches(t *testing.T) {
	r := Requirements{}
	assert.False(t, r.Matches(&event.EngagementEvent{Name: "anything", Category: "anything"}))
}

func TestRequirementsPropertyMatch(t *testing.T) {
	r := Requirements{
		EventName:     "document_viewed",
		PropertyMatch: map[string]string{"practice_area": "family_law"},
	}

	ev := &event.EngagementEvent{
		Name:       "document_viewed",
		Properties: map[string]any{"practice_area": "family_law"},
	}
	assert.True(t, r.Matches(ev))

	ev.Properties["practice_area"] = "tax_law"
	assert.False(t, r.Matches(ev))

	// Missing property fails the match.
	delete(ev.Properties, "practice_area")
	assert.False(t, r.Matches(ev))
}

func TestRequirementsPropertyMatchAll(t *testing.T) {
	r := Requirements{
		EventCategory: "content",
		PropertyMatch: map[string]string{"practice_area": "family_law", "format": "video"},
	}

	ev := &event.EngagementEvent{
		Category:   "content",
		Properties: map[string]any{"practice_area": "family_law", "format": "video"},
	}
	assert.True(t, r.Matches(ev))

	// Every listed property must hold.
	ev.Properties["format"] = "article"
	assert.False(t, r.Matches(ev))
}

func TestRequirementsNonStringProperty(t *testing.T) {
	r := Requirements{
		EventName:     "quiz_completed",
		PropertyMatch: map[string]string{"score": "100"},
	}

	ev := &event.EngagementEvent{
		Name:       "quiz_completed",
		Properties: map[string]any{"score": 100},
	}
	assert.True(t, r.Matches(ev))
}
