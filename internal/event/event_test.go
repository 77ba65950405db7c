package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDedupKeyUsesClientID(t *testing.T) {
	ev := &EngagementEvent{ID: "evt_abc123", Name: "page_viewed", UserID: uuid.New()}
	assert.Equal(t, "evt_abc123", ev.DedupKey())
}

func TestDedupKeyFallbackIsStable(t *testing.T) {
	ts := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	ev := &EngagementEvent{
		Name:      "page_viewed",
		UserID:    uuid.MustParse("573024d8-c5a4-40a5-8e35-2f0f11339bc7"),
		SessionID: "sess_1",
		Timestamp: ts,
	}

	key := ev.DedupKey()
	assert.Equal(t, key, ev.DedupKey())
	assert.Contains(t, key, "page_viewed")
	assert.Contains(t, key, "sess_1")

	// A different session produces a different key for a retry-safe stream.
	other := *ev
	other.SessionID = "sess_2"
	assert.NotEqual(t, key, other.DedupKey())
}

func TestPropertyStringRendering(t *testing.T) {
	ev := &EngagementEvent{
		Properties: map[string]any{"score": 100, "area": "family_law", "passed": true},
	}

	v, ok := ev.Property("score")
	assert.True(t, ok)
	assert.Equal(t, "100", v)

	v, ok = ev.Property("area")
	assert.True(t, ok)
	assert.Equal(t, "family_law", v)

	v, ok = ev.Property("passed")
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	_, ok = ev.Property("missing")
	assert.False(t, ok)
}
