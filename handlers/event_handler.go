package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"lexengageAPI/internal/event"
	"lexengageAPI/middleware"
	"lexengageAPI/services"
)

// baseXPByCategory sets the pre-randomizer XP for each engagement category.
// Unlisted categories fall back to defaultBaseXP.
var baseXPByCategory = map[string]int{
	"content":    10,
	"assessment": 25,
	"document":   20,
	"referral":   50,
	"review":     30,
}

const defaultBaseXP = 10

type EventHandler struct {
	xpService        *services.XPService
	streakService    *services.StreakService
	challengeService *services.ChallengeService
	userService      *services.UserService
}

func NewEventHandler(xpService *services.XPService, streakService *services.StreakService, challengeService *services.ChallengeService, userService *services.UserService) *EventHandler {
	return &EventHandler{
		xpService:        xpService,
		streakService:    streakService,
		challengeService: challengeService,
		userService:      userService,
	}
}

type trackEventRequest struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	SessionID  string         `json:"session_id"`
	Properties map[string]any `json:"properties"`
}

// POST /api/v1/events - Track one engagement event. A single call awards XP,
// advances the streak and updates challenge progress.
func (h *EventHandler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	var req trackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Event name is required")
		return
	}

	ev := &event.EngagementEvent{
		ID:         req.ID,
		Name:       req.Name,
		Category:   req.Category,
		UserID:     u.ID,
		SessionID:  req.SessionID,
		Properties: req.Properties,
		Timestamp:  time.Now().UTC(),
	}

	baseXP := defaultBaseXP
	if v, ok := baseXPByCategory[ev.Category]; ok {
		baseXP = v
	}

	award, err := h.xpService.AwardXP(ctx, u.ID, baseXP, ev.Name, ev.DedupKey())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	streakResult, err := h.streakService.UpdateStreak(ctx, u.ID)
	if err != nil {
		log.Printf("ERROR: streak update failed for %s: %v", u.ID, err)
	}

	updates, err := h.challengeService.ProcessEvent(ctx, ev)
	if err != nil {
		log.Printf("ERROR: challenge processing failed for %s: %v", u.ID, err)
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"award":      award,
		"streak":     streakResult,
		"challenges": updates,
	})
}

// GET /api/v1/engagement/summary - One-call snapshot of the caller's XP
// state, streak and challenge progress, for the portal dashboard.
func (h *EventHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	state, err := h.xpService.GetUserXPState(ctx, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get XP state")
		return
	}

	streakState, err := h.streakService.GetStreak(ctx, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get streak")
		return
	}

	challenges, err := h.challengeService.GetUserChallenges(ctx, u.ID)
	if err != nil {
		log.Printf("ERROR: failed to get challenges for %s: %v", u.ID, err)
		challenges = nil
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"xp":         state,
		"streak":     streakState,
		"challenges": challenges,
	})
}
