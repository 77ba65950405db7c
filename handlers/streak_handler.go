package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lexengageAPI/middleware"
	"lexengageAPI/services"
)

type StreakHandler struct {
	streakService *services.StreakService
	userService   *services.UserService
}

func NewStreakHandler(streakService *services.StreakService, userService *services.UserService) *StreakHandler {
	return &StreakHandler{
		streakService: streakService,
		userService:   userService,
	}
}

// GET /api/v1/streak - Get the caller's streak state
func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
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

	state, err := h.streakService.GetStreak(ctx, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, state)
}

// POST /api/v1/streak/check-in - Apply today's check-in
func (h *StreakHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.streakService.UpdateStreak(ctx, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// PUT /api/v1/streak/settings - Toggle automatic freeze-token use
func (h *StreakHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		AutoUseFreeze *bool `json:"auto_use_freeze"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AutoUseFreeze == nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.streakService.SetAutoUseFreeze(ctx, u.ID, *req.AutoUseFreeze); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"auto_use_freeze": *req.AutoUseFreeze})
}
