package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"lexengageAPI/internal/leaderboard"
	"lexengageAPI/middleware"
	"lexengageAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	userService        *services.UserService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, userService *services.UserService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		userService:        userService,
	}
}

// GET /api/v1/leaderboard?period=weekly&limit=50 - Current snapshot
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
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

	period := r.URL.Query().Get("period")
	if period == "" {
		period = string(leaderboard.PeriodWeekly)
	}
	pt, err := leaderboard.ParsePeriodType(period)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	snapshot, err := h.leaderboardService.GetLeaderboard(ctx, pt, time.Now(), limit, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// GET /api/v1/leaderboard/rank?period=weekly - The caller's own standing
func (h *LeaderboardHandler) GetRank(w http.ResponseWriter, r *http.Request) {
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

	period := r.URL.Query().Get("period")
	if period == "" {
		period = string(leaderboard.PeriodWeekly)
	}
	pt, err := leaderboard.ParsePeriodType(period)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.leaderboardService.GetUserRank(ctx, pt, time.Now(), u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entry == nil {
		respondWithJSON(w, http.StatusOK, map[string]any{"ranked": false})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"ranked": true, "entry": entry})
}
