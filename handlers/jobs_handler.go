package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lexengageAPI/internal/leaderboard"
	"lexengageAPI/internal/metrics"
	"lexengageAPI/internal/wishlist"
	"lexengageAPI/services"
)

// JobsHandler exposes manual triggers for the batch jobs the scheduler runs.
// The routes sit behind JobsSecurityMiddleware.
type JobsHandler struct {
	streakService      *services.StreakService
	leaderboardService *services.LeaderboardService
	wishlistService    *services.WishlistService
}

func NewJobsHandler(streakService *services.StreakService, leaderboardService *services.LeaderboardService, wishlistService *services.WishlistService) *JobsHandler {
	return &JobsHandler{
		streakService:      streakService,
		leaderboardService: leaderboardService,
		wishlistService:    wishlistService,
	}
}

// POST /api/v1/admin/jobs/streak-scan - Run the daily streak scan
func (h *JobsHandler) RunStreakScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	summary, err := h.streakService.RunDailyScan(ctx, time.Now().UTC())
	if err != nil {
		metrics.EngineJobRuns.WithLabelValues("streak_scan", "error").Inc()
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.EngineJobRuns.WithLabelValues("streak_scan", "ok").Inc()
	respondWithJSON(w, http.StatusOK, summary)
}

// POST /api/v1/admin/jobs/leaderboard-compute?period=weekly - Rebuild a snapshot
func (h *JobsHandler) RunLeaderboardCompute(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	period := r.URL.Query().Get("period")
	if period == "" {
		period = string(leaderboard.PeriodWeekly)
	}
	pt, err := leaderboard.ParsePeriodType(period)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.leaderboardService.Compute(ctx, pt, time.Now())
	if err != nil {
		metrics.EngineJobRuns.WithLabelValues("leaderboard_compute", "error").Inc()
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.EngineJobRuns.WithLabelValues("leaderboard_compute", "ok").Inc()
	respondWithJSON(w, http.StatusOK, map[string]any{
		"period_type":  snapshot.PeriodType,
		"period_start": snapshot.PeriodStart,
		"entries":      len(snapshot.Entries),
		"computed_at":  snapshot.ComputedAt,
	})
}

// POST /api/v1/admin/jobs/wishlist-sweep - Apply a batch of price updates
func (h *JobsHandler) RunWishlistSweep(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	var updates []wishlist.PriceUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.wishlistService.SweepPrices(ctx, updates)
	if err != nil {
		metrics.EngineJobRuns.WithLabelValues("wishlist_sweep", "error").Inc()
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.EngineJobRuns.WithLabelValues("wishlist_sweep", "ok").Inc()
	respondWithJSON(w, http.StatusOK, summary)
}
