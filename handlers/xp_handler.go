package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"lexengageAPI/internal/xp"
	"lexengageAPI/middleware"
	"lexengageAPI/services"
)

type XPHandler struct {
	xpService   *services.XPService
	userService *services.UserService
	cfg         xp.Config
}

func NewXPHandler(xpService *services.XPService, userService *services.UserService, cfg xp.Config) *XPHandler {
	return &XPHandler{
		xpService:   xpService,
		userService: userService,
		cfg:         cfg,
	}
}

// GET /api/v1/xp - Get the caller's XP economy state
func (h *XPHandler) GetXPState(w http.ResponseWriter, r *http.Request) {
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
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := map[string]any{
		"state": state,
	}
	if threshold, gap, err := h.cfg.NextDiscountTier(state.AvailableXP); err == nil {
		response["next_discount"] = map[string]int{
			"threshold":      threshold,
			"xp_needed":      gap,
			"discount_cents": h.cfg.XPToDiscount(threshold),
		}
	}

	respondWithJSON(w, http.StatusOK, response)
}

// GET /api/v1/xp/ledger - Get the caller's recent ledger entries
func (h *XPHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
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

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.xpService.GetLedger(ctx, u.ID, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// POST /api/v1/xp/redeem - Convert available XP into a discount credit
func (h *XPHandler) Redeem(w http.ResponseWriter, r *http.Request) {
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
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	redemption, err := h.xpService.RedeemXP(ctx, u.ID, req.Amount)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientXP) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, redemption)
}

// POST /api/v1/admin/xp/award - Internal award entry point for backend
// systems that are not part of the event stream (support credits, manual
// corrections). Goes through the randomizer like any engagement award.
func (h *XPHandler) Award(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req struct {
		UserID         uuid.UUID `json:"user_id"`
		BaseXP         int       `json:"base_xp"`
		Reason         string    `json:"reason"`
		IdempotencyKey string    `json:"idempotency_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == uuid.Nil || req.BaseXP <= 0 || req.Reason == "" || req.IdempotencyKey == "" {
		respondWithError(w, http.StatusBadRequest, "user_id, base_xp, reason and idempotency_key are required")
		return
	}

	award, err := h.xpService.AwardXP(ctx, req.UserID, req.BaseXP, req.Reason, req.IdempotencyKey)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, award)
}
