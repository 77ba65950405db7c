package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lexengageAPI/internal/wishlist"
	"lexengageAPI/middleware"
	"lexengageAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type WishlistHandler struct {
	wishlistService *services.WishlistService
	userService     *services.UserService
}

func NewWishlistHandler(wishlistService *services.WishlistService, userService *services.UserService) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
		userService:     userService,
	}
}

// GET /api/v1/wishlist - The caller's saved items
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
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

	items, err := h.wishlistService.GetWishlist(ctx, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"items": items})
}

// POST /api/v1/wishlist - Save a product
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
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

	var item wishlist.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if item.ProductID == uuid.Nil || item.ProductName == "" {
		respondWithError(w, http.StatusBadRequest, "Product ID and name are required")
		return
	}

	saved, err := h.wishlistService.AddItem(ctx, u.ID, &item)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, saved)
}

// DELETE /api/v1/wishlist/{productId} - Remove a product
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
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

	vars := mux.Vars(r)
	productID, err := uuid.Parse(vars["productId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.wishlistService.RemoveItem(ctx, u.ID, productID); err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Item removed"})
}

// GET /api/v1/wishlist/alerts - Unread alerts; reading consumes them
func (h *WishlistHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
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

	alerts, err := h.wishlistService.GetAlerts(ctx, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}
