package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                 uuid.UUID `json:"id"`
	ClerkID            string    `json:"clerkId"`
	Email              string    `json:"email"`
	Username           string    `json:"username"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	ImageURL           string    `json:"imageUrl,omitempty"`
	EmailVerified      bool      `json:"emailVerified"`
	ShowOnLeaderboard  bool      `json:"showOnLeaderboard"`
	LifetimeXP         int       `json:"lifetimeXp"`
	RedeemedXP         int       `json:"redeemedXp"`
	ExpiredXP          int       `json:"expiredXp"`
	LifetimeSpendCents int       `json:"lifetimeSpendCents"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type CreateUserRequest struct {
	ClerkID   string `json:"clerk_id" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
}

type UpdateProfileRequest struct {
	Username          string `json:"username"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	ImageURL          string `json:"imageUrl"`
	ShowOnLeaderboard *bool  `json:"showOnLeaderboard,omitempty"`
}
