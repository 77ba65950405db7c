package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lexengageAPI/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:        uuid.New(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, email_verified,
	          show_on_leaderboard, lifetime_xp, redeemed_xp, expired_xp, lifetime_spend_cents,
	          created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.ShowOnLeaderboard,
		&u.LifetimeXP,
		&u.RedeemedXP,
		&u.ExpiredXP,
		&u.LifetimeSpendCents,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Default notification preferences ride along with the account.
	_, err = s.db.Exec(ctx, `
		INSERT INTO notification_preferences (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`,
		u.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create default preferences: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, first_name, last_name, image_url, email_verified,
	       show_on_leaderboard, lifetime_xp, redeemed_xp, expired_xp, lifetime_spend_cents,
	       created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.ShowOnLeaderboard,
		&u.LifetimeXP,
		&u.RedeemedXP,
		&u.ExpiredXP,
		&u.LifetimeSpendCents,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	updates := []string{}
	args := []interface{}{clerkID}
	argCount := 2

	if req.Username != "" {
		updates = append(updates, fmt.Sprintf("username = $%d", argCount))
		args = append(args, req.Username)
		argCount++
	}
	if req.FirstName != "" {
		updates = append(updates, fmt.Sprintf("first_name = $%d", argCount))
		args = append(args, req.FirstName)
		argCount++
	}
	if req.LastName != "" {
		updates = append(updates, fmt.Sprintf("last_name = $%d", argCount))
		args = append(args, req.LastName)
		argCount++
	}
	if req.ImageURL != "" {
		updates = append(updates, fmt.Sprintf("image_url = $%d", argCount))
		args = append(args, req.ImageURL)
		argCount++
	}
	if req.ShowOnLeaderboard != nil {
		updates = append(updates, fmt.Sprintf("show_on_leaderboard = $%d", argCount))
		args = append(args, *req.ShowOnLeaderboard)
		argCount++
	}

	if len(updates) == 0 {
		return s.GetUserByClerkID(ctx, clerkID)
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET %s, updated_at = NOW()
		WHERE clerk_id = $1
		RETURNING id
	`, strings.Join(updates, ", "))

	var id uuid.UUID
	err := s.db.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetUserByClerkID(ctx, clerkID)
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, "DELETE FROM users WHERE clerk_id = $1", clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	_, err := s.db.Exec(ctx,
		"UPDATE users SET email_verified = $1, updated_at = NOW() WHERE clerk_id = $2",
		verified, clerkID,
	)
	if err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}
