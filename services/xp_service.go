package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lexengageAPI/internal/metrics"
	"lexengageAPI/internal/notification"
	"lexengageAPI/internal/xp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInsufficientXP = errors.New("insufficient available XP")

type XPService struct {
	db            *pgxpool.Pool
	cfg           xp.Config
	randomizer    *xp.Randomizer
	notifications *NotificationService
}

func NewXPService(db *pgxpool.Pool, cfg xp.Config, randomizer *xp.Randomizer, notifications *NotificationService) *XPService {
	return &XPService{db: db, cfg: cfg, randomizer: randomizer, notifications: notifications}
}

// AwardXP runs the base amount through the reward randomizer and credits the
// result to the user's ledger. The idempotency key makes retries safe: a
// duplicate key returns the previously recorded award without crediting twice.
func (s *XPService) AwardXP(ctx context.Context, userID uuid.UUID, baseXP int, reason, idempotencyKey string) (*xp.Award, error) {
	if baseXP <= 0 {
		return nil, fmt.Errorf("base XP must be positive, got %d", baseXP)
	}

	award := s.randomizer.Classify(baseXP)

	entry, created, err := s.credit(ctx, userID, award.XP, reason, award.Tier, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if !created {
		// Replay of an earlier award. Reconstruct the result from the ledger.
		return &xp.Award{Tier: entry.RewardTier, XP: entry.Delta}, nil
	}

	metrics.XPAwardsTotal.WithLabelValues(string(award.Tier)).Inc()
	metrics.XPAwardedPoints.WithLabelValues(string(award.Tier)).Add(float64(award.XP))

	notifyJackpot(ctx, s.notifications, userID, &award)

	return &award, nil
}

// AwardFixedXP credits an exact amount, bypassing the randomizer. Used for
// milestone bonuses and challenge rewards where the payout is predetermined.
func (s *XPService) AwardFixedXP(ctx context.Context, userID uuid.UUID, amount int, reason, idempotencyKey string) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}

	_, created, err := s.credit(ctx, userID, amount, reason, xp.RewardStandard, idempotencyKey)
	if err != nil {
		return err
	}
	if created {
		metrics.XPAwardsTotal.WithLabelValues(string(xp.RewardStandard)).Inc()
		metrics.XPAwardedPoints.WithLabelValues(string(xp.RewardStandard)).Add(float64(amount))
	}
	return nil
}

func (s *XPService) credit(ctx context.Context, userID uuid.UUID, amount int, reason string, tier xp.RewardTier, idempotencyKey string) (*xp.LedgerEntry, bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entry := &xp.LedgerEntry{
		ID:             uuid.New(),
		UserID:         userID,
		Delta:          amount,
		Reason:         reason,
		RewardTier:     tier,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now(),
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO xp_ledger (id, user_id, delta, reason, reward_tier, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING`,
		entry.ID, entry.UserID, entry.Delta, entry.Reason, entry.RewardTier, entry.IdempotencyKey, entry.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Key already used. Read back what was awarded the first time.
		prior := &xp.LedgerEntry{}
		err := tx.QueryRow(ctx, `
			SELECT id, user_id, delta, reason, reward_tier, idempotency_key, created_at
			FROM xp_ledger
			WHERE user_id = $1 AND idempotency_key = $2`,
			userID, idempotencyKey,
		).Scan(&prior.ID, &prior.UserID, &prior.Delta, &prior.Reason, &prior.RewardTier, &prior.IdempotencyKey, &prior.CreatedAt)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load existing ledger entry: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return prior, false, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET lifetime_xp = lifetime_xp + $1, updated_at = NOW()
		WHERE id = $2`,
		amount, userID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update user XP total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return entry, true, nil
}

// RedeemXP converts available XP into a discount credit. The amount must be
// one of the configured redemption thresholds and must not exceed the user's
// available balance.
func (s *XPService) RedeemXP(ctx context.Context, userID uuid.UUID, amount int) (*xp.Redemption, error) {
	if !s.cfg.IsRedemptionThreshold(amount) {
		return nil, fmt.Errorf("amount %d is not a valid redemption threshold", amount)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var lifetimeXP, redeemedXP, expiredXP int
	err = tx.QueryRow(ctx, `
		SELECT lifetime_xp, redeemed_xp, expired_xp
		FROM users
		WHERE id = $1
		FOR UPDATE`,
		userID,
	).Scan(&lifetimeXP, &redeemedXP, &expiredXP)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to load user balance: %w", err)
	}

	available := lifetimeXP - redeemedXP - expiredXP
	if available < amount {
		return nil, ErrInsufficientXP
	}

	redemption := &xp.Redemption{
		ID:            uuid.New(),
		UserID:        userID,
		AmountXP:      amount,
		DiscountCents: s.cfg.XPToDiscount(amount),
		CreatedAt:     time.Now(),
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO xp_redemptions (id, user_id, amount_xp, discount_cents, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		redemption.ID, redemption.UserID, redemption.AmountXP, redemption.DiscountCents, redemption.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record redemption: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET redeemed_xp = redeemed_xp + $1, updated_at = NOW()
		WHERE id = $2`,
		amount, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update redeemed XP: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return redemption, nil
}

// GetUserXPState loads the user's counters and spend and derives the full
// level, tier and progress view from them.
func (s *XPService) GetUserXPState(ctx context.Context, userID uuid.UUID) (*xp.UserXPState, error) {
	var lifetimeXP, redeemedXP, expiredXP, lifetimeSpendCents int
	err := s.db.QueryRow(ctx, `
		SELECT lifetime_xp, redeemed_xp, expired_xp, lifetime_spend_cents
		FROM users
		WHERE id = $1`,
		userID,
	).Scan(&lifetimeXP, &redeemedXP, &expiredXP, &lifetimeSpendCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to load user XP counters: %w", err)
	}

	state := xp.CalculateUserXPState(lifetimeXP, redeemedXP, expiredXP, lifetimeSpendCents)
	state.UserID = userID
	return &state, nil
}

// GetLedger returns the user's most recent ledger entries, newest first.
func (s *XPService) GetLedger(ctx context.Context, userID uuid.UUID, limit int) ([]xp.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, delta, reason, reward_tier, idempotency_key, created_at
		FROM xp_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	entries := []xp.LedgerEntry{}
	for rows.Next() {
		var e xp.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Delta, &e.Reason, &e.RewardTier, &e.IdempotencyKey, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger rows: %w", err)
	}

	return entries, nil
}

// RecordPurchase adds to the user's lifetime spend, which can promote their
// loyalty tier. Called by the orders webhook.
func (s *XPService) RecordPurchase(ctx context.Context, userID uuid.UUID, amountCents int) error {
	if amountCents <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amountCents)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE users SET lifetime_spend_cents = lifetime_spend_cents + $1, updated_at = NOW()
		WHERE id = $2`,
		amountCents, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// notifyJackpot pushes a celebration notification for jackpot awards. Failures
// are logged and swallowed so an award never fails on notification delivery.
func notifyJackpot(ctx context.Context, ns *NotificationService, userID uuid.UUID, award *xp.Award) {
	if ns == nil || award.Tier != xp.RewardJackpot {
		return
	}
	_, err := ns.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:   userID,
		Type:     notification.TypeXPJackpot,
		Priority: notification.PriorityHigh,
		Data: map[string]any{
			"xp": award.XP,
		},
	})
	if err != nil {
		log.Printf("WARN: failed to create jackpot notification for %s: %v", userID, err)
	}
}
