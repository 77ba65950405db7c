package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lexengageAPI/internal/notification"
	"lexengageAPI/internal/streak"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StreakService struct {
	db            *pgxpool.Pool
	xpService     *XPService
	notifications *NotificationService
}

func NewStreakService(db *pgxpool.Pool, xpService *XPService, notifications *NotificationService) *StreakService {
	return &StreakService{db: db, xpService: xpService, notifications: notifications}
}

// GetStreak returns the user's streak state. When the row is missing or the
// database is unreachable it falls back to a demo state so the client always
// has something to render.
func (s *StreakService) GetStreak(ctx context.Context, userID uuid.UUID) (*streak.State, error) {
	st, err := s.loadState(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return streak.DemoState(userID), nil
		}
		log.Printf("WARN: falling back to demo streak for %s: %v", userID, err)
		return streak.DemoState(userID), nil
	}
	return st, nil
}

// UpdateStreak applies a check-in for today, creating the streak row on first
// activity. Milestone bonuses are credited through the XP ledger.
func (s *StreakService) UpdateStreak(ctx context.Context, userID uuid.UUID) (*streak.CheckInResult, error) {
	now := time.Now().UTC()

	st, err := s.loadState(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		st = &streak.State{
			ID:            uuid.New(),
			UserID:        userID,
			AutoUseFreeze: true,
			CreatedAt:     now,
		}
	}

	res := streak.CheckIn(st, now)
	if !res.Updated {
		return &res, nil
	}

	if err := s.saveState(ctx, st); err != nil {
		return nil, err
	}

	for _, days := range res.MilestonesEarned {
		s.awardMilestone(ctx, userID, days, streak.MilestoneBonusXP(days), now)
	}

	return &res, nil
}

// SetAutoUseFreeze toggles automatic freeze-token consumption for the user.
func (s *StreakService) SetAutoUseFreeze(ctx context.Context, userID uuid.UUID, enabled bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE user_streaks SET auto_use_freeze = $1, updated_at = NOW()
		WHERE user_id = $2`,
		enabled, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update freeze setting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("streak not found")
	}
	return nil
}

// ScanSummary is the daily scan's tally across all users.
type ScanSummary struct {
	Processed  int `json:"processed"`
	Milestones int `json:"milestones"`
	Frozen     int `json:"frozen"`
	AtRisk     int `json:"at_risk"`
	Broken     int `json:"broken"`
}

// RunDailyScan walks every active streak and applies the daily decision
// relative to refDate. Safe to re-run for the same date: per-row scan
// bookkeeping makes repeats no-ops.
func (s *StreakService) RunDailyScan(ctx context.Context, refDate time.Time) (*ScanSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, current_streak, longest_streak, freeze_tokens,
		       last_activity_date, auto_use_freeze, last_milestone, last_scan_date,
		       created_at, updated_at
		FROM user_streaks
		WHERE current_streak > 0`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query streaks: %w", err)
	}
	defer rows.Close()

	states := []*streak.State{}
	for rows.Next() {
		st := &streak.State{}
		if err := scanStreakRow(rows, st); err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read streak rows: %w", err)
	}

	summary := &ScanSummary{}
	for _, st := range states {
		res := streak.EvaluateScan(st, refDate)
		if res.Outcome == streak.ScanSkipped {
			continue
		}
		summary.Processed++

		if err := s.saveState(ctx, st); err != nil {
			log.Printf("ERROR: failed to persist scan result for %s: %v", st.UserID, err)
			continue
		}

		switch res.Outcome {
		case streak.ScanMilestone:
			summary.Milestones++
			s.awardMilestone(ctx, st.UserID, res.Milestone, res.BonusXP, refDate)
		case streak.ScanFrozen:
			summary.Frozen++
			s.notify(ctx, st.UserID, notification.TypeStreakFrozen, notification.PriorityNormal, map[string]any{
				"streak":      st.CurrentStreak,
				"tokens_left": st.FreezeTokens,
			})
		case streak.ScanAtRisk:
			summary.AtRisk++
			s.notify(ctx, st.UserID, notification.TypeStreakAtRisk, notification.PriorityHigh, map[string]any{
				"streak": st.CurrentStreak,
			})
		case streak.ScanBroken:
			summary.Broken++
			s.notify(ctx, st.UserID, notification.TypeStreakBroken, notification.PriorityNormal, nil)
		}
	}

	return summary, nil
}

func (s *StreakService) awardMilestone(ctx context.Context, userID uuid.UUID, days, bonusXP int, when time.Time) {
	key := fmt.Sprintf("streak:milestone:%d:%s", days, when.UTC().Format("2006-01-02"))
	if err := s.xpService.AwardFixedXP(ctx, userID, bonusXP, "streak_milestone", key); err != nil {
		log.Printf("ERROR: failed to award milestone XP for %s: %v", userID, err)
		return
	}
	s.notify(ctx, userID, notification.TypeStreakMilestone, notification.PriorityHigh, map[string]any{
		"days":     days,
		"bonus_xp": bonusXP,
	})
}

func (s *StreakService) notify(ctx context.Context, userID uuid.UUID, t notification.NotificationType, p notification.NotificationPriority, data map[string]any) {
	if s.notifications == nil {
		return
	}
	_, err := s.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:   userID,
		Type:     t,
		Priority: p,
		Data:     data,
	})
	if err != nil {
		log.Printf("WARN: failed to create %s notification for %s: %v", t, userID, err)
	}
}

func (s *StreakService) loadState(ctx context.Context, userID uuid.UUID) (*streak.State, error) {
	st := &streak.State{}
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, current_streak, longest_streak, freeze_tokens,
		       last_activity_date, auto_use_freeze, last_milestone, last_scan_date,
		       created_at, updated_at
		FROM user_streaks
		WHERE user_id = $1`,
		userID,
	).Scan(
		&st.ID, &st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.FreezeTokens,
		&st.LastActivityDate, &st.AutoUseFreeze, &st.LastMilestone, &st.LastScanDate,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to load streak: %w", err)
	}
	return st, nil
}

func (s *StreakService) saveState(ctx context.Context, st *streak.State) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_streaks (id, user_id, current_streak, longest_streak, freeze_tokens,
		                          last_activity_date, auto_use_freeze, last_milestone, last_scan_date,
		                          created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			freeze_tokens = EXCLUDED.freeze_tokens,
			last_activity_date = EXCLUDED.last_activity_date,
			auto_use_freeze = EXCLUDED.auto_use_freeze,
			last_milestone = EXCLUDED.last_milestone,
			last_scan_date = EXCLUDED.last_scan_date,
			updated_at = NOW()`,
		st.ID, st.UserID, st.CurrentStreak, st.LongestStreak, st.FreezeTokens,
		st.LastActivityDate, st.AutoUseFreeze, st.LastMilestone, st.LastScanDate,
		st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}

func scanStreakRow(rows pgx.Rows, st *streak.State) error {
	err := rows.Scan(
		&st.ID, &st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.FreezeTokens,
		&st.LastActivityDate, &st.AutoUseFreeze, &st.LastMilestone, &st.LastScanDate,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to scan streak row: %w", err)
	}
	return nil
}
