package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"lexengageAPI/internal/leaderboard"
	"lexengageAPI/internal/notification"
	"lexengageAPI/internal/xp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultRankCutoff     = 10
	defaultNearMissWindow = 5
)

type LeaderboardService struct {
	db             *pgxpool.Pool
	notifications  *NotificationService
	rankCutoff     int
	nearMissWindow int
}

func NewLeaderboardService(db *pgxpool.Pool, notifications *NotificationService) *LeaderboardService {
	return &LeaderboardService{
		db:             db,
		notifications:  notifications,
		rankCutoff:     envInt("LEADERBOARD_RANK_CUTOFF", defaultRankCutoff),
		nearMissWindow: envInt("LEADERBOARD_NEAR_MISS_WINDOW", defaultNearMissWindow),
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// GetLeaderboard returns the latest computed snapshot entries for the period
// containing ref, limited to the top entries plus the caller's own row.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, pt leaderboard.PeriodType, ref time.Time, limit int, userID uuid.UUID) (*leaderboard.Snapshot, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	start, end := leaderboard.PeriodBounds(pt, ref)

	rows, err := s.db.Query(ctx, `
		SELECT user_id, username, xp_total, xp_earned_in_period, level, streak_days,
		       achievements_count, rank, previous_rank, computed_at
		FROM leaderboard_entries
		WHERE period_type = $1 AND period_start = $2
		ORDER BY rank ASC`,
		pt, start,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	snapshot := &leaderboard.Snapshot{
		PeriodType:  pt,
		PeriodStart: start,
		PeriodEnd:   end,
		Entries:     []leaderboard.Entry{},
	}

	for rows.Next() {
		var e leaderboard.Entry
		var computedAt time.Time
		err := rows.Scan(&e.UserID, &e.Username, &e.XPTotal, &e.XPEarnedInPeriod,
			&e.Level, &e.StreakDays, &e.AchievementsCount, &e.Rank, &e.PreviousRank, &computedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		snapshot.ComputedAt = computedAt
		if len(snapshot.Entries) < limit || e.UserID == userID {
			snapshot.Entries = append(snapshot.Entries, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}

	return snapshot, nil
}

// GetUserRank returns the caller's entry in the latest snapshot for the
// period, or nil if they are not on the board.
func (s *LeaderboardService) GetUserRank(ctx context.Context, pt leaderboard.PeriodType, ref time.Time, userID uuid.UUID) (*leaderboard.Entry, error) {
	start, _ := leaderboard.PeriodBounds(pt, ref)

	e := &leaderboard.Entry{}
	err := s.db.QueryRow(ctx, `
		SELECT user_id, username, xp_total, xp_earned_in_period, level, streak_days,
		       achievements_count, rank, previous_rank
		FROM leaderboard_entries
		WHERE period_type = $1 AND period_start = $2 AND user_id = $3`,
		pt, start, userID,
	).Scan(&e.UserID, &e.Username, &e.XPTotal, &e.XPEarnedInPeriod,
		&e.Level, &e.StreakDays, &e.AchievementsCount, &e.Rank, &e.PreviousRank)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user rank: %w", err)
	}
	return e, nil
}

// Compute rebuilds the snapshot for the period containing ref. The previous
// run's ranks are captured first so rank deltas survive the replacement,
// then the old entries are swapped for the new set in one transaction.
// Rank-up and near-miss notifications go out after the commit.
func (s *LeaderboardService) Compute(ctx context.Context, pt leaderboard.PeriodType, ref time.Time) (*leaderboard.Snapshot, error) {
	start, end := leaderboard.PeriodBounds(pt, ref)

	previous, err := s.previousRanks(ctx, pt)
	if err != nil {
		return nil, err
	}

	rows, err := s.standings(ctx, start, end)
	if err != nil {
		return nil, err
	}

	entries := leaderboard.Rank(rows, previous)
	computedAt := time.Now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM leaderboard_entries
		WHERE period_type = $1 AND period_start = $2`,
		pt, start,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to clear old snapshot: %w", err)
	}

	for _, e := range entries {
		_, err = tx.Exec(ctx, `
			INSERT INTO leaderboard_entries (id, period_type, period_start, period_end, user_id,
			                                 username, xp_total, xp_earned_in_period, level,
			                                 streak_days, achievements_count, rank, previous_rank, computed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			uuid.New(), pt, start, end, e.UserID, e.Username, e.XPTotal, e.XPEarnedInPeriod,
			e.Level, e.StreakDays, e.AchievementsCount, e.Rank, e.PreviousRank, computedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert leaderboard entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.notifyMovements(ctx, pt, entries)

	return &leaderboard.Snapshot{
		PeriodType:  pt,
		PeriodStart: start,
		PeriodEnd:   end,
		Entries:     entries,
		ComputedAt:  computedAt,
	}, nil
}

// standings pulls the per-user period XP plus profile stats, ordered for
// ranking. Ties break on user ID so repeated runs over the same data agree.
func (s *LeaderboardService) standings(ctx context.Context, start, end time.Time) ([]leaderboard.Row, error) {
	rows, err := s.db.Query(ctx, `
		SELECT u.id, u.username, u.lifetime_xp,
		       COALESCE(SUM(l.delta), 0) AS period_xp,
		       COALESCE(s.current_streak, 0),
		       COALESCE(a.cnt, 0)
		FROM users u
		JOIN xp_ledger l ON l.user_id = u.id AND l.created_at >= $1 AND l.created_at < $2
		LEFT JOIN user_streaks s ON s.user_id = u.id
		LEFT JOIN (
			SELECT user_id, COUNT(*) AS cnt FROM user_achievements GROUP BY user_id
		) a ON a.user_id = u.id
		WHERE u.show_on_leaderboard = TRUE
		GROUP BY u.id, u.username, u.lifetime_xp, s.current_streak, a.cnt
		HAVING COALESCE(SUM(l.delta), 0) > 0
		ORDER BY period_xp DESC, u.id ASC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer rows.Close()

	standings := []leaderboard.Row{}
	for rows.Next() {
		var r leaderboard.Row
		if err := rows.Scan(&r.UserID, &r.Username, &r.XPTotal, &r.XPEarnedInPeriod,
			&r.StreakDays, &r.AchievementsCount); err != nil {
			return nil, fmt.Errorf("failed to scan standings row: %w", err)
		}
		r.Level = xp.CalculateUserXPState(r.XPTotal, 0, 0, 0).Level
		standings = append(standings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read standings rows: %w", err)
	}

	return standings, nil
}

// previousRanks returns the ranks from the most recent run for the period
// type, whatever window that run covered. On the first compute of a new
// period this is the final snapshot of the one before, so rank deltas carry
// across period boundaries.
func (s *LeaderboardService) previousRanks(ctx context.Context, pt leaderboard.PeriodType) (map[uuid.UUID]int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, rank
		FROM leaderboard_entries
		WHERE period_type = $1
		  AND computed_at = (
			SELECT MAX(computed_at) FROM leaderboard_entries WHERE period_type = $1
		  )`,
		pt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query previous ranks: %w", err)
	}
	defer rows.Close()

	previous := map[uuid.UUID]int{}
	for rows.Next() {
		var id uuid.UUID
		var rank int
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan previous rank: %w", err)
		}
		previous[id] = rank
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read previous ranks: %w", err)
	}

	return previous, nil
}

func (s *LeaderboardService) notifyMovements(ctx context.Context, pt leaderboard.PeriodType, entries []leaderboard.Entry) {
	if s.notifications == nil {
		return
	}

	ups, misses := leaderboard.Movements(entries, s.rankCutoff, s.nearMissWindow)

	for _, up := range ups {
		_, err := s.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:   up.UserID,
			Type:     notification.TypeRankUp,
			Priority: notification.PriorityNormal,
			Data: map[string]any{
				"period": string(pt),
				"rank":   up.Rank,
				"delta":  up.Delta,
			},
		})
		if err != nil {
			log.Printf("WARN: failed to create rank-up notification for %s: %v", up.UserID, err)
		}
	}

	for _, miss := range misses {
		_, err := s.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:   miss.UserID,
			Type:     notification.TypeNearMiss,
			Priority: notification.PriorityLow,
			Data: map[string]any{
				"period": string(pt),
				"rank":   miss.Rank,
				"gap":    miss.Gap,
			},
		})
		if err != nil {
			log.Printf("WARN: failed to create near-miss notification for %s: %v", miss.UserID, err)
		}
	}
}
