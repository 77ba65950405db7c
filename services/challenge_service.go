package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"lexengageAPI/internal/challenge"
	"lexengageAPI/internal/event"
	"lexengageAPI/internal/metrics"
	"lexengageAPI/internal/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChallengeService struct {
	db            *pgxpool.Pool
	xpService     *XPService
	notifications *NotificationService
}

func NewChallengeService(db *pgxpool.Pool, xpService *XPService, notifications *NotificationService) *ChallengeService {
	return &ChallengeService{db: db, xpService: xpService, notifications: notifications}
}

// GetActiveChallenges returns the published challenges whose window contains
// now.
func (s *ChallengeService) GetActiveChallenges(ctx context.Context) ([]challenge.Definition, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, type, name, description, requirements, target, xp_reward,
		       start_date, end_date, is_active, created_at
		FROM challenges
		WHERE is_active = TRUE AND start_date <= NOW() AND end_date > NOW()
		ORDER BY end_date ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	return collectChallenges(rows)
}

// GetUserChallenges returns the user's enrolled challenges with progress.
func (s *ChallengeService) GetUserChallenges(ctx context.Context, userID uuid.UUID) ([]challenge.Progress, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.user_id, p.challenge_id, p.progress, p.target, p.status,
		       p.completed_at, p.enrolled_at
		FROM challenge_progress p
		JOIN challenges c ON c.id = p.challenge_id
		WHERE p.user_id = $1 AND c.end_date > NOW()
		ORDER BY p.enrolled_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenge progress: %w", err)
	}
	defer rows.Close()

	progress := []challenge.Progress{}
	for rows.Next() {
		var p challenge.Progress
		if err := rows.Scan(&p.ID, &p.UserID, &p.ChallengeID, &p.Progress, &p.Target,
			&p.Status, &p.CompletedAt, &p.EnrolledAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		progress = append(progress, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read progress rows: %w", err)
	}

	return progress, nil
}

// Enroll joins the user to a challenge. Re-enrolling is a no-op.
func (s *ChallengeService) Enroll(ctx context.Context, userID, challengeID uuid.UUID) error {
	var target int
	err := s.db.QueryRow(ctx, `
		SELECT target FROM challenges
		WHERE id = $1 AND is_active = TRUE AND end_date > NOW()`,
		challengeID,
	).Scan(&target)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("challenge not found or not active")
		}
		return fmt.Errorf("failed to load challenge: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO challenge_progress (id, user_id, challenge_id, progress, target, status, enrolled_at)
		VALUES ($1, $2, $3, 0, $4, 'in_progress', NOW())
		ON CONFLICT (user_id, challenge_id) DO NOTHING`,
		uuid.New(), userID, challengeID, target,
	)
	if err != nil {
		return fmt.Errorf("failed to enroll: %w", err)
	}
	return nil
}

// ProcessEvent advances every active challenge the event qualifies for,
// auto-enrolling the user in daily, weekly and onboarding challenges they
// have not joined yet. Completion flips exactly once; the guarded update
// keeps progress from passing the target under concurrent events.
func (s *ChallengeService) ProcessEvent(ctx context.Context, ev *event.EngagementEvent) ([]challenge.Update, error) {
	defs, err := s.GetActiveChallenges(ctx)
	if err != nil {
		return nil, err
	}

	updates := []challenge.Update{}
	for _, def := range defs {
		if !def.Requirements.Matches(ev) {
			continue
		}

		if def.Type.AutoEnrollable() {
			_, err := s.db.Exec(ctx, `
				INSERT INTO challenge_progress (id, user_id, challenge_id, progress, target, status, enrolled_at)
				VALUES ($1, $2, $3, 0, $4, 'in_progress', NOW())
				ON CONFLICT (user_id, challenge_id) DO NOTHING`,
				uuid.New(), ev.UserID, def.ID, def.Target,
			)
			if err != nil {
				log.Printf("ERROR: failed to auto-enroll %s in %s: %v", ev.UserID, def.ID, err)
				continue
			}
		}

		update, err := s.advance(ctx, ev.UserID, &def)
		if err != nil {
			log.Printf("ERROR: failed to advance challenge %s for %s: %v", def.ID, ev.UserID, err)
			continue
		}
		if update != nil {
			updates = append(updates, *update)
		}
	}

	return updates, nil
}

// advance bumps progress by one if the user is enrolled and not yet at
// target. Returns nil when the event changed nothing.
func (s *ChallengeService) advance(ctx context.Context, userID uuid.UUID, def *challenge.Definition) (*challenge.Update, error) {
	var progress int
	err := s.db.QueryRow(ctx, `
		UPDATE challenge_progress
		SET progress = progress + 1
		WHERE user_id = $1 AND challenge_id = $2 AND status = 'in_progress' AND progress < target
		RETURNING progress`,
		userID, def.ID,
	).Scan(&progress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Not enrolled, already completed, or already at target.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to advance progress: %w", err)
	}

	update := &challenge.Update{
		ChallengeID: def.ID,
		Name:        def.Name,
		Progress:    progress,
		Target:      def.Target,
	}

	if progress < def.Target {
		return update, nil
	}

	// Target reached: flip to completed exactly once.
	tag, err := s.db.Exec(ctx, `
		UPDATE challenge_progress
		SET status = 'completed', completed_at = NOW()
		WHERE user_id = $1 AND challenge_id = $2 AND status = 'in_progress'`,
		userID, def.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return update, nil
	}

	update.Completed = true
	update.XPAwarded = def.XPReward
	metrics.ChallengeCompletions.Inc()

	key := fmt.Sprintf("challenge:%s", def.ID)
	if err := s.xpService.AwardFixedXP(ctx, userID, def.XPReward, "challenge_completed", key); err != nil {
		log.Printf("ERROR: failed to award challenge XP for %s: %v", userID, err)
	}

	if s.notifications != nil {
		_, err := s.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:   userID,
			Type:     notification.TypeChallengeCompleted,
			Priority: notification.PriorityHigh,
			Data: map[string]any{
				"challenge": def.Name,
				"xp_reward": def.XPReward,
			},
		})
		if err != nil {
			log.Printf("WARN: failed to create completion notification for %s: %v", userID, err)
		}
	}

	return update, nil
}

// CreateChallenge publishes a new challenge definition. Admin only.
func (s *ChallengeService) CreateChallenge(ctx context.Context, def *challenge.Definition) error {
	if def.Target <= 0 {
		return fmt.Errorf("target must be positive")
	}
	if !def.EndDate.After(def.StartDate) {
		return fmt.Errorf("end date must be after start date")
	}

	def.ID = uuid.New()
	def.CreatedAt = time.Now()

	reqJSON, err := json.Marshal(def.Requirements)
	if err != nil {
		return fmt.Errorf("failed to encode requirements: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO challenges (id, type, name, description, requirements, target, xp_reward,
		                        start_date, end_date, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		def.ID, def.Type, def.Name, def.Description, reqJSON, def.Target, def.XPReward,
		def.StartDate, def.EndDate, def.IsActive, def.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func collectChallenges(rows pgx.Rows) ([]challenge.Definition, error) {
	defs := []challenge.Definition{}
	for rows.Next() {
		var def challenge.Definition
		var reqJSON []byte
		err := rows.Scan(&def.ID, &def.Type, &def.Name, &def.Description, &reqJSON,
			&def.Target, &def.XPReward, &def.StartDate, &def.EndDate, &def.IsActive, &def.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge row: %w", err)
		}
		if len(reqJSON) > 0 {
			if err := json.Unmarshal(reqJSON, &def.Requirements); err != nil {
				return nil, fmt.Errorf("failed to decode requirements for %s: %w", def.ID, err)
			}
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read challenge rows: %w", err)
	}
	return defs, nil
}
