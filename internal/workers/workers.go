package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"lexengageAPI/internal/leaderboard"
	"lexengageAPI/internal/metrics"
	"lexengageAPI/services"
)

// Scheduler runs the periodic engine jobs: the daily streak scan,
// leaderboard snapshots and wishlist alert cleanup. The same jobs also
// have admin endpoints so they can be triggered out of band.
type Scheduler struct {
	streakService      *services.StreakService
	leaderboardService *services.LeaderboardService
	wishlistService    *services.WishlistService

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(streakService *services.StreakService, leaderboardService *services.LeaderboardService, wishlistService *services.WishlistService) *Scheduler {
	return &Scheduler{
		streakService:      streakService,
		leaderboardService: leaderboardService,
		wishlistService:    wishlistService,
		stopChan:           make(chan struct{}),
	}
}

// Start launches the scheduler loop. It ticks hourly and fires the
// daily jobs on the first tick of each new UTC day.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	log.Println("Engine job scheduler started")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	lastDay := time.Now().UTC().Truncate(24 * time.Hour)

	for {
		select {
		case <-ticker.C:
			now := time.Now().UTC()
			s.hourly(now)

			day := now.Truncate(24 * time.Hour)
			if day.After(lastDay) {
				lastDay = day
				s.daily(now)
			}
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) hourly(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	purged, err := s.wishlistService.PurgeExpiredAlerts(ctx)
	if err != nil {
		log.Printf("Alert purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Purged %d expired wishlist alerts", purged)
	}
}

func (s *Scheduler) daily(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, err := s.streakService.RunDailyScan(ctx, now)
	if err != nil {
		metrics.EngineJobRuns.WithLabelValues("streak_scan", "error").Inc()
		log.Printf("Daily streak scan failed: %v", err)
	} else {
		metrics.EngineJobRuns.WithLabelValues("streak_scan", "ok").Inc()
		log.Printf("Daily streak scan: %d processed, %d frozen, %d broken", summary.Processed, summary.Frozen, summary.Broken)
	}

	for _, t := range computeTargets(now) {
		s.compute(ctx, t.period, t.ref)
	}
}

type computeTarget struct {
	period leaderboard.PeriodType
	ref    time.Time
}

// computeTargets lists the leaderboard runs due at the start of a new UTC
// day. The daily board is built for the day that just ended (the new day's
// window has no XP yet). On a week or month boundary the finished window
// is closed out first, before the rolling recomputes overwrite the "most
// recent run" for that period type.
func computeTargets(now time.Time) []computeTarget {
	yesterday := now.AddDate(0, 0, -1)

	targets := []computeTarget{{leaderboard.PeriodDaily, yesterday}}
	if now.UTC().Weekday() == time.Sunday {
		targets = append(targets, computeTarget{leaderboard.PeriodWeekly, yesterday})
	}
	if now.UTC().Day() == 1 {
		targets = append(targets, computeTarget{leaderboard.PeriodMonthly, yesterday})
	}
	return append(targets,
		computeTarget{leaderboard.PeriodWeekly, now},
		computeTarget{leaderboard.PeriodMonthly, now},
	)
}

func (s *Scheduler) compute(ctx context.Context, pt leaderboard.PeriodType, ref time.Time) {
	snapshot, err := s.leaderboardService.Compute(ctx, pt, ref)
	if err != nil {
		metrics.EngineJobRuns.WithLabelValues("leaderboard_compute", "error").Inc()
		log.Printf("Leaderboard compute (%s) failed: %v", pt, err)
		return
	}
	metrics.EngineJobRuns.WithLabelValues("leaderboard_compute", "ok").Inc()
	log.Printf("Leaderboard compute (%s, window %s): %d entries", pt, snapshot.PeriodStart.Format("2006-01-02"), len(snapshot.Entries))
}

// Stop signals the loop to exit and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	log.Println("Engine job scheduler stopped")
}
