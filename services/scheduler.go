// services/scheduler.go
package services

import (
	"log"
	"time"

	"erp-matcher/models"

	"github.com/go-co-op/gocron/v2"
)

// Suggested matches older than this are dispatched to the partner
const dispatchDelay = 5 * time.Minute

// StartDispatchScheduler runs the background jobs that keep matches moving:
// suggested → sent dispatch, and a periodic stale-response report.
func (s *MatchService) StartDispatchScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: dispatch suggested matches past the delay window
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-dispatchDelay)
			var matches []models.Match
			err := s.DB.Where("status = ? AND created_at <= ?", models.MatchStatusSuggested, cutoff).
				Find(&matches).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, m := range matches {
				if _, err := s.DispatchMatch(m.ID, models.ActorScheduler); err != nil {
					log.Printf("[Scheduler] Failed to dispatch match %s: %v", m.ID, err)
				} else {
					log.Printf("✅ Auto-dispatched match %s (score %d)", m.ID, m.Score)
				}
			}
		}),
	)

	// Every hour: report sent matches still waiting on the partner
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			var stale int64
			cutoff := time.Now().Add(-72 * time.Hour)
			err := s.DB.Model(&models.Match{}).
				Where("status = ? AND created_at <= ?", models.MatchStatusSent, cutoff).
				Count(&stale).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			if stale > 0 {
				log.Printf("⏳ [Scheduler] %d matches waiting on partner response for over 72h", stale)
			}
		}),
	)
}
