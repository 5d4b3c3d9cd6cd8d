package services

import (
	"log"
	"time"

	"ufc-picks/models"

	"github.com/go-co-op/gocron/v2"
)

// StartStatusScheduler flips upcoming events to live once their date passes.
// Reads already report the effective status lazily; this keeps the stored
// rows in step for anything querying the column directly.
func (s *EventService) StartStatusScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			result := s.DB.Model(&models.Event{}).
				Where("status = ? AND event_date <= ? AND is_active = ?",
					models.EventStatusUpcoming, time.Now(), true).
				Update("status", models.EventStatusLive)
			if result.Error != nil {
				log.Printf("[Scheduler] status flip failed: %v", result.Error)
				return
			}
			if result.RowsAffected > 0 {
				log.Printf("[Scheduler] %d event(s) now live", result.RowsAffected)
			}
		}),
	)
}

// StartReconciliationScheduler rebuilds all cached aggregates once a day, the
// standing guard against rollup drift.
func (s *ScoringService) StartReconciliationScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			rebuilt, err := s.RecomputeAllStats()
			if err != nil {
				log.Printf("[Scheduler] nightly reconciliation failed: %v", err)
				return
			}
			log.Printf("[Scheduler] nightly reconciliation done, %d accounts rebuilt", rebuilt)
		}),
	)
}
