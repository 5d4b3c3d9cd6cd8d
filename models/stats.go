package models

import "time"

// UserStats is the denormalized cross-event rollup for one account, created
// with the account and rebuilt from that account's scored pick sets by the
// scoring pass (and by the nightly reconciliation job). It backs the global
// leaderboard so ranking does not need to aggregate pick sets on every read.
type UserStats struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null"`

	TotalPoints     int     `json:"total_points" gorm:"default:0;index"`
	TotalPicks      int     `json:"total_picks" gorm:"default:0"`
	CorrectPicks    int     `json:"correct_picks" gorm:"default:0"`
	EventsPlayed    int     `json:"events_played" gorm:"default:0"`
	BestEventPoints int     `json:"best_event_points" gorm:"default:0"`
	CurrentStreak   int     `json:"current_streak" gorm:"default:0"`
	LongestStreak   int     `json:"longest_streak" gorm:"default:0"`
	Accuracy        float64 `json:"accuracy" gorm:"default:0"`

	Timestamps
}

// Timestamps adds GORM auto-times. Soft deletion is modeled with explicit
// active flags (users, events), so no gorm.DeletedAt here — pick resubmission
// relies on hard delete-then-recreate under the composite unique indexes.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
