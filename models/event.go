package models

import "time"

const (
	EventStatusUpcoming  = "upcoming"
	EventStatusLive      = "live"
	EventStatusCompleted = "completed"
)

// Winner designations on fights and picks.
const (
	WinnerFighter1 = 1
	WinnerFighter2 = 2
)

// Event is one fight card. Picks are accepted until PickDeadline, which by
// business rule sits before EventDate (not enforced at the schema level).
// Events are soft-deleted via IsActive; a hard purge path exists for cleanup.
type Event struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Slug         string    `json:"slug" gorm:"uniqueIndex;not null"`
	Venue        string    `json:"venue"`
	Location     string    `json:"location"`
	PosterURL    string    `json:"poster_url,omitempty"`
	EventDate    time.Time `json:"event_date" gorm:"not null;index"`
	PickDeadline time.Time `json:"pick_deadline" gorm:"not null"`
	Status       string    `json:"status" gorm:"default:'upcoming'"` // upcoming | live | completed
	IsActive     bool      `json:"is_active" gorm:"index"`

	Timestamps

	Fights []Fight `json:"fights,omitempty" gorm:"foreignKey:EventID"`

	// Calculated fields (not stored)
	PickSetCount int64 `json:"pick_set_count,omitempty" gorm:"-"`
}

// Fight is one bout on a card. FightOrder is unique within the event (1 = card
// opener). Outcome fields are only populated once IsCompleted is set.
type Fight struct {
	ID      string `json:"id" gorm:"primaryKey"`
	EventID string `json:"event_id" gorm:"not null;uniqueIndex:idx_event_fight_order"`

	FightOrder  int    `json:"fight_order" gorm:"not null;uniqueIndex:idx_event_fight_order"`
	WeightClass string `json:"weight_class"`
	IsMainEvent bool   `json:"is_main_event"`

	Fighter1Name   string `json:"fighter1_name" gorm:"not null"`
	Fighter1Record string `json:"fighter1_record"`
	Fighter1Image  string `json:"fighter1_image,omitempty"`
	Fighter2Name   string `json:"fighter2_name" gorm:"not null"`
	Fighter2Record string `json:"fighter2_record"`
	Fighter2Image  string `json:"fighter2_image,omitempty"`

	// Outcome — meaningful only when IsCompleted
	IsCompleted bool   `json:"is_completed"`
	Winner      int    `json:"winner,omitempty"` // 1 or 2
	Method      string `json:"method,omitempty"` // KO/TKO | Submission | Decision
	Round       *int   `json:"round,omitempty"`  // nil for decisions
	Time        string `json:"time,omitempty"`   // e.g. "3:42"

	Timestamps
}
