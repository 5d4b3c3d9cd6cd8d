package models

import "time"

const (
	PickSetStatusDraft     = "draft"
	PickSetStatusSubmitted = "submitted"
	PickSetStatusScored    = "scored"
)

const (
	MethodKO         = "KO/TKO"
	MethodSubmission = "Submission"
	MethodDecision   = "Decision"
)

// Point weights applied when results are scored against picks.
const (
	PointsCorrectWinner = 3
	PointsCorrectMethod = 1
	PointsCorrectRound  = 1
)

// PickSet is one account's predictions for one event, unique per (user,
// event). The cached totals are rebuilt from PickDetails every time the event
// is scored — they are never incremented in place.
type PickSet struct {
	ID      string `json:"id" gorm:"primaryKey"`
	UserID  string `json:"user_id" gorm:"not null;uniqueIndex:idx_user_event"`
	EventID string `json:"event_id" gorm:"not null;uniqueIndex:idx_user_event"`

	Status      string     `json:"status" gorm:"default:'draft'"` // draft | submitted | scored
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ScoredAt    *time.Time `json:"scored_at,omitempty"`

	// Cached per-event totals
	TotalPoints  int     `json:"total_points" gorm:"default:0"`
	CorrectPicks int     `json:"correct_picks" gorm:"default:0"`
	TotalPicks   int     `json:"total_picks" gorm:"default:0"`
	Accuracy     float64 `json:"accuracy" gorm:"default:0"` // correct/total*100, 0 when empty

	Timestamps

	// Pointers so omitempty actually drops them when not preloaded.
	User  *User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Event *Event       `json:"event,omitempty" gorm:"foreignKey:EventID"`
	Picks []PickDetail `json:"picks,omitempty" gorm:"foreignKey:PickSetID"`
}

// PickDetail is a single fight prediction, unique per (pick set, fight).
// PredictedRound is required unless the predicted method is Decision, in
// which case it must be absent. PointsEarned and IsCorrect are written by the
// scoring pass.
type PickDetail struct {
	ID        string `json:"id" gorm:"primaryKey"`
	PickSetID string `json:"pick_set_id" gorm:"not null;uniqueIndex:idx_pickset_fight"`
	FightID   string `json:"fight_id" gorm:"not null;uniqueIndex:idx_pickset_fight"`

	PredictedWinner int    `json:"predicted_winner" gorm:"not null"` // 1 or 2
	PredictedMethod string `json:"predicted_method" gorm:"not null"`
	PredictedRound  *int   `json:"predicted_round,omitempty"`
	PredictedTime   string `json:"predicted_time,omitempty"`

	PointsEarned int  `json:"points_earned" gorm:"default:0"`
	IsCorrect    bool `json:"is_correct"`

	Timestamps

	Fight *Fight `json:"fight,omitempty" gorm:"foreignKey:FightID"`
}

// ValidMethod reports whether m is one of the accepted prediction methods.
func ValidMethod(m string) bool {
	switch m {
	case MethodKO, MethodSubmission, MethodDecision:
		return true
	}
	return false
}
