package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"ufc-picks/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScoringService struct {
	DB *gorm.DB
}

func NewScoringService(db *gorm.DB) *ScoringService {
	return &ScoringService{DB: db}
}

// ResultReq is one fight outcome in a results payload.
type ResultReq struct {
	FightID string `json:"fight_id"`
	Winner  int    `json:"winner"` // 1 or 2
	Method  string `json:"method"`
	Round   *int   `json:"round"` // nil for decisions
	Time    string `json:"time"`
}

// scorePick applies the point rule for one prediction against a completed
// fight. Method and round bonuses both require the winner to be correct: a
// finish can't be judged right if the wrong fighter was picked to land it.
// They are independent of each other, so a correct winner and method with a
// wrong round still earns 4.
func scorePick(p *models.PickDetail, f *models.Fight) (points int, correct bool) {
	if f == nil || !f.IsCompleted {
		return 0, false
	}
	if p.PredictedWinner != f.Winner {
		return 0, false
	}
	points = models.PointsCorrectWinner
	if p.PredictedMethod == f.Method {
		points += models.PointsCorrectMethod
	}
	if p.PredictedRound != nil && f.Round != nil && *p.PredictedRound == *f.Round {
		points += models.PointsCorrectRound
	}
	return points, true
}

// PostResults stamps fight outcomes, marks the event completed and scores
// every submitted pick set for it, all in one transaction. The pass is
// re-entrant: pick set totals are rebuilt from details and account stats are
// rebuilt from scratch, so posting corrected (or identical) results a second
// time converges on one canonical state instead of double-counting.
func (s *ScoringService) PostResults(c *fiber.Ctx) error {
	type Req struct {
		Results []ResultReq `json:"results"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if len(req.Results) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "at least one result is required"})
	}

	var event models.Event
	err := s.DB.Preload("Fights").
		Where("id = ? OR slug = ?", c.Params("id"), c.Params("id")).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	fightsByID := make(map[string]*models.Fight, len(event.Fights))
	for i := range event.Fights {
		fightsByID[event.Fights[i].ID] = &event.Fights[i]
	}
	for _, r := range req.Results {
		fight := fightsByID[r.FightID]
		if fight == nil {
			return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("fight %s does not belong to this event", r.FightID)})
		}
		if r.Winner != models.WinnerFighter1 && r.Winner != models.WinnerFighter2 {
			return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("fight #%d: winner must be 1 or 2", fight.FightOrder)})
		}
		if !models.ValidMethod(r.Method) {
			return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("fight #%d: method must be one of KO/TKO, Submission, Decision", fight.FightOrder)})
		}
		if r.Method == models.MethodDecision {
			if r.Round != nil {
				return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("fight #%d: decisions carry no round", fight.FightOrder)})
			}
		} else if r.Round == nil || *r.Round < 1 || *r.Round > 5 {
			return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("fight #%d: round must be between 1 and 5", fight.FightOrder)})
		}
	}

	var scoredSets int
	affected := map[string]bool{}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, r := range req.Results {
			fight := fightsByID[r.FightID]
			if err := tx.Model(&models.Fight{}).Where("id = ?", fight.ID).Updates(map[string]interface{}{
				"is_completed": true,
				"winner":       r.Winner,
				"method":       r.Method,
				"round":        r.Round,
				"time":         r.Time,
			}).Error; err != nil {
				return err
			}
			fight.IsCompleted = true
			fight.Winner = r.Winner
			fight.Method = r.Method
			fight.Round = r.Round
			fight.Time = r.Time
		}

		if err := tx.Model(&models.Event{}).Where("id = ?", event.ID).
			Update("status", models.EventStatusCompleted).Error; err != nil {
			return err
		}

		var sets []models.PickSet
		if err := tx.Preload("Picks").
			Where("event_id = ? AND status IN ?", event.ID,
				[]string{models.PickSetStatusSubmitted, models.PickSetStatusScored}).
			Find(&sets).Error; err != nil {
			return err
		}

		now := time.Now()
		for i := range sets {
			set := &sets[i]
			totalPoints, correctPicks := 0, 0
			for j := range set.Picks {
				pick := &set.Picks[j]
				points, correct := scorePick(pick, fightsByID[pick.FightID])
				if err := tx.Model(&models.PickDetail{}).Where("id = ?", pick.ID).Updates(map[string]interface{}{
					"points_earned": points,
					"is_correct":    correct,
				}).Error; err != nil {
					return err
				}
				totalPoints += points
				if correct {
					correctPicks++
				}
			}

			totalPicks := len(set.Picks)
			accuracy := 0.0
			if totalPicks > 0 {
				accuracy = float64(correctPicks) / float64(totalPicks) * 100
			}
			if err := tx.Model(&models.PickSet{}).Where("id = ?", set.ID).Updates(map[string]interface{}{
				"total_points":  totalPoints,
				"correct_picks": correctPicks,
				"total_picks":   totalPicks,
				"accuracy":      accuracy,
				"status":        models.PickSetStatusScored,
				"scored_at":     now,
			}).Error; err != nil {
				return err
			}
			affected[set.UserID] = true
			scoredSets++
		}

		for userID := range affected {
			if err := recomputeUserStats(tx, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[SCORING] results for %s failed: %v", event.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to post results"})
	}

	log.Printf("[SCORING] %s: %d fights stamped, %d pick sets scored, %d accounts rebuilt",
		event.Name, len(req.Results), scoredSets, len(affected))
	return c.JSON(fiber.Map{
		"message":          "results posted",
		"fights_completed": len(req.Results),
		"pick_sets_scored": scoredSets,
	})
}

// recomputeUserStats rebuilds one account's aggregate row from the full set
// of its scored pick sets. It is the only writer of user_stats, which is what
// makes rescoring and purging safe: callers never apply deltas.
func recomputeUserStats(tx *gorm.DB, userID string) error {
	var sets []models.PickSet
	if err := tx.Where("user_id = ? AND status = ?", userID, models.PickSetStatusScored).
		Find(&sets).Error; err != nil {
		return err
	}

	totalPoints, totalPicks, correctPicks, best := 0, 0, 0, 0
	for _, set := range sets {
		totalPoints += set.TotalPoints
		totalPicks += set.TotalPicks
		correctPicks += set.CorrectPicks
		if set.TotalPoints > best {
			best = set.TotalPoints
		}
	}
	accuracy := 0.0
	if totalPicks > 0 {
		accuracy = float64(correctPicks) / float64(totalPicks) * 100
	}

	// Streaks walk every scored pick in card order across events.
	var corrects []bool
	if err := tx.Model(&models.PickDetail{}).
		Joins("JOIN pick_sets ON pick_sets.id = pick_details.pick_set_id").
		Joins("JOIN fights ON fights.id = pick_details.fight_id").
		Joins("JOIN events ON events.id = pick_sets.event_id").
		Where("pick_sets.user_id = ? AND pick_sets.status = ?", userID, models.PickSetStatusScored).
		Order("events.event_date ASC, fights.fight_order ASC").
		Pluck("pick_details.is_correct", &corrects).Error; err != nil {
		return err
	}
	current, longest := 0, 0
	for _, ok := range corrects {
		if ok {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}

	var stats models.UserStats
	err := tx.Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = models.UserStats{ID: uuid.NewString(), UserID: userID}
		if err := tx.Create(&stats).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	// Updates map so zero values are written too.
	return tx.Model(&stats).Updates(map[string]interface{}{
		"total_points":      totalPoints,
		"total_picks":       totalPicks,
		"correct_picks":     correctPicks,
		"events_played":     len(sets),
		"best_event_points": best,
		"current_streak":    current,
		"longest_streak":    longest,
		"accuracy":          accuracy,
	}).Error
}

// RecomputeAllStats rebuilds every scored pick set's cached totals from its
// details and then every account's stats row. This is the administrative
// reconciliation pass for drifted aggregates; the nightly job runs it too.
func (s *ScoringService) RecomputeAllStats() (int, error) {
	var rebuilt int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var sets []models.PickSet
		if err := tx.Preload("Picks").
			Where("status = ?", models.PickSetStatusScored).
			Find(&sets).Error; err != nil {
			return err
		}
		for i := range sets {
			set := &sets[i]
			totalPoints, correctPicks := 0, 0
			for _, pick := range set.Picks {
				totalPoints += pick.PointsEarned
				if pick.IsCorrect {
					correctPicks++
				}
			}
			totalPicks := len(set.Picks)
			accuracy := 0.0
			if totalPicks > 0 {
				accuracy = float64(correctPicks) / float64(totalPicks) * 100
			}
			if err := tx.Model(&models.PickSet{}).Where("id = ?", set.ID).Updates(map[string]interface{}{
				"total_points":  totalPoints,
				"correct_picks": correctPicks,
				"total_picks":   totalPicks,
				"accuracy":      accuracy,
			}).Error; err != nil {
				return err
			}
		}

		var userIDs []string
		if err := tx.Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
			return err
		}
		for _, userID := range userIDs {
			if err := recomputeUserStats(tx, userID); err != nil {
				return err
			}
			rebuilt++
		}
		return nil
	})
	return rebuilt, err
}

// RecomputeAll is the admin endpoint wrapping RecomputeAllStats.
func (s *ScoringService) RecomputeAll(c *fiber.Ctx) error {
	rebuilt, err := s.RecomputeAllStats()
	if err != nil {
		log.Printf("[SCORING] full recompute failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "recompute failed"})
	}
	log.Printf("[SCORING] full recompute done, %d accounts rebuilt", rebuilt)
	return c.JSON(fiber.Map{"message": "stats recomputed", "accounts_rebuilt": rebuilt})
}
