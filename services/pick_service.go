package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"ufc-picks/middleware"
	"ufc-picks/models"
	"ufc-picks/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PickService struct {
	DB *gorm.DB
}

func NewPickService(db *gorm.DB) *PickService {
	return &PickService{DB: db}
}

// PickReq is one fight prediction in a submission payload.
type PickReq struct {
	FightID         string `json:"fight_id"`
	PredictedWinner int    `json:"predicted_winner"` // 1 or 2
	PredictedMethod string `json:"predicted_method"`
	PredictedRound  *int   `json:"predicted_round"`
	PredictedTime   string `json:"predicted_time"`
}

func validatePickReq(p PickReq, fight *models.Fight) error {
	if fight == nil {
		return fmt.Errorf("fight %s does not belong to this event", p.FightID)
	}
	if fight.IsCompleted {
		return fmt.Errorf("fight #%d already has a result", fight.FightOrder)
	}
	if p.PredictedWinner != models.WinnerFighter1 && p.PredictedWinner != models.WinnerFighter2 {
		return fmt.Errorf("fight #%d: predicted_winner must be 1 or 2", fight.FightOrder)
	}
	if !models.ValidMethod(p.PredictedMethod) {
		return fmt.Errorf("fight #%d: predicted_method must be one of KO/TKO, Submission, Decision", fight.FightOrder)
	}
	if p.PredictedMethod == models.MethodDecision {
		if p.PredictedRound != nil {
			return fmt.Errorf("fight #%d: decision picks carry no round", fight.FightOrder)
		}
	} else {
		if p.PredictedRound == nil {
			return fmt.Errorf("fight #%d: predicted_round is required unless the method is Decision", fight.FightOrder)
		}
		if *p.PredictedRound < 1 || *p.PredictedRound > 5 {
			return fmt.Errorf("fight #%d: predicted_round must be between 1 and 5", fight.FightOrder)
		}
	}
	return nil
}

// SubmitPicks creates or fully replaces the caller's pick set for an event.
// Resubmission before the deadline uses delete-then-recreate semantics, so no
// stale rows survive for fights that were previously picked.
func (s *PickService) SubmitPicks(c *fiber.Ctx) error {
	type Req struct {
		Picks []PickReq `json:"picks"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if len(req.Picks) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "at least one pick is required"})
	}

	var event models.Event
	err := s.DB.Preload("Fights").
		Where("is_active = ?", true).
		Where("id = ? OR slug = ?", c.Params("id"), c.Params("id")).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	// Submission window checks. The deadline gate applies regardless of the
	// stored status -- a stale "upcoming" row does not keep the window open.
	now := time.Now()
	for _, f := range event.Fights {
		if f.IsCompleted {
			return c.Status(400).JSON(fiber.Map{"error": "results are in, this event is closed for picks"})
		}
	}
	if event.EventDate.Before(now) {
		return c.Status(400).JSON(fiber.Map{"error": "this event is already live"})
	}
	if event.PickDeadline.Before(now) {
		return c.Status(400).JSON(fiber.Map{"error": "the pick deadline for this event has passed"})
	}

	fightsByID := make(map[string]*models.Fight, len(event.Fights))
	for i := range event.Fights {
		fightsByID[event.Fights[i].ID] = &event.Fights[i]
	}
	seen := make(map[string]bool, len(req.Picks))
	for _, p := range req.Picks {
		if seen[p.FightID] {
			return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("duplicate pick for fight %s", p.FightID)})
		}
		seen[p.FightID] = true
		if err := validatePickReq(p, fightsByID[p.FightID]); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
	}

	userID := middleware.UserID(c)
	var pickSet models.PickSet

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND event_id = ?", userID, event.ID).First(&pickSet).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pickSet = models.PickSet{
				ID:      uuid.NewString(),
				UserID:  userID,
				EventID: event.ID,
				Status:  models.PickSetStatusDraft,
			}
			// The (user_id, event_id) unique index catches a concurrent
			// first submission from a retried request.
			if err := tx.Create(&pickSet).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := tx.Where("pick_set_id = ?", pickSet.ID).Delete(&models.PickDetail{}).Error; err != nil {
			return err
		}
		for _, p := range req.Picks {
			detail := models.PickDetail{
				ID:              uuid.NewString(),
				PickSetID:       pickSet.ID,
				FightID:         p.FightID,
				PredictedWinner: p.PredictedWinner,
				PredictedMethod: p.PredictedMethod,
				PredictedRound:  p.PredictedRound,
				PredictedTime:   p.PredictedTime,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return err
			}
		}

		submittedAt := time.Now()
		return tx.Model(&pickSet).Updates(map[string]interface{}{
			"status":        models.PickSetStatusSubmitted,
			"submitted_at":  submittedAt,
			"total_picks":   len(req.Picks),
			"total_points":  0,
			"correct_picks": 0,
			"accuracy":      0,
			"scored_at":     nil,
		}).Error
	})
	if err != nil {
		log.Printf("[PICKS] submit failed for user %s event %s: %v", userID, event.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to save picks"})
	}

	s.DB.Preload("Picks.Fight").First(&pickSet, "id = ?", pickSet.ID)
	return c.Status(201).JSON(pickSet)
}

// MyPicks returns the caller's pick sets across events, newest event first.
func (s *PickService) MyPicks(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	page, limit, offset := utils.ParsePagination(c, 10, 50)

	db := s.DB.Model(&models.PickSet{}).Where("user_id = ?", userID)

	var total int64
	db.Count(&total)

	var sets []models.PickSet
	if err := db.Preload("Event").
		Preload("Picks.Fight").
		Joins("JOIN events ON events.id = pick_sets.event_id").
		Order("events.event_date DESC").
		Limit(limit).Offset(offset).
		Find(&sets).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch picks"})
	}

	return c.JSON(fiber.Map{
		"pick_sets":   sets,
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": utils.TotalPages(total, limit),
	})
}

// MyEventPicks returns the caller's pick set for a single event.
func (s *PickService) MyEventPicks(c *fiber.Ctx) error {
	var pickSet models.PickSet
	err := s.DB.Preload("Event").
		Preload("Picks.Fight").
		Joins("JOIN events ON events.id = pick_sets.event_id").
		Where("pick_sets.user_id = ? AND (events.id = ? OR events.slug = ?)",
			middleware.UserID(c), c.Params("id"), c.Params("id")).
		First(&pickSet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "no picks for this event"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(pickSet)
}

// EventPicks lists all submitted pick sets for an event. Admins can always
// look; participants only after the deadline, so nobody can copy picks while
// the window is open.
func (s *PickService) EventPicks(c *fiber.Ctx) error {
	var event models.Event
	err := s.DB.Where("id = ? OR slug = ?", c.Params("id"), c.Params("id")).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	userID := middleware.UserID(c)
	if !middleware.IsAdmin(c) {
		if event.PickDeadline.After(time.Now()) {
			return c.Status(403).JSON(fiber.Map{"error": "picks are hidden until the deadline passes"})
		}
		var participant int64
		s.DB.Model(&models.PickSet{}).
			Where("event_id = ? AND user_id = ? AND status <> ?", event.ID, userID, models.PickSetStatusDraft).
			Count(&participant)
		if participant == 0 {
			return c.Status(403).JSON(fiber.Map{"error": "only participants can view event picks"})
		}
	}

	var sets []models.PickSet
	if err := s.DB.Preload("User").
		Preload("Picks.Fight").
		Where("event_id = ? AND status <> ?", event.ID, models.PickSetStatusDraft).
		Order("total_points DESC, correct_picks DESC").
		Find(&sets).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch picks"})
	}
	return c.JSON(fiber.Map{"event": event, "pick_sets": sets})
}
