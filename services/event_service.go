package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ufc-picks/models"
	"ufc-picks/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type EventService struct {
	DB *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db}
}

// FightReq is the roster entry accepted on event create/update.
type FightReq struct {
	FightOrder     int    `json:"fight_order"`
	WeightClass    string `json:"weight_class"`
	IsMainEvent    bool   `json:"is_main_event"`
	Fighter1Name   string `json:"fighter1_name"`
	Fighter1Record string `json:"fighter1_record"`
	Fighter1Image  string `json:"fighter1_image"`
	Fighter2Name   string `json:"fighter2_name"`
	Fighter2Record string `json:"fighter2_record"`
	Fighter2Image  string `json:"fighter2_image"`
}

func validateFightReqs(fights []FightReq) error {
	if len(fights) == 0 {
		return errors.New("at least one fight is required")
	}
	seen := map[int]bool{}
	for i, f := range fights {
		if f.FightOrder < 1 {
			return fmt.Errorf("fight %d: fight_order must be >= 1", i+1)
		}
		if seen[f.FightOrder] {
			return fmt.Errorf("duplicate fight_order %d", f.FightOrder)
		}
		seen[f.FightOrder] = true
		if strings.TrimSpace(f.Fighter1Name) == "" || strings.TrimSpace(f.Fighter2Name) == "" {
			return fmt.Errorf("fight %d: both fighter names are required", f.FightOrder)
		}
	}
	return nil
}

// uniqueSlug derives a URL slug from the event name, suffixing on collision.
func (s *EventService) uniqueSlug(tx *gorm.DB, name, excludeID string) string {
	base := slug.Make(name)
	candidate := base
	for i := 2; ; i++ {
		var count int64
		tx.Model(&models.Event{}).Where("slug = ? AND id <> ?", candidate, excludeID).Count(&count)
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// displayStatus reports the effective lifecycle status: an upcoming event
// whose date has passed reads as live even if the scheduler has not flipped
// the row yet.
func displayStatus(e *models.Event, now time.Time) string {
	if e.Status == models.EventStatusUpcoming && e.EventDate.Before(now) {
		return models.EventStatusLive
	}
	return e.Status
}

// CreateEvent creates an event with its fight card in one transaction.
func (s *EventService) CreateEvent(c *fiber.Ctx) error {
	type Req struct {
		Name         string     `json:"name"`
		Venue        string     `json:"venue"`
		Location     string     `json:"location"`
		PosterURL    string     `json:"poster_url"`
		EventDate    string     `json:"event_date"`    // RFC3339
		PickDeadline string     `json:"pick_deadline"` // RFC3339
		Fights       []FightReq `json:"fights"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required", "field": "name"})
	}
	eventDate, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid event_date (use RFC3339)", "field": "event_date"})
	}
	deadline, err := time.Parse(time.RFC3339, req.PickDeadline)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid pick_deadline (use RFC3339)", "field": "pick_deadline"})
	}
	if !deadline.Before(eventDate) {
		return c.Status(400).JSON(fiber.Map{"error": "pick_deadline must be before event_date"})
	}
	if err := validateFightReqs(req.Fights); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	event := &models.Event{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Venue:        strings.TrimSpace(req.Venue),
		Location:     strings.TrimSpace(req.Location),
		PosterURL:    strings.TrimSpace(req.PosterURL),
		EventDate:    eventDate,
		PickDeadline: deadline,
		Status:       models.EventStatusUpcoming,
		IsActive:     true,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		event.Slug = s.uniqueSlug(tx, req.Name, event.ID)
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		for _, f := range req.Fights {
			fight := models.Fight{
				ID:             uuid.NewString(),
				EventID:        event.ID,
				FightOrder:     f.FightOrder,
				WeightClass:    strings.TrimSpace(f.WeightClass),
				IsMainEvent:    f.IsMainEvent,
				Fighter1Name:   strings.TrimSpace(f.Fighter1Name),
				Fighter1Record: strings.TrimSpace(f.Fighter1Record),
				Fighter1Image:  strings.TrimSpace(f.Fighter1Image),
				Fighter2Name:   strings.TrimSpace(f.Fighter2Name),
				Fighter2Record: strings.TrimSpace(f.Fighter2Record),
				Fighter2Image:  strings.TrimSpace(f.Fighter2Image),
			}
			if err := tx.Create(&fight).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[EVENTS] create %q failed: %v", req.Name, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create event"})
	}

	s.DB.Preload("Fights", func(db *gorm.DB) *gorm.DB {
		return db.Order("fight_order ASC")
	}).First(event, "id = ?", event.ID)
	return c.Status(201).JSON(event)
}

// ListEvents returns active events, optionally filtered by status, paginated.
func (s *EventService) ListEvents(c *fiber.Ctx) error {
	page, limit, offset := utils.ParsePagination(c, 20, 100)
	status := c.Query("status")
	now := time.Now()

	db := s.DB.Model(&models.Event{}).Where("is_active = ?", true)
	switch status {
	case models.EventStatusUpcoming:
		db = db.Where("status = ? AND event_date > ?", models.EventStatusUpcoming, now)
	case models.EventStatusLive:
		db = db.Where("status = ? OR (status = ? AND event_date <= ?)",
			models.EventStatusLive, models.EventStatusUpcoming, now)
	case models.EventStatusCompleted:
		db = db.Where("status = ?", models.EventStatusCompleted)
	}

	var total int64
	db.Count(&total)

	var events []models.Event
	if err := db.Preload("Fights", func(db *gorm.DB) *gorm.DB {
		return db.Order("fight_order ASC")
	}).Order("event_date DESC").
		Limit(limit).Offset(offset).
		Find(&events).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch events"})
	}

	for i := range events {
		events[i].Status = displayStatus(&events[i], now)
	}

	return c.JSON(fiber.Map{
		"events":      events,
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": utils.TotalPages(total, limit),
	})
}

// findEvent resolves an event by ID or slug.
func (s *EventService) findEvent(idOrSlug string, activeOnly bool) (*models.Event, error) {
	db := s.DB.Preload("Fights", func(db *gorm.DB) *gorm.DB {
		return db.Order("fight_order ASC")
	})
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	var event models.Event
	err := db.Where("id = ? OR slug = ?", idOrSlug, idOrSlug).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEvent returns one event with its ordered fight card and pick count.
func (s *EventService) GetEvent(c *fiber.Ctx) error {
	event, err := s.findEvent(c.Params("id"), true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	s.DB.Model(&models.PickSet{}).
		Where("event_id = ? AND status <> ?", event.ID, models.PickSetStatusDraft).
		Count(&event.PickSetCount)
	event.Status = displayStatus(event, time.Now())
	return c.JSON(event)
}

// UpdateEvent updates event fields and optionally replaces the fight roster.
// Roster replacement is refused once any fight has a result.
func (s *EventService) UpdateEvent(c *fiber.Ctx) error {
	type Req struct {
		Name         *string    `json:"name"`
		Venue        *string    `json:"venue"`
		Location     *string    `json:"location"`
		PosterURL    *string    `json:"poster_url"`
		EventDate    *string    `json:"event_date"`
		PickDeadline *string    `json:"pick_deadline"`
		Fights       []FightReq `json:"fights"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	event, err := s.findEvent(c.Params("id"), false)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "event not found"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.Status(400).JSON(fiber.Map{"error": "name cannot be empty", "field": "name"})
		}
		updates["name"] = name
	}
	if req.Venue != nil {
		updates["venue"] = strings.TrimSpace(*req.Venue)
	}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.PosterURL != nil {
		updates["poster_url"] = strings.TrimSpace(*req.PosterURL)
	}

	eventDate := event.EventDate
	if req.EventDate != nil {
		t, err := time.Parse(time.RFC3339, *req.EventDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid event_date (use RFC3339)", "field": "event_date"})
		}
		eventDate = t
		updates["event_date"] = t
	}
	if req.PickDeadline != nil {
		t, err := time.Parse(time.RFC3339, *req.PickDeadline)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid pick_deadline (use RFC3339)", "field": "pick_deadline"})
		}
		if !t.Before(eventDate) {
			return c.Status(400).JSON(fiber.Map{"error": "pick_deadline must be before event_date"})
		}
		updates["pick_deadline"] = t
	}

	if req.Fights != nil {
		if err := validateFightReqs(req.Fights); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		for _, f := range event.Fights {
			if f.IsCompleted {
				return c.Status(400).JSON(fiber.Map{"error": "cannot replace the fight card after results were posted"})
			}
		}
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if name, ok := updates["name"].(string); ok && name != event.Name {
			updates["slug"] = s.uniqueSlug(tx, name, event.ID)
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Event{}).Where("id = ?", event.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Fights != nil {
			// Replacing fights invalidates any pick details that referenced
			// them, so clear those as well.
			var fightIDs []string
			if err := tx.Model(&models.Fight{}).Where("event_id = ?", event.ID).Pluck("id", &fightIDs).Error; err != nil {
				return err
			}
			if len(fightIDs) > 0 {
				if err := tx.Where("fight_id IN ?", fightIDs).Delete(&models.PickDetail{}).Error; err != nil {
					return err
				}
				if err := tx.Where("event_id = ?", event.ID).Delete(&models.Fight{}).Error; err != nil {
					return err
				}
			}
			for _, f := range req.Fights {
				fight := models.Fight{
					ID:             uuid.NewString(),
					EventID:        event.ID,
					FightOrder:     f.FightOrder,
					WeightClass:    strings.TrimSpace(f.WeightClass),
					IsMainEvent:    f.IsMainEvent,
					Fighter1Name:   strings.TrimSpace(f.Fighter1Name),
					Fighter1Record: strings.TrimSpace(f.Fighter1Record),
					Fighter1Image:  strings.TrimSpace(f.Fighter1Image),
					Fighter2Name:   strings.TrimSpace(f.Fighter2Name),
					Fighter2Record: strings.TrimSpace(f.Fighter2Record),
					Fighter2Image:  strings.TrimSpace(f.Fighter2Image),
				}
				if err := tx.Create(&fight).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[EVENTS] update %s failed: %v", event.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update event"})
	}

	updated, _ := s.findEvent(event.ID, false)
	return c.JSON(updated)
}

// DeleteEvent soft-deletes an event. Picks and results are retained.
func (s *EventService) DeleteEvent(c *fiber.Ctx) error {
	result := s.DB.Model(&models.Event{}).
		Where("id = ? AND is_active = ?", c.Params("id"), true).
		Update("is_active", false)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "delete failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "event not found"})
	}
	return c.JSON(fiber.Map{"message": "event deactivated"})
}

// RestoreEvent undoes a soft delete.
func (s *EventService) RestoreEvent(c *fiber.Ctx) error {
	result := s.DB.Model(&models.Event{}).
		Where("id = ? AND is_active = ?", c.Params("id"), false).
		Update("is_active", true)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "restore failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "no deactivated event with that id"})
	}
	return c.JSON(fiber.Map{"message": "event restored"})
}

// PurgeEvent hard-deletes a soft-deleted event and every dependent row, in
// foreign-key order, then rebuilds stats for the accounts that had scored
// picks on it.
func (s *EventService) PurgeEvent(c *fiber.Ctx) error {
	var event models.Event
	if err := s.DB.First(&event, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "event not found"})
	}
	if event.IsActive {
		return c.Status(400).JSON(fiber.Map{"error": "deactivate the event before purging it"})
	}

	var affectedUsers []string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PickSet{}).
			Where("event_id = ? AND status = ?", event.ID, models.PickSetStatusScored).
			Pluck("user_id", &affectedUsers).Error; err != nil {
			return err
		}
		var setIDs []string
		if err := tx.Model(&models.PickSet{}).Where("event_id = ?", event.ID).Pluck("id", &setIDs).Error; err != nil {
			return err
		}
		if len(setIDs) > 0 {
			if err := tx.Where("pick_set_id IN ?", setIDs).Delete(&models.PickDetail{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.PickSet{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.Fight{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&event).Error; err != nil {
			return err
		}
		for _, userID := range affectedUsers {
			if err := recomputeUserStats(tx, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[EVENTS] purge %s failed: %v", event.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "purge failed"})
	}

	log.Printf("[EVENTS] purged %s (%d accounts rebuilt)", event.Name, len(affectedUsers))
	return c.JSON(fiber.Map{"message": "event purged", "stats_rebuilt": len(affectedUsers)})
}
