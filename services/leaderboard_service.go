package services

import (
	"errors"
	"log"
	"sort"

	"ufc-picks/models"
	"ufc-picks/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// LeaderboardEntry is one ranked row. The same shape serves the global board
// (cross-event totals) and the per-event board (that event's totals).
type LeaderboardEntry struct {
	Rank            int     `json:"rank"`
	UserID          string  `json:"user_id"`
	Username        string  `json:"username"`
	DisplayName     string  `json:"display_name"`
	AvatarURL       string  `json:"avatar_url,omitempty"`
	TotalPoints     int     `json:"total_points"`
	CorrectPicks    int     `json:"correct_picks"`
	TotalPicks      int     `json:"total_picks"`
	EventsPlayed    int     `json:"events_played,omitempty"`
	BestEventPoints int     `json:"best_event_points,omitempty"`
	Accuracy        float64 `json:"accuracy"`
}

// Global ranks active accounts by total points, tie-broken by correct picks
// then username. With ?verify=true each page row is re-derived from the
// account's scored pick sets and the fresh value wins when the cached rollup
// has drifted.
func (s *LeaderboardService) Global(c *fiber.Ctx) error {
	page, limit, offset := utils.ParsePagination(c, 25, 100)
	verify := c.QueryBool("verify", false)

	base := s.DB.Model(&models.UserStats{}).
		Joins("JOIN users ON users.id = user_stats.user_id").
		Where("users.is_active = ?", true)

	var total int64
	base.Count(&total)

	var entries []LeaderboardEntry
	err := base.
		Select(`user_stats.user_id, users.username, users.display_name, users.avatar_url,
			user_stats.total_points, user_stats.correct_picks, user_stats.total_picks,
			user_stats.events_played, user_stats.best_event_points, user_stats.accuracy`).
		Order("user_stats.total_points DESC, user_stats.correct_picks DESC, users.username ASC").
		Limit(limit).Offset(offset).
		Scan(&entries).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}

	drift := 0
	if verify {
		for i := range entries {
			fresh, err := s.deriveTotals(entries[i].UserID)
			if err != nil {
				continue
			}
			if fresh.TotalPoints != entries[i].TotalPoints ||
				fresh.CorrectPicks != entries[i].CorrectPicks ||
				fresh.TotalPicks != entries[i].TotalPicks {
				log.Printf("[LEADERBOARD] drift for %s: cached %d/%d/%d, derived %d/%d/%d",
					entries[i].Username,
					entries[i].TotalPoints, entries[i].CorrectPicks, entries[i].TotalPicks,
					fresh.TotalPoints, fresh.CorrectPicks, fresh.TotalPicks)
				entries[i].TotalPoints = fresh.TotalPoints
				entries[i].CorrectPicks = fresh.CorrectPicks
				entries[i].TotalPicks = fresh.TotalPicks
				if fresh.TotalPicks > 0 {
					entries[i].Accuracy = float64(fresh.CorrectPicks) / float64(fresh.TotalPicks) * 100
				} else {
					entries[i].Accuracy = 0
				}
				drift++
			}
		}
		if drift > 0 {
			// Repaired totals can reorder the fetched rows; ranks must agree
			// with the points shown. Pages are still cut by the cached order
			// until the next reconciliation pass rewrites the cache.
			sort.SliceStable(entries, func(i, j int) bool {
				if entries[i].TotalPoints != entries[j].TotalPoints {
					return entries[i].TotalPoints > entries[j].TotalPoints
				}
				if entries[i].CorrectPicks != entries[j].CorrectPicks {
					return entries[i].CorrectPicks > entries[j].CorrectPicks
				}
				return entries[i].Username < entries[j].Username
			})
		}
	}

	for i := range entries {
		entries[i].Rank = offset + i + 1
	}

	resp := fiber.Map{
		"leaderboard": entries,
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": utils.TotalPages(total, limit),
		"has_next":    int64(page*limit) < total,
		"has_prev":    page > 1,
	}
	if verify {
		resp["verified"] = true
		resp["drifted"] = drift
	}
	return c.JSON(resp)
}

type derivedTotals struct {
	TotalPoints  int
	CorrectPicks int
	TotalPicks   int
}

// deriveTotals recomputes an account's cross-event totals from its scored
// pick sets -- the ground truth the cached rollup must agree with.
func (s *LeaderboardService) deriveTotals(userID string) (*derivedTotals, error) {
	var d derivedTotals
	err := s.DB.Model(&models.PickSet{}).
		Select(`COALESCE(SUM(total_points), 0) AS total_points,
			COALESCE(SUM(correct_picks), 0) AS correct_picks,
			COALESCE(SUM(total_picks), 0) AS total_picks`).
		Where("user_id = ? AND status = ?", userID, models.PickSetStatusScored).
		Scan(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// EventLeaderboard ranks the scored pick sets of one event.
func (s *LeaderboardService) EventLeaderboard(c *fiber.Ctx) error {
	var event models.Event
	err := s.DB.Where("id = ? OR slug = ?", c.Params("id"), c.Params("id")).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	page, limit, offset := utils.ParsePagination(c, 25, 100)

	base := s.DB.Model(&models.PickSet{}).
		Joins("JOIN users ON users.id = pick_sets.user_id").
		Where("pick_sets.event_id = ? AND pick_sets.status = ? AND users.is_active = ?",
			event.ID, models.PickSetStatusScored, true)

	var total int64
	base.Count(&total)

	var entries []LeaderboardEntry
	err = base.
		Select(`pick_sets.user_id, users.username, users.display_name, users.avatar_url,
			pick_sets.total_points, pick_sets.correct_picks, pick_sets.total_picks, pick_sets.accuracy`).
		Order("pick_sets.total_points DESC, pick_sets.correct_picks DESC, users.username ASC").
		Limit(limit).Offset(offset).
		Scan(&entries).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch event leaderboard"})
	}

	for i := range entries {
		entries[i].Rank = offset + i + 1
	}

	return c.JSON(fiber.Map{
		"event":       event,
		"leaderboard": entries,
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": utils.TotalPages(total, limit),
		"has_next":    int64(page*limit) < total,
		"has_prev":    page > 1,
	})
}

// UserRank returns one account's global rank, its stats and recent scored
// events.
func (s *LeaderboardService) UserRank(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.Preload("Stats").First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	stats := user.Stats
	if stats == nil {
		stats = &models.UserStats{UserID: user.ID}
	}

	var ahead int64
	s.DB.Model(&models.UserStats{}).
		Joins("JOIN users ON users.id = user_stats.user_id").
		Where("users.is_active = ?", true).
		Where(`user_stats.total_points > ?
			OR (user_stats.total_points = ? AND user_stats.correct_picks > ?)
			OR (user_stats.total_points = ? AND user_stats.correct_picks = ? AND users.username < ?)`,
			stats.TotalPoints,
			stats.TotalPoints, stats.CorrectPicks,
			stats.TotalPoints, stats.CorrectPicks, user.Username).
		Count(&ahead)

	var recent []models.PickSet
	s.DB.Preload("Event").
		Where("user_id = ? AND status = ?", user.ID, models.PickSetStatusScored).
		Order("scored_at DESC").
		Limit(5).
		Find(&recent)

	return c.JSON(fiber.Map{
		"user_id":       user.ID,
		"username":      user.Username,
		"rank":          ahead + 1,
		"stats":         stats,
		"recent_events": recent,
	})
}

// PlatformStats returns system-wide aggregates for the landing page.
func (s *LeaderboardService) PlatformStats(c *fiber.Ctx) error {
	var activeUsers, totalEvents, completedEvents, upcomingEvents, pickSets int64
	s.DB.Model(&models.User{}).Where("is_active = ?", true).Count(&activeUsers)
	s.DB.Model(&models.Event{}).Where("is_active = ?", true).Count(&totalEvents)
	s.DB.Model(&models.Event{}).Where("is_active = ? AND status = ?", true, models.EventStatusCompleted).Count(&completedEvents)
	s.DB.Model(&models.Event{}).Where("is_active = ? AND status = ?", true, models.EventStatusUpcoming).Count(&upcomingEvents)
	s.DB.Model(&models.PickSet{}).Where("status <> ?", models.PickSetStatusDraft).Count(&pickSets)

	var totals struct {
		Points int64
		Picks  int64
	}
	s.DB.Model(&models.PickSet{}).
		Select("COALESCE(SUM(total_points), 0) AS points, COALESCE(SUM(total_picks), 0) AS picks").
		Where("status = ?", models.PickSetStatusScored).
		Scan(&totals)

	return c.JSON(fiber.Map{
		"active_users":     activeUsers,
		"total_events":     totalEvents,
		"completed_events": completedEvents,
		"upcoming_events":  upcomingEvents,
		"pick_sets":        pickSets,
		"points_awarded":   totals.Points,
		"picks_scored":     totals.Picks,
	})
}
