package services

import (
	"errors"
	"log"
	"strings"

	"ufc-picks/middleware"
	"ufc-picks/models"
	"ufc-picks/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// ListUsers returns a paginated admin view of accounts with optional search
// and status filter.
func (s *UserService) ListUsers(c *fiber.Ctx) error {
	page, limit, offset := utils.ParsePagination(c, 20, 100)
	q := strings.TrimSpace(c.Query("q"))
	status := c.Query("status") // "", "active", "inactive"

	db := s.DB.Model(&models.User{})
	if q != "" {
		term := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(display_name) LIKE ?", term, term, term)
	}
	switch status {
	case "active":
		db = db.Where("is_active = ?", true)
	case "inactive":
		db = db.Where("is_active = ?", false)
	}

	var total int64
	db.Count(&total)

	var users []models.User
	if err := db.Preload("Stats").
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch users"})
	}

	return c.JSON(fiber.Map{
		"users":       users,
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": utils.TotalPages(total, limit),
	})
}

// roleChangeAllowed is the single policy check consulted before any role or
// status mutation. It guards the owner from non-owners and keeps at least one
// active admin in the system.
func (s *UserService) roleChangeAllowed(tx *gorm.DB, actorIsOwner bool, target *models.User, removingAdmin, deactivating bool) error {
	if target.IsOwner && !actorIsOwner {
		return errors.New("only the owner can modify the owner account")
	}
	if target.IsAdmin && (removingAdmin || deactivating) {
		var activeAdmins int64
		if err := tx.Model(&models.User{}).
			Where("is_admin = ? AND is_active = ? AND id <> ?", true, true, target.ID).
			Count(&activeAdmins).Error; err != nil {
			return err
		}
		if activeAdmins == 0 {
			return errors.New("cannot remove the last active admin")
		}
	}
	return nil
}

// UpdateRole grants or revokes the admin flag on an account.
func (s *UserService) UpdateRole(c *fiber.Ctx) error {
	type Req struct {
		IsAdmin *bool `json:"is_admin"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.IsAdmin == nil {
		return c.Status(400).JSON(fiber.Map{"error": "is_admin is required"})
	}

	var target models.User
	if err := s.DB.First(&target, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	if target.IsAdmin == *req.IsAdmin {
		return c.JSON(target)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.roleChangeAllowed(tx, middleware.IsOwner(c), &target, !*req.IsAdmin, false); err != nil {
			return err
		}
		return tx.Model(&target).Update("is_admin", *req.IsAdmin).Error
	})
	if err != nil {
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("[ADMIN] %s admin=%t (by %s)", target.Username, *req.IsAdmin, middleware.UserID(c))
	target.IsAdmin = *req.IsAdmin
	return c.JSON(target)
}

// UpdateStatus activates or deactivates an account. Deactivation does not
// touch the account's picks or stats; it only blocks login and hides the
// account from the leaderboard.
func (s *UserService) UpdateStatus(c *fiber.Ctx) error {
	type Req struct {
		IsActive *bool `json:"is_active"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.IsActive == nil {
		return c.Status(400).JSON(fiber.Map{"error": "is_active is required"})
	}

	var target models.User
	if err := s.DB.First(&target, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	if target.IsActive == *req.IsActive {
		return c.JSON(target)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.roleChangeAllowed(tx, middleware.IsOwner(c), &target, false, !*req.IsActive); err != nil {
			return err
		}
		return tx.Model(&target).Update("is_active", *req.IsActive).Error
	})
	if err != nil {
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("[ADMIN] %s active=%t (by %s)", target.Username, *req.IsActive, middleware.UserID(c))
	target.IsActive = *req.IsActive
	return c.JSON(target)
}

// DeleteUser hard-deletes a deactivated, non-owner account together with its
// pick sets, pick details and stats row. This is the orphan-cleanup path; the
// user-visible removal is deactivation.
func (s *UserService) DeleteUser(c *fiber.Ctx) error {
	var target models.User
	if err := s.DB.First(&target, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	if target.IsOwner {
		return c.Status(403).JSON(fiber.Map{"error": "the owner account cannot be deleted"})
	}
	if target.IsActive {
		return c.Status(400).JSON(fiber.Map{"error": "deactivate the account before deleting it"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var setIDs []string
		if err := tx.Model(&models.PickSet{}).Where("user_id = ?", target.ID).Pluck("id", &setIDs).Error; err != nil {
			return err
		}
		if len(setIDs) > 0 {
			if err := tx.Where("pick_set_id IN ?", setIDs).Delete(&models.PickDetail{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", target.ID).Delete(&models.PickSet{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", target.ID).Delete(&models.UserStats{}).Error; err != nil {
			return err
		}
		return tx.Delete(&target).Error
	})
	if err != nil {
		log.Printf("[ADMIN] delete user %s failed: %v", target.Username, err)
		return c.Status(500).JSON(fiber.Map{"error": "delete failed"})
	}

	log.Printf("[ADMIN] deleted user %s (by %s)", target.Username, middleware.UserID(c))
	return c.JSON(fiber.Map{"message": "user deleted"})
}
