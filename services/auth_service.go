package services

import (
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"ufc-picks/middleware"
	"ufc-picks/models"
	"ufc-picks/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

type AuthService struct {
	DB       *gorm.DB
	Secret   string
	TokenTTL time.Duration
}

func NewAuthService(db *gorm.DB, secret string) *AuthService {
	return &AuthService{DB: db, Secret: secret, TokenTTL: 7 * 24 * time.Hour}
}

// Register creates an account plus its stats row and returns a signed token.
// The very first account becomes owner+admin so a fresh install has an
// administrator without any out-of-band bootstrap.
func (s *AuthService) Register(c *fiber.Ctx) error {
	type Req struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !usernameRe.MatchString(req.Username) {
		return c.Status(400).JSON(fiber.Map{"error": "username must be 3-30 characters (letters, digits, underscore)", "field": "username"})
	}
	if !strings.Contains(req.Email, "@") || len(req.Email) < 5 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid email address", "field": "email"})
	}
	if len(req.Password) < 8 {
		return c.Status(400).JSON(fiber.Map{"error": "password must be at least 8 characters", "field": "password"})
	}

	var taken int64
	s.DB.Model(&models.User{}).Where("username = ? OR email = ?", req.Username, req.Email).Count(&taken)
	if taken > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "username or email already registered"})
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to hash password"})
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Username
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  displayName,
		IsActive:     true,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			user.IsAdmin = true
			user.IsOwner = true
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		// Stats row is created with the account and lives as long as it does.
		stats := models.UserStats{ID: uuid.NewString(), UserID: user.ID}
		return tx.Create(&stats).Error
	})
	if err != nil {
		log.Printf("[AUTH] register failed for %s: %v", req.Username, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create account"})
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue token"})
	}

	log.Printf("[AUTH] registered %s (owner=%t)", user.Username, user.IsOwner)
	return c.Status(201).JSON(fiber.Map{"token": token, "user": user})
}

// Login verifies credentials and returns a signed token. Deactivated accounts
// are rejected even with valid credentials.
func (s *AuthService) Login(c *fiber.Ctx) error {
	type Req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "email and password are required"})
	}

	var user models.User
	if err := s.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same message as a bad password so the response does not reveal
			// which accounts exist.
			return c.Status(401).JSON(fiber.Map{"error": "invalid credentials"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return c.Status(401).JSON(fiber.Map{"error": "invalid credentials"})
	}
	if !user.IsActive {
		return c.Status(403).JSON(fiber.Map{"error": "account is deactivated"})
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue token"})
	}
	return c.JSON(fiber.Map{"token": token, "user": user})
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
		},
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
}

// Me returns the authenticated account with its aggregate stats.
func (s *AuthService) Me(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.Preload("Stats").First(&user, "id = ?", middleware.UserID(c)).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "account not found"})
	}
	return c.JSON(user)
}

// UpdateMe updates profile fields. Email changes re-check uniqueness;
// password changes require the current password.
func (s *AuthService) UpdateMe(c *fiber.Ctx) error {
	type Req struct {
		DisplayName     *string `json:"display_name"`
		AvatarURL       *string `json:"avatar_url"`
		FavoriteFighter *string `json:"favorite_fighter"`
		Email           *string `json:"email"`
		CurrentPassword string  `json:"current_password"`
		NewPassword     string  `json:"new_password"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", middleware.UserID(c)).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "account not found"})
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return c.Status(400).JSON(fiber.Map{"error": "display_name cannot be empty", "field": "display_name"})
		}
		updates["display_name"] = name
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}
	if req.FavoriteFighter != nil {
		updates["favorite_fighter"] = strings.TrimSpace(*req.FavoriteFighter)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !strings.Contains(email, "@") || len(email) < 5 {
			return c.Status(400).JSON(fiber.Map{"error": "invalid email address", "field": "email"})
		}
		if email != user.Email {
			var taken int64
			s.DB.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&taken)
			if taken > 0 {
				return c.Status(409).JSON(fiber.Map{"error": "email already registered"})
			}
			updates["email"] = email
		}
	}
	if req.NewPassword != "" {
		if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
			return c.Status(403).JSON(fiber.Map{"error": "current password is incorrect"})
		}
		if len(req.NewPassword) < 8 {
			return c.Status(400).JSON(fiber.Map{"error": "password must be at least 8 characters", "field": "new_password"})
		}
		hash, err := utils.HashPassword(req.NewPassword)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to hash password"})
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := s.DB.Model(&user).Updates(updates).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "update failed"})
		}
	}

	s.DB.Preload("Stats").First(&user, "id = ?", user.ID)
	return c.JSON(user)
}
