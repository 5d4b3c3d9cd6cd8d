package middleware

import (
	"errors"
	"strings"

	"ufc-picks/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// Claims is the payload signed into access tokens. Subject carries the user
// ID; the admin flag is informational only — authorization always re-reads
// the user row so revoked roles take effect immediately.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Auth validates the Bearer token, loads the account and stores its identity
// in the request context under "user_id", "is_admin" and "is_owner".
func Auth(db *gorm.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or invalid authorization header"})
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}
		if claims.Subject == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token missing subject"})
		}

		var user models.User
		if err := db.First(&user, "id = ?", claims.Subject).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "account no longer exists"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		if !user.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account is deactivated"})
		}

		c.Locals("user_id", user.ID)
		c.Locals("is_admin", user.IsAdmin)
		c.Locals("is_owner", user.IsOwner)

		return c.Next()
	}
}

// UserID reads the authenticated user's ID set by Auth. Empty when the route
// was not behind the auth middleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// IsAdmin reports whether the authenticated user holds the admin flag.
func IsAdmin(c *fiber.Ctx) bool {
	v, _ := c.Locals("is_admin").(bool)
	return v
}

// IsOwner reports whether the authenticated user holds the owner flag.
func IsOwner(c *fiber.Ctx) bool {
	v, _ := c.Locals("is_owner").(bool)
	return v
}
