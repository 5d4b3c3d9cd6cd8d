package services_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ufc-picks/handlers"
	"ufc-picks/models"
	"ufc-picks/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserStats{},
		&models.Event{},
		&models.Fight{},
		&models.PickSet{},
		&models.PickDetail{},
	))
	return db
}

// testAuth stands in for the JWT middleware: the acting user is named by the
// X-Test-User header. The real token path is covered in middleware tests.
func testAuth(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Test-User")
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing test user"})
		}
		var user models.User
		if err := db.First(&user, "id = ?", id).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown test user"})
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

// newTestApp wires the full route surface against db.
func newTestApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	auth := testAuth(db)
	handlers.SetupAuthRoutes(app, services.NewAuthService(db, "test-secret"), auth)
	handlers.SetupEventRoutes(app, services.NewEventService(db), services.NewScoringService(db), auth)
	handlers.SetupPickRoutes(app, services.NewPickService(db), auth)
	handlers.SetupLeaderboardRoutes(app, services.NewLeaderboardService(db))
	handlers.SetupAdminRoutes(app, services.NewUserService(db), services.NewScoringService(db), auth)
	return app
}

func seedUser(t *testing.T, db *gorm.DB, username string, admin, owner bool) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		DisplayName:  username,
		IsAdmin:      admin,
		IsOwner:      owner,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.UserStats{ID: uuid.NewString(), UserID: user.ID}).Error)
	return user
}

// seedEvent creates an event with fightCount fights, deadline and date
// offset from now.
func seedEvent(t *testing.T, db *gorm.DB, name string, deadlineIn, dateIn time.Duration, fightCount int) *models.Event {
	t.Helper()
	now := time.Now()
	event := &models.Event{
		ID:           uuid.NewString(),
		Name:         name,
		Slug:         uuid.NewString(),
		EventDate:    now.Add(dateIn),
		PickDeadline: now.Add(deadlineIn),
		Status:       models.EventStatusUpcoming,
		IsActive:     true,
	}
	require.NoError(t, db.Create(event).Error)
	for i := 1; i <= fightCount; i++ {
		fight := models.Fight{
			ID:           uuid.NewString(),
			EventID:      event.ID,
			FightOrder:   i,
			Fighter1Name: "Fighter A",
			Fighter2Name: "Fighter B",
		}
		require.NoError(t, db.Create(&fight).Error)
		event.Fights = append(event.Fights, fight)
	}
	return event
}

// doJSON performs a request as the given user (empty = anonymous) and decodes
// the JSON response body.
func doJSON(t *testing.T, app *fiber.App, method, path, asUser string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if asUser != "" {
		req.Header.Set("X-Test-User", asUser)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func intPtr(v int) *int { return &v }

func getPickSet(t *testing.T, db *gorm.DB, userID, eventID string) models.PickSet {
	t.Helper()
	var set models.PickSet
	require.NoError(t, db.Preload("Picks").
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&set).Error)
	return set
}

func getStats(t *testing.T, db *gorm.DB, userID string) models.UserStats {
	t.Helper()
	var stats models.UserStats
	require.NoError(t, db.Where("user_id = ?", userID).First(&stats).Error)
	return stats
}

// submitPicks posts one prediction per fight for the user.
func submitPicks(t *testing.T, app *fiber.App, event *models.Event, userID string, picks []map[string]interface{}) {
	t.Helper()
	resp, body := doJSON(t, app, "POST", "/api/events/"+event.ID+"/picks", userID,
		map[string]interface{}{"picks": picks})
	require.Equal(t, 201, resp.StatusCode, "submit picks: %v", body)
}

// postResults stamps outcomes as the admin.
func postResults(t *testing.T, app *fiber.App, event *models.Event, adminID string, results []map[string]interface{}) {
	t.Helper()
	resp, body := doJSON(t, app, "POST", "/api/events/"+event.ID+"/results", adminID,
		map[string]interface{}{"results": results})
	require.Equal(t, 200, resp.StatusCode, "post results: %v", body)
}
