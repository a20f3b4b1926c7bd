package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"erp-matcher/models"
	"erp-matcher/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type matchTestEnv struct {
	app          *fiber.App
	db           *gorm.DB
	gamification *services.GamificationService
	notification *services.NotificationService
}

func newMatchTestEnv(t *testing.T) *matchTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Brief{},
		&models.Partner{},
		&models.Match{},
		&models.MatchEvent{},
		&models.Project{},
		&models.Message{},
	))

	matchService := services.NewMatchService(db, services.NewScoringService())
	gamificationService := services.NewGamificationService(services.NewMemorySnapshotStore())
	notificationService := services.NewNotificationService()
	matchService.Notifier = notificationService

	app := fiber.New()
	SetupMatchRoutes(app, matchService, gamificationService, notificationService)

	return &matchTestEnv{
		app:          app,
		db:           db,
		gamification: gamificationService,
		notification: notificationService,
	}
}

func (e *matchTestEnv) seedMatch(t *testing.T, status string) *models.Match {
	t.Helper()
	match := &models.Match{
		ID:        uuid.NewString(),
		BriefID:   uuid.NewString(),
		ClientID:  "client-1",
		PartnerID: "partner-1",
		Score:     77,
		Status:    status,
	}
	require.NoError(t, e.db.Create(match).Error)
	return match
}

func jsonRequest(method, target, userID, role string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Role", role)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRespondRoute_AcceptRecordsBothSides(t *testing.T) {
	env := newMatchTestEnv(t)
	match := env.seedMatch(t, models.MatchStatusSent)

	req := jsonRequest("POST", "/s/matches/"+match.ID+"/respond", "partner-1", "partner", fiber.Map{"accept": true})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, models.MatchStatusAccepted, body["status"])

	// Both actors' gamification snapshots counted the mutual match
	ctx := context.Background()
	partnerStats := env.gamification.Initialize(ctx, models.GamificationKey("partner", "partner-1"))
	clientStats := env.gamification.Initialize(ctx, models.GamificationKey("client", "client-1"))
	assert.EqualValues(t, 1, partnerStats.TotalMatches)
	assert.EqualValues(t, 1, clientStats.TotalMatches)
	assert.True(t, partnerStats.Achievements["matchmaker"].Unlocked)
	assert.True(t, clientStats.Achievements["matchmaker"].Unlocked)

	// Both sides were notified about the acceptance
	assert.NotEmpty(t, env.notification.Feed("client-1"))
	assert.NotEmpty(t, env.notification.Feed("partner-1"))
}

func TestRespondRoute_ReplayedAcceptCountsOnce(t *testing.T) {
	env := newMatchTestEnv(t)
	match := env.seedMatch(t, models.MatchStatusSent)

	// Retried accepts (timeouts, double taps) succeed idempotently
	for i := 0; i < 5; i++ {
		req := jsonRequest("POST", "/s/matches/"+match.ID+"/respond", "partner-1", "partner", fiber.Map{"accept": true})
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	// Gamification counted the mutual match exactly once per actor
	ctx := context.Background()
	partnerStats := env.gamification.Initialize(ctx, models.GamificationKey("partner", "partner-1"))
	clientStats := env.gamification.Initialize(ctx, models.GamificationKey("client", "client-1"))
	assert.EqualValues(t, 1, partnerStats.TotalMatches)
	assert.EqualValues(t, 1, clientStats.TotalMatches)
	assert.EqualValues(t, 1, partnerStats.CurrentStreak)
	assert.EqualValues(t, 1, clientStats.CurrentStreak)
	assert.False(t, partnerStats.Achievements["on_fire"].Unlocked)
	assert.False(t, clientStats.Achievements["on_fire"].Unlocked)
}

func TestRespondRoute_RejectedThenAcceptConflicts(t *testing.T) {
	env := newMatchTestEnv(t)
	match := env.seedMatch(t, models.MatchStatusSent)

	req := jsonRequest("POST", "/s/matches/"+match.ID+"/respond", "partner-1", "partner", fiber.Map{"accept": false})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = jsonRequest("POST", "/s/matches/"+match.ID+"/respond", "partner-1", "partner", fiber.Map{"accept": true})
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRespondRoute_ClientForbidden(t *testing.T) {
	env := newMatchTestEnv(t)
	match := env.seedMatch(t, models.MatchStatusSent)

	req := jsonRequest("POST", "/s/matches/"+match.ID+"/respond", "client-1", "client", fiber.Map{"accept": true})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestLikeRoute_CountsSwipeAndUnlocks(t *testing.T) {
	env := newMatchTestEnv(t)
	match := env.seedMatch(t, models.MatchStatusSent)

	req := jsonRequest("POST", "/s/matches/"+match.ID+"/like", "client-1", "client", fiber.Map{"liked": true})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["total_swipes"])
	assert.EqualValues(t, 1, stats["total_likes"])

	unlocked := body["newly_unlocked"].([]any)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first_swipe", unlocked[0].(map[string]any)["id"])

	// Liking never moves the lifecycle
	matchBody := body["match"].(map[string]any)
	assert.Equal(t, models.MatchStatusSent, matchBody["status"])
}

func TestEventsRoute_ParticipantsOnly(t *testing.T) {
	env := newMatchTestEnv(t)
	match := env.seedMatch(t, models.MatchStatusSent)

	req := jsonRequest("POST", "/s/matches/"+match.ID+"/respond", "partner-1", "partner", fiber.Map{"accept": true})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// A third party may not read the transition history by id
	req = jsonRequest("GET", "/s/matches/"+match.ID+"/events", "stranger-9", "client", nil)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Participants still see it
	req = jsonRequest("GET", "/s/matches/"+match.ID+"/events", "client-1", "client", nil)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(raw, &events))
	require.Len(t, events, 1)
	assert.Equal(t, models.MatchStatusAccepted, events[0]["to_status"])
}

func TestSecuredRoutes_RequireGatewayHeaders(t *testing.T) {
	env := newMatchTestEnv(t)
	match := env.seedMatch(t, models.MatchStatusSent)

	req := jsonRequest("POST", "/s/matches/"+match.ID+"/like", "", "", fiber.Map{"liked": true})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMessagesRoute_OpenOnlyAfterAcceptance(t *testing.T) {
	env := newMatchTestEnv(t)
	match := env.seedMatch(t, models.MatchStatusSent)

	req := jsonRequest("POST", "/s/matches/"+match.ID+"/messages", "client-1", "client", fiber.Map{"body": "hello"})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	require.NoError(t, env.db.Model(&models.Match{}).
		Where("id = ?", match.ID).
		Update("status", models.MatchStatusAccepted).Error)

	req = jsonRequest("POST", "/s/matches/"+match.ID+"/messages", "client-1", "client", fiber.Map{"body": "hello"})
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	req = jsonRequest("GET", "/s/matches/"+match.ID+"/messages", "partner-1", "partner", nil)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var messages []map[string]any
	require.NoError(t, json.Unmarshal(raw, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0]["body"])
}
