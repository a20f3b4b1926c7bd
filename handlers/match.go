// handlers/match.go
package handlers

import (
	"errors"

	"erp-matcher/middleware"
	"erp-matcher/models"
	"erp-matcher/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func SetupMatchRoutes(
	app *fiber.App,
	matchService *services.MatchService,
	gamificationService *services.GamificationService,
	notificationService *services.NotificationService,
) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())
	matchGroup := securedGroup.Group("/s/matches")

	matchGroup.Get("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		role := c.Locals("user_role").(string)

		var (
			matches []models.Match
			err     error
		)
		if role == middleware.RolePartner {
			matches, err = matchService.ListForPartner(userID)
		} else {
			matches, err = matchService.ListForClient(userID)
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list matches",
				"cause": err.Error(),
			})
		}
		return c.JSON(matches)
	})

	matchGroup.Get("/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		match, err := matchService.GetMatch(c.Params("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load match",
				"cause": err.Error(),
			})
		}
		if match.ClientID != userID && match.PartnerID != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your match"})
		}
		return c.JSON(fiber.Map{
			"match":           match,
			"score_breakdown": match.BreakdownMap(),
			"reasons":         match.ReasonList(),
		})
	})

	matchGroup.Get("/:id/events", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		match, err := matchService.GetMatch(c.Params("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load match",
				"cause": err.Error(),
			})
		}
		if match.ClientID != userID && match.PartnerID != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your match"})
		}

		events, err := matchService.EventsForMatch(match.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load events",
				"cause": err.Error(),
			})
		}
		return c.JSON(events)
	})

	// Client swipe on a match card. Records the like/pass signal on the match
	// (never its status) and counts the swipe for gamification.
	matchGroup.Post("/:id/like", middleware.RequireRole(middleware.RoleClient), func(c *fiber.Ctx) error {
		clientID := c.Locals("user_id").(string)

		type Req struct {
			Liked bool `json:"liked"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		match, err := matchService.ClientLike(c.Params("id"), clientID, req.Liked)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to record decision",
				"cause": err.Error(),
			})
		}

		key := models.GamificationKey(middleware.RoleClient, clientID)
		stats, err := gamificationService.RecordSwipe(c.Context(), key, req.Liked)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to record swipe",
				"cause": err.Error(),
			})
		}
		newlyUnlocked, err := gamificationService.Evaluate(c.Context(), key, stats)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to evaluate achievements",
				"cause": err.Error(),
			})
		}
		for _, a := range newlyUnlocked {
			notificationService.AchievementUnlocked(clientID, a)
		}

		return c.JSON(fiber.Map{
			"match":          match,
			"stats":          stats,
			"newly_unlocked": newlyUnlocked,
		})
	})

	matchGroup.Post("/:id/save", middleware.RequireRole(middleware.RoleClient), func(c *fiber.Ctx) error {
		clientID := c.Locals("user_id").(string)

		type Req struct {
			Saved bool `json:"saved"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		match, err := matchService.ClientSave(c.Params("id"), clientID, req.Saved)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to save match",
				"cause": err.Error(),
			})
		}
		return c.JSON(match)
	})

	// Partner accept/reject. An accepted match counts as a mutual match for
	// both actors' gamification snapshots.
	matchGroup.Post("/:id/respond", middleware.RequireRole(middleware.RolePartner), func(c *fiber.Ctx) error {
		partnerUserID := c.Locals("user_id").(string)

		type Req struct {
			Accept bool `json:"accept"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		match, transitioned, err := matchService.PartnerRespond(c.Params("id"), partnerUserID, req.Accept)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			}
			if services.IsConflict(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "match state changed",
					"cause": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to respond",
				"cause": err.Error(),
			})
		}

		// Only a real transition into accepted counts for gamification; a
		// replayed accept is a no-op and must not inflate anyone's streak
		if transitioned && match.Status == models.MatchStatusAccepted {
			for _, actor := range []struct{ role, userID string }{
				{middleware.RolePartner, match.PartnerID},
				{middleware.RoleClient, match.ClientID},
			} {
				key := models.GamificationKey(actor.role, actor.userID)
				stats, err := gamificationService.RecordMatch(c.Context(), key)
				if err != nil {
					return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
						"error": "failed to record match",
						"cause": err.Error(),
					})
				}
				newlyUnlocked, err := gamificationService.Evaluate(c.Context(), key, stats)
				if err != nil {
					return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
						"error": "failed to evaluate achievements",
						"cause": err.Error(),
					})
				}
				for _, a := range newlyUnlocked {
					notificationService.AchievementUnlocked(actor.userID, a)
				}
			}
		}

		return c.JSON(match)
	})

	// Convert an accepted match into a project
	matchGroup.Post("/:id/project", middleware.RequireRole(middleware.RoleClient), func(c *fiber.Ctx) error {
		clientID := c.Locals("user_id").(string)

		type Req struct {
			Name string `json:"name" validate:"max=255"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		project, err := matchService.CreateProject(c.Params("id"), clientID, req.Name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			}
			if services.IsConflict(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "match cannot be converted",
					"cause": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create project",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(project)
	})

	// Messaging opens once the partner accepted
	matchGroup.Post("/:id/messages", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		role := c.Locals("user_role").(string)

		type Req struct {
			Body string `json:"body" validate:"required,max=4000"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Body == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message body is required"})
		}

		match, err := matchService.GetMatch(c.Params("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load match",
				"cause": err.Error(),
			})
		}
		if match.ClientID != userID && match.PartnerID != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your match"})
		}
		if match.Status != models.MatchStatusAccepted && match.Status != models.MatchStatusConverted {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "messaging opens once the match is accepted",
			})
		}

		msg := models.Message{
			ID:         uuid.NewString(),
			MatchID:    match.ID,
			SenderID:   userID,
			SenderRole: role,
			Body:       req.Body,
		}
		if err := matchService.DB.Create(&msg).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to send message",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	})

	matchGroup.Get("/:id/messages", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		match, err := matchService.GetMatch(c.Params("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load match",
				"cause": err.Error(),
			})
		}
		if match.ClientID != userID && match.PartnerID != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your match"})
		}

		var messages []models.Message
		if err := matchService.DB.
			Where("match_id = ?", match.ID).
			Order("created_at ASC").
			Find(&messages).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load messages",
				"cause": err.Error(),
			})
		}

		// Everything from the other side is now read
		_ = matchService.DB.Model(&models.Message{}).
			Where("match_id = ? AND sender_id <> ? AND read = ?", match.ID, userID, false).
			Update("read", true).Error

		return c.JSON(messages)
	})

	// Admin: force-dispatch a suggested match without waiting for the scheduler
	adminGroup := securedGroup.Group("/s/admin")
	adminGroup.Post("/matches/:id/dispatch", func(c *fiber.Ctx) error {
		match, err := matchService.DispatchMatch(c.Params("id"), "admin")
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			}
			if services.IsConflict(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "match cannot be dispatched",
					"cause": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "dispatch failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(match)
	})
}
