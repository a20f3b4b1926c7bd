// handlers/gamification.go
package handlers

import (
	"erp-matcher/middleware"
	"erp-matcher/models"
	"erp-matcher/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGamificationRoutes(
	app *fiber.App,
	gamificationService *services.GamificationService,
	notificationService *services.NotificationService,
) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// Current stats snapshot, with the catalog joined in for display
	securedGroup.Get("/s/gamification", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		role := c.Locals("user_role").(string)

		stats := gamificationService.Initialize(c.Context(), models.GamificationKey(role, userID))

		var achievements []fiber.Map
		for _, a := range models.AchievementCatalog {
			state := stats.Achievements[a.ID]
			achievements = append(achievements, fiber.Map{
				"id":          a.ID,
				"name":        a.Name,
				"description": a.Description,
				"icon":        a.Icon,
				"points":      a.Points,
				"unlocked":    state.Unlocked,
				"unlocked_at": state.UnlockedAt,
			})
		}

		return c.JSON(fiber.Map{
			"total_swipes":   stats.TotalSwipes,
			"total_likes":    stats.TotalLikes,
			"total_matches":  stats.TotalMatches,
			"current_streak": stats.CurrentStreak,
			"total_points":   stats.TotalPoints,
			"achievements":   achievements,
		})
	})

	// Standalone swipe counter for browse-mode swipes that have no stored
	// match card behind them
	securedGroup.Post("/s/swipes", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		role := c.Locals("user_role").(string)

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

		key := models.GamificationKey(role, userID)
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
			notificationService.AchievementUnlocked(userID, a)
		}

		return c.JSON(fiber.Map{
			"stats":          stats,
			"newly_unlocked": newlyUnlocked,
		})
	})
}
