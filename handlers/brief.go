// handlers/brief.go
package handlers

import (
	"errors"

	"erp-matcher/middleware"
	"erp-matcher/models"
	"erp-matcher/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupBriefRoutes(app *fiber.App, briefService *services.BriefService, matchService *services.MatchService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())
	clientGroup := securedGroup.Group("/s/briefs", middleware.RequireRole(middleware.RoleClient))

	clientGroup.Post("/", func(c *fiber.Ctx) error {
		clientID := c.Locals("user_id").(string)

		type Req struct {
			Title       string   `json:"title" validate:"required"`
			Modules     []string `json:"modules"`
			Industry    string   `json:"industry"`
			Budget      int64    `json:"budget" validate:"min=0"`
			Region      string   `json:"region"`
			CompanySize string   `json:"company_size"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
		}

		brief, err := briefService.CreateBrief(clientID, &models.Brief{
			Title:       req.Title,
			Modules:     models.EncodeStringList(req.Modules),
			Industry:    req.Industry,
			Budget:      req.Budget,
			Region:      req.Region,
			CompanySize: req.CompanySize,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create brief",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(brief)
	})

	clientGroup.Get("/", func(c *fiber.Ctx) error {
		clientID := c.Locals("user_id").(string)
		briefs, err := briefService.ListForClient(clientID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list briefs",
				"cause": err.Error(),
			})
		}
		return c.JSON(briefs)
	})

	// Score the brief against the vetted directory and return all its
	// matches, best first. Safe to call repeatedly, existing pairs are kept.
	clientGroup.Get("/:id/matches", func(c *fiber.Ctx) error {
		clientID := c.Locals("user_id").(string)
		briefID := c.Params("id")

		brief, err := briefService.GetBrief(briefID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "brief not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load brief",
				"cause": err.Error(),
			})
		}
		if brief.ClientID != clientID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your brief"})
		}

		if _, err := matchService.GenerateMatchesForBrief(briefID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to generate matches",
				"cause": err.Error(),
			})
		}

		matches, err := matchService.ListForClient(clientID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list matches",
				"cause": err.Error(),
			})
		}

		// Only this brief's matches, with decoded score details
		var response []fiber.Map
		for _, m := range matches {
			if m.BriefID != briefID {
				continue
			}
			response = append(response, fiber.Map{
				"match":           m,
				"score_breakdown": m.BreakdownMap(),
				"reasons":         m.ReasonList(),
			})
		}
		return c.JSON(response)
	})

	clientGroup.Post("/:id/close", func(c *fiber.Ctx) error {
		clientID := c.Locals("user_id").(string)
		if err := briefService.CloseBrief(c.Params("id"), clientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "brief not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to close brief",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "brief closed"})
	})
}
