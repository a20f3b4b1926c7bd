// handlers/partner.go
package handlers

import (
	"errors"
	"strconv"

	"erp-matcher/middleware"
	"erp-matcher/models"
	"erp-matcher/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupPartnerRoutes(app *fiber.App, partnerService *services.PartnerService) {
	// Public directory
	app.Get("/partners", func(c *fiber.Ctx) error {
		query := c.Query("q", "")
		limit, _ := strconv.Atoi(c.Query("limit", "50"))

		partners, err := partnerService.Search(query, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "search failed",
				"cause": err.Error(),
			})
		}

		// Public summary only; budget bands stay private to matching
		type PartnerSummary struct {
			ID          string   `json:"id"`
			CompanyName string   `json:"company_name"`
			Slug        string   `json:"slug"`
			LogoURL     string   `json:"logo_url"`
			Industries  []string `json:"industries"`
			Regions     []string `json:"regions"`
			Rating      float64  `json:"rating"`
		}
		res := make([]PartnerSummary, len(partners))
		for i, p := range partners {
			res[i] = PartnerSummary{
				ID:          p.ID,
				CompanyName: p.CompanyName,
				Slug:        p.Slug,
				LogoURL:     p.LogoURL,
				Industries:  p.IndustryList(),
				Regions:     p.RegionList(),
				Rating:      p.Rating,
			}
		}
		return c.JSON(res)
	})

	app.Get("/partners/:slug", func(c *fiber.Ctx) error {
		partner, err := partnerService.GetBySlug(c.Params("slug"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "partner not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load partner",
				"cause": err.Error(),
			})
		}
		return c.JSON(partner)
	})

	// Partner self-service
	securedGroup := app.Group("/", middleware.UserContextMiddleware())
	partnerGroup := securedGroup.Group("/s/partners", middleware.RequireRole(middleware.RolePartner))

	partnerGroup.Get("/me", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		partner, err := partnerService.GetByUser(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no partner profile yet"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load profile",
				"cause": err.Error(),
			})
		}
		return c.JSON(partner)
	})

	partnerGroup.Post("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			CompanyName string   `json:"company_name" validate:"required"`
			Description string   `json:"description"`
			Modules     []string `json:"modules"`
			Industries  []string `json:"industries"`
			Regions     []string `json:"regions"`
			MinBudget   int64    `json:"min_budget" validate:"min=0"`
			MaxBudget   int64    `json:"max_budget" validate:"min=0"`
			CompanySize string   `json:"company_size"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.CompanyName == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "company_name is required"})
		}

		partner, err := partnerService.UpsertProfile(userID, &models.Partner{
			CompanyName: req.CompanyName,
			Description: req.Description,
			Modules:     models.EncodeStringList(req.Modules),
			Industries:  models.EncodeStringList(req.Industries),
			Regions:     models.EncodeStringList(req.Regions),
			MinBudget:   req.MinBudget,
			MaxBudget:   req.MaxBudget,
			CompanySize: req.CompanySize,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to save profile",
				"cause": err.Error(),
			})
		}
		return c.JSON(partner)
	})

	partnerGroup.Post("/logo", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		fileHeader, err := c.FormFile("logo")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "logo file is required",
				"cause": err.Error(),
			})
		}

		partner, err := partnerService.UploadLogo(userID, fileHeader)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no partner profile yet"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "logo upload failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(partner)
	})
}
