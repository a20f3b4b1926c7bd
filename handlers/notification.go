// handlers/notification.go
package handlers

import (
	"erp-matcher/middleware"
	"erp-matcher/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(app *fiber.App, notificationService *services.NotificationService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())
	notifyGroup := securedGroup.Group("/s/notifications")

	notifyGroup.Get("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		return c.JSON(notificationService.Feed(userID))
	})

	notifyGroup.Get("/unread_count", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		return c.JSON(fiber.Map{"unread": notificationService.UnreadCount(userID)})
	})

	notifyGroup.Post("/read", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		notificationService.MarkAllRead(userID)
		return c.JSON(fiber.Map{"message": "all notifications marked read"})
	})

	notifyGroup.Get("/stream", func(c *fiber.Ctx) error {
		return notificationService.StreamSSE(c)
	})
}
