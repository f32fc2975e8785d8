package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// successResponse renders the uniform success envelope: {"success":true}
// merged with the handler's payload.
func successResponse(c *fiber.Ctx, status int, data fiber.Map) error {
	payload := fiber.Map{"success": true}
	for k, v := range data {
		payload[k] = v
	}
	return c.Status(status).JSON(payload)
}

// errorResponse renders the uniform error envelope. The message is what the
// client sees; causes belong in the server log, not here.
func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
