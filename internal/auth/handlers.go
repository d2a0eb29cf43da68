package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/device", func(c *fiber.Ctx) error {
		var req DeviceTokenRequest
		if err := c.BodyParser(&req); err != nil || req.DeviceID == "" || req.DeviceKey == "" {
			return fiber.NewError(fiber.StatusBadRequest, "device_id and device_key required")
		}
		tokens, err := svc.IssueDeviceToken(req.DeviceID, req.DeviceKey)
		switch {
		case errors.Is(err, ErrProvisioningDisabled):
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(tokens)
	})

	r.Get("/jwt/verify", func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		deviceID, err := svc.ValidateAccessToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(fiber.Map{"device_id": deviceID})
	})
}
