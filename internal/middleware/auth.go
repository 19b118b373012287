package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/VinayBibyan/Donation-Network/internal/repository"
	"github.com/VinayBibyan/Donation-Network/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type userLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AuthRequired validates the bearer token and stores the caller's id in
// c.Locals("user_id"). When users is set, tokens of deleted accounts are
// rejected as well. Lookup failures other than a missing user are returned
// to the app error handler.
func AuthRequired(secret string, users userLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(parts[1], secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		if users != nil {
			if _, err := users.GetByID(c.Context(), claims.UserID); err != nil {
				if !errors.Is(err, repository.ErrNotFound) {
					return err
				}
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Not authorized, user not found",
				})
			}
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("email", claims.Email)

		return c.Next()
	}
}
