package handlers

import (
	"context"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/VinayBibyan/Donation-Network/internal/services"
	"github.com/gofiber/fiber/v2"
)

type profileApplicationService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, input services.ProfileUpdateInput) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.PublicProfile, error)
}

type ProfileHandler struct {
	*ErrorResponder
	service        profileApplicationService
	maxUploadBytes int
}

func NewProfileHandler(service profileApplicationService, responder *ErrorResponder, maxUploadBytes int) *ProfileHandler {
	return &ProfileHandler{
		ErrorResponder: responder,
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

type updateProfileRequest struct {
	Name     string `json:"name" form:"name"`
	Location string `json:"location" form:"location"`
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.service.GetProfile(c.Context(), userID)
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}

	return c.JSON(user)
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	avatar, release, err := formImage(c, h.maxUploadBytes)
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}
	defer release()

	user, err := h.service.UpdateProfile(c.Context(), userID, services.ProfileUpdateInput{
		Name:     req.Name,
		Location: req.Location,
		Image:    avatar,
	})
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}

	return c.JSON(user)
}

// UploadAvatar replaces only the profile image. Unlike UpdateProfile the
// image part is mandatory.
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	fileHeader, err := c.FormFile(imageField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
	}

	avatar, release, err := openImage(fileHeader, h.maxUploadBytes)
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}
	defer release()

	user, err := h.service.UpdateProfile(c.Context(), userID, services.ProfileUpdateInput{Image: avatar})
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}

	return c.JSON(user)
}

func (h *ProfileHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}
	if users == nil {
		users = []models.PublicProfile{}
	}

	return c.JSON(users)
}
