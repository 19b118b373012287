package handlers

import (
	"context"

	"github.com/VinayBibyan/Donation-Network/internal/services"
	"github.com/gofiber/fiber/v2"
)

type authApplicationService interface {
	Register(ctx context.Context, input services.RegisterInput) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
}

type AuthHandler struct {
	*ErrorResponder
	service        authApplicationService
	maxUploadBytes int
}

func NewAuthHandler(service authApplicationService, responder *ErrorResponder, maxUploadBytes int) *AuthHandler {
	return &AuthHandler{
		ErrorResponder: responder,
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

type registerRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Location string `json:"location" form:"location"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func sessionResponse(session *services.Session) fiber.Map {
	return fiber.Map{
		"_id":      session.User.ID,
		"name":     session.User.Name,
		"email":    session.User.Email,
		"location": session.User.Location,
		"image":    session.User.Image,
		"token":    session.Token,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	avatar, release, err := formImage(c, h.maxUploadBytes)
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}
	defer release()

	session, err := h.service.Register(c.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Location: req.Location,
		Image:    avatar,
	})
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}

	return c.Status(fiber.StatusCreated).JSON(sessionResponse(session))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}

	return c.JSON(sessionResponse(session))
}
