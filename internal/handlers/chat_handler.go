package handlers

import (
	"context"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/gofiber/fiber/v2"
)

type chatApplicationService interface {
	ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	GetThread(ctx context.Context, userID, partnerID string) ([]models.Message, error)
	SendMessage(ctx context.Context, senderID, recipientID, content string) (*models.Message, error)
}

type ChatHandler struct {
	*ErrorResponder
	service chatApplicationService
}

type sendMessageRequest struct {
	Content string `json:"content" form:"content"`
}

func NewChatHandler(service chatApplicationService, responder *ErrorResponder) *ChatHandler {
	return &ChatHandler{
		ErrorResponder: responder,
		service:        service,
	}
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	conversations, err := h.service.ListConversations(c.Context(), userID)
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}
	if conversations == nil {
		conversations = []models.ConversationSummary{}
	}

	return c.JSON(conversations)
}

func (h *ChatHandler) GetThread(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	messages, err := h.service.GetThread(c.Context(), userID, c.Params("userId"))
	if err != nil {
		return h.mapServiceError(c, err, "User not found")
	}
	if messages == nil {
		messages = []models.Message{}
	}

	return c.JSON(messages)
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	message, err := h.service.SendMessage(c.Context(), userID, c.Params("userId"), req.Content)
	if err != nil {
		return h.mapServiceError(c, err, "Recipient not found")
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}
