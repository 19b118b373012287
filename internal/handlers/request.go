package handlers

import (
	"mime/multipart"
	"strings"

	"github.com/VinayBibyan/Donation-Network/internal/services"
	"github.com/gofiber/fiber/v2"
)

const imageField = "image"

var errInvalidBody = &services.ValidationError{Message: "Invalid request body"}

func actorID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("user_id").(string)
	return userID, ok && userID != ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(string(c.Request().Header.ContentType())), fiber.MIMEMultipartForm)
}

func noop() {}

// formImage returns the optional image part of a multipart request and a
// cleanup func that is always safe to call.
func formImage(c *fiber.Ctx, maxBytes int) (*services.ImageUpload, func(), error) {
	if !isMultipart(c) {
		return nil, noop, nil
	}

	header, err := c.FormFile(imageField)
	if err != nil {
		// no file part
		return nil, noop, nil
	}
	return openImage(header, maxBytes)
}

func openImage(header *multipart.FileHeader, maxBytes int) (*services.ImageUpload, func(), error) {
	if header.Size <= 0 {
		return nil, noop, &services.ValidationError{Message: "Image file is empty"}
	}
	if maxBytes > 0 && header.Size > int64(maxBytes) {
		return nil, noop, &services.ValidationError{Message: "Image file is too large"}
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, err
	}

	upload := &services.ImageUpload{
		Filename: header.Filename,
		Content:  file,
	}
	return upload, func() { _ = file.Close() }, nil
}
