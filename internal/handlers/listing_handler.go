package handlers

import (
	"context"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/VinayBibyan/Donation-Network/internal/services"
	"github.com/gofiber/fiber/v2"
)

type listingApplicationService interface {
	Kind() models.ListingKind
	List(ctx context.Context, category, facet, search string) ([]models.Listing, error)
	ListMine(ctx context.Context, actorID string) ([]models.Listing, error)
	Get(ctx context.Context, id string) (*models.Listing, error)
	Create(ctx context.Context, actorID string, input services.ListingInput) (*models.Listing, error)
	Update(ctx context.Context, actorID, id string, input services.ListingInput) (*models.Listing, error)
	SetStatus(ctx context.Context, actorID, id string, open bool) (*models.Listing, error)
	Delete(ctx context.Context, actorID, id string) error
}

// ListingHandler serves the REST surface of one listing kind. Items and needs
// share it; only the facet and status field names differ.
type ListingHandler struct {
	*ErrorResponder
	service        listingApplicationService
	kind           models.ListingKind
	maxUploadBytes int
}

func NewListingHandler(service listingApplicationService, responder *ErrorResponder, maxUploadBytes int) *ListingHandler {
	return &ListingHandler{
		ErrorResponder: responder,
		service:        service,
		kind:           service.Kind(),
		maxUploadBytes: maxUploadBytes,
	}
}

type listingRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Category    string `json:"category" form:"category"`
	Condition   string `json:"condition" form:"condition"`
	Urgency     string `json:"urgency" form:"urgency"`
	Location    string `json:"location" form:"location"`
	IsAvailable *bool  `json:"isAvailable" form:"isAvailable"`
	IsActive    *bool  `json:"isActive" form:"isActive"`
}

func (r listingRequest) facet(kind models.ListingKind) string {
	if kind.FacetField == models.NeedKind.FacetField {
		return r.Urgency
	}
	return r.Condition
}

func (r listingRequest) open(kind models.ListingKind) *bool {
	if kind.StatusField == models.NeedKind.StatusField {
		return r.IsActive
	}
	return r.IsAvailable
}

func (h *ListingHandler) notFound() string {
	return h.kind.Label + " not found"
}

func (h *ListingHandler) List(c *fiber.Ctx) error {
	listings, err := h.service.List(
		c.Context(),
		c.Query("category"),
		c.Query(h.kind.FacetField),
		c.Query("search"),
	)
	if err != nil {
		return h.mapServiceError(c, err, h.notFound())
	}

	return c.JSON(nonNilListings(listings))
}

func (h *ListingHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	listings, err := h.service.ListMine(c.Context(), userID)
	if err != nil {
		return h.mapServiceError(c, err, h.notFound())
	}

	return c.JSON(nonNilListings(listings))
}

func (h *ListingHandler) Get(c *fiber.Ctx) error {
	listing, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.mapServiceError(c, err, h.notFound())
	}

	return c.JSON(listing)
}

func (h *ListingHandler) Create(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	input, release, err := h.parseInput(c)
	if err != nil {
		return h.mapServiceError(c, err, h.notFound())
	}
	defer release()

	listing, err := h.service.Create(c.Context(), userID, input)
	if err != nil {
		return h.mapServiceError(c, err, h.notFound())
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

func (h *ListingHandler) Update(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	input, release, err := h.parseInput(c)
	if err != nil {
		return h.mapServiceError(c, err, h.notFound())
	}
	defer release()

	listing, err := h.service.Update(c.Context(), userID, c.Params("id"), input)
	if err != nil {
		return h.mapServiceError(c, err, h.notFound())
	}

	return c.JSON(listing)
}

func (h *ListingHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	var req listingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	open := req.open(h.kind)
	if open == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": h.kind.StatusField + " is required"})
	}

	listing, err := h.service.SetStatus(c.Context(), userID, c.Params("id"), *open)
	if err != nil {
		return h.mapServiceError(c, err, h.notFound())
	}

	return c.JSON(listing)
}

func (h *ListingHandler) Delete(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.service.Delete(c.Context(), userID, c.Params("id")); err != nil {
		return h.mapServiceError(c, err, h.notFound())
	}

	return c.JSON(fiber.Map{"message": h.kind.Label + " removed"})
}

// parseInput reads a JSON or multipart body together with its optional image.
func (h *ListingHandler) parseInput(c *fiber.Ctx) (services.ListingInput, func(), error) {
	var req listingRequest
	if err := c.BodyParser(&req); err != nil {
		return services.ListingInput{}, noop, errInvalidBody
	}

	image, release, err := formImage(c, h.maxUploadBytes)
	if err != nil {
		return services.ListingInput{}, noop, err
	}

	return services.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Facet:       req.facet(h.kind),
		Location:    req.Location,
		Open:        req.open(h.kind),
		Image:       image,
	}, release, nil
}

func nonNilListings(listings []models.Listing) []models.Listing {
	if listings == nil {
		return []models.Listing{}
	}
	return listings
}
