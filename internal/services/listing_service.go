package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/VinayBibyan/Donation-Network/internal/imaging"
	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/VinayBibyan/Donation-Network/internal/repository"
	"github.com/google/uuid"
)

// EventRecorder receives domain events for metrics. A nil recorder is valid.
type EventRecorder interface {
	ListingCreated(kind string)
	MessageSent()
}

type profileLookup interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// ImageUpload is an image received with a create or update request.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

type ListingInput struct {
	Title       string
	Description string
	Category    string
	Facet       string
	Location    string
	Open        *bool
	Image       *ImageUpload
}

type ListingServiceOptions struct {
	Storage          StorageService
	Sanitizer        *TextSanitizer
	PlaceholderImage string
	Events           EventRecorder
}

// ListingService serves one listing kind. Items and needs run through the
// same code with a different models.ListingKind.
type ListingService struct {
	kind             models.ListingKind
	listings         repository.ListingStore
	users            profileLookup
	storage          StorageService
	sanitizer        *TextSanitizer
	placeholderImage string
	events           EventRecorder
}

func NewListingService(listings repository.ListingStore, users profileLookup, opts ListingServiceOptions) *ListingService {
	return &ListingService{
		kind:             listings.Kind(),
		listings:         listings,
		users:            users,
		storage:          opts.Storage,
		sanitizer:        opts.Sanitizer,
		placeholderImage: opts.PlaceholderImage,
		events:           opts.Events,
	}
}

func (s *ListingService) Kind() models.ListingKind {
	return s.kind
}

// List runs the public query: open listings only, narrowed by the optional
// category, facet and search values. Facet values outside the enumeration
// match nothing.
func (s *ListingService) List(ctx context.Context, category, facet, search string) ([]models.Listing, error) {
	filter := models.NewListingFilter(category, facet, search)
	if filter.Facet != "" && !s.kind.ValidFacet(filter.Facet) {
		return []models.Listing{}, nil
	}
	return s.query(ctx, filter)
}

// ListMine returns every listing of the caller regardless of its status.
func (s *ListingService) ListMine(ctx context.Context, actorID string) ([]models.Listing, error) {
	return s.query(ctx, models.ListingFilter{OwnerID: actorID})
}

func (s *ListingService) query(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	listings, err := s.listings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.attachOwners(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, fromStore(err)
	}
	one := []models.Listing{*listing}
	if err := s.attachOwners(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// attachOwners joins the public owner profile onto each listing with one
// batched lookup.
func (s *ListingService) attachOwners(ctx context.Context, listings []models.Listing) error {
	if len(listings) == 0 || s.users == nil {
		return nil
	}

	ids := make([]string, 0, len(listings))
	seen := make(map[string]bool, len(listings))
	for _, l := range listings {
		if !seen[l.OwnerID] {
			seen[l.OwnerID] = true
			ids = append(ids, l.OwnerID)
		}
	}

	owners, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range listings {
		if owner, ok := owners[listings[i].OwnerID]; ok {
			profile := owner.Public()
			listings[i].Owner = &profile
		}
	}
	return nil
}

func (s *ListingService) Create(ctx context.Context, actorID string, input ListingInput) (*models.Listing, error) {
	listing := models.Listing{
		Kind:        s.kind,
		Title:       s.clean(input.Title),
		Description: s.clean(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Facet:       strings.TrimSpace(input.Facet),
		Location:    s.clean(input.Location),
		OwnerID:     actorID,
		Open:        true,
	}

	switch {
	case listing.Title == "":
		return nil, invalid("Title is required")
	case listing.Description == "":
		return nil, invalid("Description is required")
	case listing.Category == "":
		return nil, invalid("Category is required")
	case listing.Facet == "":
		return nil, invalid("%s is required", capitalize(s.kind.FacetField))
	case !s.kind.ValidFacet(listing.Facet):
		return nil, invalid("Invalid %s: %s", s.kind.FacetField, listing.Facet)
	}

	listing.Image = s.placeholderImage
	if input.Image != nil {
		imageURL, err := s.storeImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		listing.Image = imageURL
	}

	if err := s.listings.Create(ctx, &listing); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.ListingCreated(s.kind.Name)
	}

	return s.withOwner(ctx, &listing)
}

// Update applies a partial edit. Empty strings keep the stored value.
func (s *ListingService) Update(ctx context.Context, actorID, id string, input ListingInput) (*models.Listing, error) {
	listing, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if facet := strings.TrimSpace(input.Facet); facet != "" && !s.kind.ValidFacet(facet) {
		return nil, invalid("Invalid %s: %s", s.kind.FacetField, facet)
	}

	listing.Title = keep(s.clean(input.Title), listing.Title)
	listing.Description = keep(s.clean(input.Description), listing.Description)
	listing.Category = keep(strings.TrimSpace(input.Category), listing.Category)
	listing.Facet = keep(strings.TrimSpace(input.Facet), listing.Facet)
	listing.Location = keep(s.clean(input.Location), listing.Location)
	if input.Open != nil {
		listing.Open = *input.Open
	}

	previousImage := ""
	if input.Image != nil {
		imageURL, err := s.storeImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		previousImage = listing.Image
		listing.Image = imageURL
	}

	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, fromStore(err)
	}
	s.discardImage(ctx, previousImage)

	return s.withOwner(ctx, listing)
}

// SetStatus flips the availability flag of an item or the active flag of a need.
func (s *ListingService) SetStatus(ctx context.Context, actorID, id string, open bool) (*models.Listing, error) {
	listing, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	listing.Open = open
	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, fromStore(err)
	}

	return s.withOwner(ctx, listing)
}

func (s *ListingService) Delete(ctx context.Context, actorID, id string) error {
	listing, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return err
	}

	if err := s.listings.Delete(ctx, listing.ID); err != nil {
		return fromStore(err)
	}
	s.discardImage(ctx, listing.Image)
	return nil
}

// loadOwned fetches a listing and runs the ownership guard before any write.
func (s *ListingService) loadOwned(ctx context.Context, actorID, id string) (*models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err := authorizeOwner(listing, actorID); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) withOwner(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	one := []models.Listing{*listing}
	if err := s.attachOwners(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (s *ListingService) storeImage(ctx context.Context, upload *ImageUpload) (string, error) {
	return storeImage(ctx, s.storage, upload, s.kind.Name+"s")
}

// discardImage removes a replaced or orphaned upload. Failures are ignored:
// the listing write has already succeeded.
func (s *ListingService) discardImage(ctx context.Context, imageURL string) {
	if s.storage == nil || imageURL == "" || imageURL == s.placeholderImage {
		return
	}
	_ = s.storage.DeleteFile(ctx, imageURL)
}

func (s *ListingService) clean(value string) string {
	return s.sanitizer.Clean(value)
}

func storeImage(ctx context.Context, storage StorageService, upload *ImageUpload, folder string) (string, error) {
	if storage == nil {
		return "", ErrStorageUnavailable
	}

	processed, err := imaging.Process(upload.Content)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return "", invalid("Only JPEG and PNG images are allowed")
		}
		return "", err
	}

	filename := uuid.NewString() + ".jpg"
	return storage.UploadFile(ctx, bytes.NewReader(processed.Data), int64(len(processed.Data)), processed.MIME, filename, folder)
}

func keep(value, existing string) string {
	if value == "" {
		return existing
	}
	return value
}

func capitalize(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
