package services

import (
	"context"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/VinayBibyan/Donation-Network/internal/repository"
)

type ProfileUpdateInput struct {
	Name     string
	Location string
	Image    *ImageUpload
}

type ProfileService struct {
	users     repository.UserStore
	storage   StorageService
	sanitizer *TextSanitizer
}

func NewProfileService(users repository.UserStore, storage StorageService, sanitizer *TextSanitizer) *ProfileService {
	return &ProfileService{
		users:     users,
		storage:   storage,
		sanitizer: sanitizer,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fromStore(err)
	}
	return user, nil
}

// UpdateProfile changes name, location and avatar. Empty values keep the
// stored ones.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fromStore(err)
	}

	user.Name = keep(s.sanitizer.Clean(input.Name), user.Name)
	user.Location = keep(s.sanitizer.Clean(input.Location), user.Location)

	previousImage := ""
	if input.Image != nil {
		imageURL, err := storeImage(ctx, s.storage, input.Image, "avatars")
		if err != nil {
			return nil, err
		}
		previousImage = user.Image
		user.Image = imageURL
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fromStore(err)
	}
	if previousImage != "" && s.storage != nil {
		_ = s.storage.DeleteFile(ctx, previousImage)
	}

	return user, nil
}

func (s *ProfileService) ListUsers(ctx context.Context) ([]models.PublicProfile, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.PublicProfile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.Public())
	}
	return profiles, nil
}
