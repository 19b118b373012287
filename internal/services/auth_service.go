package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/VinayBibyan/Donation-Network/internal/repository"
	"github.com/VinayBibyan/Donation-Network/pkg/utils"
)

const MinPasswordLength = 6

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Location string
	Image    *ImageUpload
}

// Session is a user together with a freshly issued bearer token.
type Session struct {
	User  models.User
	Token string
}

type AuthService struct {
	users     repository.UserStore
	storage   StorageService
	sanitizer *TextSanitizer
	secret    string
	tokenTTL  time.Duration
}

func NewAuthService(users repository.UserStore, storage StorageService, sanitizer *TextSanitizer, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		storage:   storage,
		sanitizer: sanitizer,
		secret:    secret,
		tokenTTL:  tokenTTL,
	}
}

func normalizeEmail(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid("Email is required")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return "", invalid("Email is invalid")
	}
	return strings.ToLower(addr.Address), nil
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	name := s.sanitizer.Clean(input.Name)
	if name == "" {
		return nil, invalid("Name is required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < MinPasswordLength {
		return nil, invalid("Password must be at least %d characters", MinPasswordLength)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Location:     s.sanitizer.Clean(input.Location),
	}
	if input.Image != nil {
		imageURL, err := storeImage(ctx, s.storage, input.Image, "avatars")
		if err != nil {
			return nil, err
		}
		user.Image = imageURL
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fromStore(err)
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, err := utils.GenerateToken(user.ID, user.Email, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{User: *user, Token: token}, nil
}
