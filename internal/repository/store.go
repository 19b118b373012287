package repository

import (
	"context"
	"errors"
	"time"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

// ListingStore persists one listing kind. List returns newest first.
type ListingStore interface {
	Kind() models.ListingKind
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id string) error
}

type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	// ListForUser returns every message the user sent or received, oldest first.
	ListForUser(ctx context.Context, userID string) ([]models.Message, error)
	// ReadThread marks all unread partner->user messages read and then returns
	// the two-party thread oldest first. Marking before reading guarantees that
	// every message flipped to read is part of the returned thread.
	ReadThread(ctx context.Context, userID, partnerID string) ([]models.Message, error)
}

// Store bundles the stores of one datastore backend.
type Store struct {
	Users    UserStore
	Items    ListingStore
	Needs    ListingStore
	Messages MessageStore

	closeFn func(ctx context.Context) error
}

func (s *Store) Listings(kind models.ListingKind) ListingStore {
	if kind.Name == models.NeedKind.Name {
		return s.Needs
	}
	return s.Items
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	return s.closeFn(ctx)
}

// newID returns a time-ordered UUIDv7. Ids generated by one process increase
// strictly, so they break creation-time ties in insertion order.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// now is truncated to milliseconds, the coarsest precision any backend keeps,
// so that ordering is identical before and after a round trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
