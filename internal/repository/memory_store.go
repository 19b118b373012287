package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/VinayBibyan/Donation-Network/internal/models"
)

// memoryData is shared by the in-process stores. Slices keep insertion
// order, which doubles as creation order.
type memoryData struct {
	mu       sync.RWMutex
	users    []models.User
	listings map[string][]models.Listing
	messages []models.Message
}

// NewMemoryStore returns stores that live in process memory. They back the
// service tests and DATASTORE=memory.
func NewMemoryStore() *Store {
	data := &memoryData{listings: make(map[string][]models.Listing)}
	return &Store{
		Users:    &memoryUserStore{data: data},
		Items:    &memoryListingStore{data: data, kind: models.ItemKind},
		Needs:    &memoryListingStore{data: data, kind: models.NeedKind},
		Messages: &memoryMessageStore{data: data},
	}
}

type memoryUserStore struct {
	data *memoryData
}

func (s *memoryUserStore) Create(_ context.Context, user *models.User) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	for _, existing := range s.data.users {
		if existing.Email == user.Email {
			return ErrDuplicate
		}
	}

	user.ID = newID()
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	s.data.users = append(s.data.users, *user)
	return nil
}

func (s *memoryUserStore) find(match func(models.User) bool) (*models.User, error) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	for _, user := range s.data.users {
		if match(user) {
			found := user
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id })
}

func (s *memoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *memoryUserStore) GetByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	users := make(map[string]models.User, len(ids))
	for _, user := range s.data.users {
		if slices.Contains(ids, user.ID) {
			users[user.ID] = user
		}
	}
	return users, nil
}

func (s *memoryUserStore) List(_ context.Context) ([]models.User, error) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	return slices.Clone(s.data.users), nil
}

func (s *memoryUserStore) UpdateProfile(_ context.Context, user *models.User) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	for i := range s.data.users {
		if s.data.users[i].ID == user.ID {
			user.UpdatedAt = now()
			s.data.users[i].Name = user.Name
			s.data.users[i].Location = user.Location
			s.data.users[i].Image = user.Image
			s.data.users[i].UpdatedAt = user.UpdatedAt
			return nil
		}
	}
	return ErrNotFound
}

type memoryListingStore struct {
	data *memoryData
	kind models.ListingKind
}

func (s *memoryListingStore) Kind() models.ListingKind {
	return s.kind
}

func (s *memoryListingStore) Create(_ context.Context, listing *models.Listing) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	listing.ID = newID()
	listing.Kind = s.kind
	listing.CreatedAt = now()
	listing.UpdatedAt = listing.CreatedAt

	stored := *listing
	stored.Owner = nil
	s.data.listings[s.kind.Name] = append(s.data.listings[s.kind.Name], stored)
	return nil
}

func (s *memoryListingStore) GetByID(_ context.Context, id string) (*models.Listing, error) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	for _, listing := range s.data.listings[s.kind.Name] {
		if listing.ID == id {
			found := listing
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryListingStore) List(_ context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	listings := make([]models.Listing, 0)
	for _, listing := range s.data.listings[s.kind.Name] {
		if filter.Matches(listing) {
			listings = append(listings, listing)
		}
	}
	models.SortNewestFirst(listings)
	return listings, nil
}

func (s *memoryListingStore) Update(_ context.Context, listing *models.Listing) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	stored := s.data.listings[s.kind.Name]
	for i := range stored {
		if stored[i].ID != listing.ID {
			continue
		}
		listing.UpdatedAt = now()
		stored[i].Title = listing.Title
		stored[i].Description = listing.Description
		stored[i].Category = listing.Category
		stored[i].Facet = listing.Facet
		stored[i].Image = listing.Image
		stored[i].Location = listing.Location
		stored[i].Open = listing.Open
		stored[i].UpdatedAt = listing.UpdatedAt
		return nil
	}
	return ErrNotFound
}

func (s *memoryListingStore) Delete(_ context.Context, id string) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	stored := s.data.listings[s.kind.Name]
	for i := range stored {
		if stored[i].ID == id {
			s.data.listings[s.kind.Name] = slices.Delete(stored, i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

type memoryMessageStore struct {
	data *memoryData
}

func (s *memoryMessageStore) Create(_ context.Context, message *models.Message) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	message.ID = newID()
	message.CreatedAt = now()

	stored := *message
	stored.Sender = nil
	stored.Recipient = nil
	s.data.messages = append(s.data.messages, stored)
	return nil
}

func (s *memoryMessageStore) ListForUser(_ context.Context, userID string) ([]models.Message, error) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	messages := make([]models.Message, 0)
	for _, message := range s.data.messages {
		if message.SenderID == userID || message.RecipientID == userID {
			messages = append(messages, message)
		}
	}
	return messages, nil
}

func (s *memoryMessageStore) ReadThread(_ context.Context, userID, partnerID string) ([]models.Message, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	messages := make([]models.Message, 0)
	for i := range s.data.messages {
		message := &s.data.messages[i]
		incoming := message.SenderID == partnerID && message.RecipientID == userID
		outgoing := message.SenderID == userID && message.RecipientID == partnerID
		if !incoming && !outgoing {
			continue
		}
		if incoming {
			message.Read = true
		}
		messages = append(messages, *message)
	}
	return messages, nil
}
