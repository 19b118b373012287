package services

import (
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/VinayBibyan/Donation-Network/internal/repository"
)

const MaxMessageLength = 2000

type chatUserReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

type ChatService struct {
	messages  repository.MessageStore
	users     chatUserReader
	sanitizer *TextSanitizer
	events    EventRecorder
}

func NewChatService(messages repository.MessageStore, users chatUserReader, sanitizer *TextSanitizer, events EventRecorder) *ChatService {
	return &ChatService{
		messages:  messages,
		users:     users,
		sanitizer: sanitizer,
		events:    events,
	}
}

// DeriveConversations groups the messages involving userID by partner.
// Each summary carries the latest message between the pair and the number of
// unread partner->user messages. Summaries are ordered by last message time,
// newest first, with ties broken by partner id. Messages between equal
// timestamps resolve to the one that appears later in the input.
func DeriveConversations(userID string, messages []models.Message, profiles map[string]models.User) []models.ConversationSummary {
	type conversation struct {
		partnerID string
		last      models.Message
		unread    int
	}

	byPartner := make(map[string]*conversation)
	order := make([]string, 0)

	for _, message := range messages {
		var partnerID string
		switch userID {
		case message.SenderID:
			partnerID = message.RecipientID
		case message.RecipientID:
			partnerID = message.SenderID
		default:
			continue
		}
		if partnerID == userID {
			continue
		}

		conv, ok := byPartner[partnerID]
		if !ok {
			conv = &conversation{partnerID: partnerID, last: message}
			byPartner[partnerID] = conv
			order = append(order, partnerID)
		} else if !message.CreatedAt.Before(conv.last.CreatedAt) {
			conv.last = message
		}

		if message.SenderID == partnerID && !message.Read {
			conv.unread++
		}
	}

	summaries := make([]models.ConversationSummary, 0, len(order))
	for _, partnerID := range order {
		conv := byPartner[partnerID]

		partner := models.PublicProfile{ID: partnerID}
		if profile, ok := profiles[partnerID]; ok {
			partner = profile.Participant()
		}

		direction := models.DirectionThem
		if conv.last.SenderID == userID {
			direction = models.DirectionMe
		}

		summaries = append(summaries, models.ConversationSummary{
			User: partner,
			LastMessage: models.LastMessage{
				Content:   conv.last.Content,
				CreatedAt: conv.last.CreatedAt,
				Sender:    direction,
			},
			UnreadCount: conv.unread,
		})
	}

	slices.SortStableFunc(summaries, func(a, b models.ConversationSummary) int {
		if c := b.LastMessage.CreatedAt.Compare(a.LastMessage.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.User.ID, b.User.ID)
	})

	return summaries
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	messages, err := s.messages.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	partnerIDs := make([]string, 0)
	for _, message := range messages {
		partnerID := message.SenderID
		if partnerID == userID {
			partnerID = message.RecipientID
		}
		if !slices.Contains(partnerIDs, partnerID) {
			partnerIDs = append(partnerIDs, partnerID)
		}
	}

	profiles, err := s.users.GetByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}

	return DeriveConversations(userID, messages, profiles), nil
}

// GetThread returns the conversation with partnerID oldest first and marks
// every unread message from the partner as read.
func (s *ChatService) GetThread(ctx context.Context, userID, partnerID string) ([]models.Message, error) {
	partner, err := s.users.GetByID(ctx, partnerID)
	if err != nil {
		return nil, fromStore(err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fromStore(err)
	}

	messages, err := s.messages.ReadThread(ctx, userID, partnerID)
	if err != nil {
		return nil, err
	}

	me := user.Participant()
	them := partner.Participant()
	for i := range messages {
		if messages[i].SenderID == userID {
			messages[i].Sender, messages[i].Recipient = &me, &them
		} else {
			messages[i].Sender, messages[i].Recipient = &them, &me
		}
	}

	return messages, nil
}

func (s *ChatService) SendMessage(ctx context.Context, senderID, recipientID, content string) (*models.Message, error) {
	body := s.sanitizer.Clean(content)
	if body == "" {
		return nil, invalid("Message content is required")
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, invalid("Message content must be at most %d characters", MaxMessageLength)
	}
	if senderID == recipientID {
		return nil, invalid("You cannot send a message to yourself")
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, fromStore(err)
	}
	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, fromStore(err)
	}

	message := &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     body,
		Read:        false,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.MessageSent()
	}

	from := sender.Participant()
	to := recipient.Participant()
	message.Sender = &from
	message.Recipient = &to

	return message, nil
}
