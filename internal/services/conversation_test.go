package services

import (
	"testing"
	"time"

	"github.com/VinayBibyan/Donation-Network/internal/models"
)

func msg(from, to, content string, at time.Time, read bool) models.Message {
	return models.Message{SenderID: from, RecipientID: to, Content: content, CreatedAt: at, Read: read}
}

func TestDeriveConversations(t *testing.T) {
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	profiles := map[string]models.User{
		"bob":   {ID: "bob", Name: "Bob", Image: "bob.jpg", Location: "Delhi"},
		"carol": {ID: "carol", Name: "Carol"},
	}

	// natural store order is not chronological on purpose
	messages := []models.Message{
		msg("bob", "me", "is the bike still there?", base.Add(1*time.Minute), false),
		msg("me", "carol", "hi carol", base.Add(5*time.Minute), false),
		msg("me", "bob", "yes it is", base.Add(2*time.Minute), true),
		msg("bob", "me", "great, tomorrow?", base.Add(3*time.Minute), false),
		msg("carol", "me", "old read note", base, true),
		msg("bob", "carol", "not involving me", base.Add(10*time.Minute), false),
	}

	got := DeriveConversations("me", messages, profiles)
	if len(got) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(got))
	}

	carol, bob := got[0], got[1]
	if carol.User.ID != "carol" || bob.User.ID != "bob" {
		t.Fatalf("expected carol then bob by recency, got %s then %s", carol.User.ID, bob.User.ID)
	}

	if bob.UnreadCount != 2 {
		t.Fatalf("expected 2 unread from bob, got %d", bob.UnreadCount)
	}
	if bob.LastMessage.Content != "great, tomorrow?" || bob.LastMessage.Sender != models.DirectionThem {
		t.Fatalf("unexpected last message for bob: %+v", bob.LastMessage)
	}
	if bob.User.Name != "Bob" || bob.User.Image != "bob.jpg" || bob.User.Location != "" {
		t.Fatalf("expected participant subset for bob, got %+v", bob.User)
	}

	if carol.UnreadCount != 0 {
		t.Fatalf("own unread outgoing messages must not count, got %d", carol.UnreadCount)
	}
	if carol.LastMessage.Sender != models.DirectionMe || carol.LastMessage.Content != "hi carol" {
		t.Fatalf("unexpected last message for carol: %+v", carol.LastMessage)
	}
}

func TestDeriveConversationsTies(t *testing.T) {
	at := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	messages := []models.Message{
		msg("zed", "me", "first", at, false),
		msg("me", "zed", "second", at, false),
		msg("amy", "me", "hello", at, false),
	}

	got := DeriveConversations("me", messages, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(got))
	}
	if got[0].User.ID != "amy" || got[1].User.ID != "zed" {
		t.Fatalf("equal timestamps must order by partner id, got %s, %s", got[0].User.ID, got[1].User.ID)
	}
	if got[1].LastMessage.Content != "second" {
		t.Fatalf("later message in input wins a timestamp tie, got %q", got[1].LastMessage.Content)
	}
	if got[1].User.Name != "" {
		t.Fatalf("unknown partner keeps only its id, got %+v", got[1].User)
	}
}

func TestDeriveConversationsEmpty(t *testing.T) {
	got := DeriveConversations("me", nil, nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
