package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func TestMemoryStoreConformance(t *testing.T) {
	runStoreConformance(t, NewMemoryStore())
}

func TestPostgresStoreConformance(t *testing.T) {
	loadTestEnv()
	dbURL := os.Getenv("TEST_DB_URL")
	if dbURL == "" {
		t.Skip("skipping integration test: TEST_DB_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := pool.Ping(ctx); err != nil {
		t.Skipf("skipping integration test: %v", err)
	}

	runStoreConformance(t, NewPostgresStore(pool))
}

func TestMongoStoreConformance(t *testing.T) {
	loadTestEnv()
	mongoURL := os.Getenv("TEST_MONGO_URL")
	if mongoURL == "" {
		t.Skip("skipping integration test: TEST_MONGO_URL is not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(options.Client().ApplyURI(mongoURL))
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("skipping integration test: %v", err)
	}

	db := client.Database(fmt.Sprintf("donation_network_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	if err := EnsureMongoIndexes(ctx, db); err != nil {
		t.Fatalf("EnsureMongoIndexes: %v", err)
	}

	runStoreConformance(t, NewMongoStore(db))
}

func loadTestEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("..", "..", ".env"))
}

// runStoreConformance checks a backend against the in-memory reference
// semantics. It only inspects rows it created so it can run against shared
// databases.
func runStoreConformance(t *testing.T, store *Store) {
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	alice := &models.User{Name: "Alice", Email: fmt.Sprintf("alice-%d@example.com", suffix), PasswordHash: "h"}
	bob := &models.User{Name: "Bob", Email: fmt.Sprintf("bob-%d@example.com", suffix), PasswordHash: "h", Location: "Pune"}
	for _, u := range []*models.User{alice, bob} {
		if err := store.Users.Create(ctx, u); err != nil {
			t.Fatalf("Create user: %v", err)
		}
	}

	t.Run("users", func(t *testing.T) {
		dup := &models.User{Name: "Again", Email: alice.Email, PasswordHash: "h"}
		if err := store.Users.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		got, err := store.Users.GetByEmail(ctx, bob.Email)
		if err != nil || got.ID != bob.ID || got.Location != "Pune" {
			t.Fatalf("GetByEmail: %+v, %v", got, err)
		}

		if _, err := store.Users.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		byID, err := store.Users.GetByIDs(ctx, []string{alice.ID, bob.ID, "missing"})
		if err != nil || len(byID) != 2 {
			t.Fatalf("GetByIDs: %v, %v", byID, err)
		}

		bob.Image = "https://cdn.example.com/bob.jpg"
		if err := store.Users.UpdateProfile(ctx, bob); err != nil {
			t.Fatalf("UpdateProfile: %v", err)
		}
		got, _ = store.Users.GetByID(ctx, bob.ID)
		if got.Image != bob.Image {
			t.Fatalf("expected updated image, got %q", got.Image)
		}
	})

	t.Run("listing query", func(t *testing.T) {
		seed := []models.Listing{
			{Title: "Wooden Chair", Description: "sturdy", Category: "Furniture", Facet: "Good", OwnerID: alice.ID, Open: true},
			{Title: "Desk", Description: "with a CHAIR included", Category: "Furniture", Facet: "Fair", OwnerID: alice.ID, Open: true},
			{Title: "Novel", Description: "paperback", Category: "Books", Facet: "Good", OwnerID: bob.ID, Open: true},
			{Title: "Armchair", Description: "donated already", Category: "Furniture", Facet: "Good", OwnerID: bob.ID, Open: false},
		}
		created := make([]models.Listing, 0, len(seed))
		for _, l := range seed {
			listing := l
			listing.Image = "https://via.placeholder.com/300"
			if err := store.Items.Create(ctx, &listing); err != nil {
				t.Fatalf("Create listing: %v", err)
			}
			created = append(created, listing)
		}

		filters := []models.ListingFilter{
			models.NewListingFilter("all", "any", ""),
			models.NewListingFilter("Furniture", "any", ""),
			models.NewListingFilter("all", "Good", ""),
			models.NewListingFilter("all", "any", "chair"),
			models.NewListingFilter("Furniture", "Good", "CHAIR"),
			{OwnerID: bob.ID},
		}
		for _, filter := range filters {
			got, err := store.Items.List(ctx, filter)
			if err != nil {
				t.Fatalf("List(%+v): %v", filter, err)
			}
			// Seeds are often created within one millisecond, so the id
			// tie-break must reproduce reverse insertion order on every store.
			gotIDs := ownIDs(got, created)
			wantIDs := make([]string, 0)
			for i := len(created) - 1; i >= 0; i-- {
				if filter.Matches(created[i]) {
					wantIDs = append(wantIDs, created[i].ID)
				}
			}
			if !slices.Equal(gotIDs, wantIDs) {
				t.Fatalf("filter %+v: expected %v, got %v", filter, wantIDs, gotIDs)
			}
			sorted := slices.Clone(got)
			models.SortNewestFirst(sorted)
			for i := range got {
				if got[i].ID != sorted[i].ID {
					t.Fatalf("filter %+v: results not newest first", filter)
				}
			}
		}
	})

	t.Run("listing update and delete", func(t *testing.T) {
		need := &models.Listing{Title: "Blankets", Description: "winter", Category: "Clothing", Facet: "High", OwnerID: bob.ID, Open: true}
		if err := store.Needs.Create(ctx, need); err != nil {
			t.Fatalf("Create need: %v", err)
		}

		need.Open = false
		need.Facet = "Low"
		if err := store.Needs.Update(ctx, need); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := store.Needs.GetByID(ctx, need.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Open || got.Facet != "Low" || got.OwnerID != bob.ID || got.Kind.Name != "need" {
			t.Fatalf("unexpected need after update: %+v", got)
		}

		if err := store.Needs.Delete(ctx, need.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := store.Needs.GetByID(ctx, need.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.Needs.Delete(ctx, need.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("read thread", func(t *testing.T) {
		send := func(from, to *models.User, content string) {
			t.Helper()
			if err := store.Messages.Create(ctx, &models.Message{SenderID: from.ID, RecipientID: to.ID, Content: content}); err != nil {
				t.Fatalf("Create message: %v", err)
			}
		}
		send(alice, bob, "hello")
		send(alice, bob, "still there?")
		send(bob, alice, "yes")

		thread, err := store.Messages.ReadThread(ctx, bob.ID, alice.ID)
		if err != nil {
			t.Fatalf("ReadThread: %v", err)
		}
		if len(thread) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(thread))
		}
		for _, m := range thread {
			if m.SenderID == alice.ID && !m.Read {
				t.Fatalf("expected alice's message %q read", m.Content)
			}
			if m.SenderID == bob.ID && m.Read {
				t.Fatalf("bob's own message must stay unread")
			}
		}

		all, err := store.Messages.ListForUser(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListForUser: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 messages for alice, got %d", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i].CreatedAt.Before(all[i-1].CreatedAt) {
				t.Fatalf("messages not oldest first")
			}
		}
	})
}

func ownIDs(listings []models.Listing, created []models.Listing) []string {
	ids := make([]string, 0)
	for _, l := range listings {
		if slices.ContainsFunc(created, func(c models.Listing) bool { return c.ID == l.ID }) {
			ids = append(ids, l.ID)
		}
	}
	return ids
}
