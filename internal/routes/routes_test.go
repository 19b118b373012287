package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/VinayBibyan/Donation-Network/internal/config"
	"github.com/VinayBibyan/Donation-Network/internal/metrics"
	"github.com/VinayBibyan/Donation-Network/internal/repository"
	"github.com/VinayBibyan/Donation-Network/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	uploadDir := t.TempDir()
	cfg := &config.Config{
		AppEnv:              "test",
		JWTSecret:           "test-secret",
		JWTTTL:              time.Hour,
		Datastore:           config.DatastoreMemory,
		StorageDriver:       config.StorageLocal,
		UploadDir:           uploadDir,
		PlaceholderImageURL: "https://via.placeholder.com/300",
		MaxUploadBytes:      1 << 20,
		CORSAllowOrigins:    "*",
		EnableMetrics:       true,
	}
	storage, err := services.NewLocalStorageService(uploadDir, "")
	if err != nil {
		t.Fatalf("NewLocalStorageService: %v", err)
	}
	reg := prometheus.NewRegistry()

	app, err := NewApp(Dependencies{
		Config:   cfg,
		Store:    repository.NewMemoryStore(),
		Storage:  storage,
		Metrics:  metrics.NewCollector(reg),
		Gatherer: reg,
	})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return &apiClient{t: t, app: app}
}

func (a *apiClient) call(method, target, token string, payload any) (int, []byte) {
	a.t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			a.t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	if err != nil {
		a.t.Fatalf("app.Test %s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		a.t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func (a *apiClient) expect(method, target, token string, payload any, status int, out any) {
	a.t.Helper()

	got, raw := a.call(method, target, token, payload)
	if got != status {
		a.t.Fatalf("%s %s: expected %d, got %d: %s", method, target, status, got, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			a.t.Fatalf("%s %s: decode: %v (%s)", method, target, err, raw)
		}
	}
}

type session struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

func (a *apiClient) register(name, email string) session {
	a.t.Helper()

	var s session
	a.expect(http.MethodPost, "/api/users/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"location": "Delhi",
	}, http.StatusCreated, &s)
	if s.Token == "" || s.ID == "" {
		a.t.Fatalf("register %s returned no token or id", email)
	}
	return s
}

func TestScenarioItemDiscoveryAndChat(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("Alice", "alice@example.com")
	bob := api.register("Bob", "bob@example.com")

	var bike map[string]any
	api.expect(http.MethodPost, "/api/items", alice.Token, map[string]any{
		"title":       "Bike",
		"description": "Mountain bike, 21 gears",
		"category":    "Sports",
		"condition":   "Good",
	}, http.StatusCreated, &bike)
	if bike["isAvailable"] != true {
		t.Fatalf("new item must be available: %v", bike)
	}

	var found []map[string]any
	api.expect(http.MethodGet, "/api/items?category=Sports", bob.Token, nil, http.StatusOK, &found)
	if len(found) != 1 || found[0]["title"] != "Bike" {
		t.Fatalf("expected Bike in Sports, got %v", found)
	}

	var unfiltered, sentinel []map[string]any
	api.expect(http.MethodGet, "/api/items", "", nil, http.StatusOK, &unfiltered)
	api.expect(http.MethodGet, "/api/items?category=all&condition=any", "", nil, http.StatusOK, &sentinel)
	if len(unfiltered) != len(sentinel) {
		t.Fatalf("sentinel filters must equal no filter: %d vs %d", len(unfiltered), len(sentinel))
	}

	var searched []map[string]any
	api.expect(http.MethodGet, "/api/items?search=MOUNTAIN", "", nil, http.StatusOK, &searched)
	if len(searched) != 1 {
		t.Fatalf("search must be case-insensitive, got %v", searched)
	}

	api.expect(http.MethodPost, "/api/messages/"+alice.ID, bob.Token, map[string]string{
		"content": "Is the Bike still available?",
	}, http.StatusCreated, nil)

	var conversations []struct {
		User struct {
			ID   string `json:"_id"`
			Name string `json:"name"`
		} `json:"user"`
		LastMessage struct {
			Content string `json:"content"`
			Sender  string `json:"sender"`
		} `json:"lastMessage"`
		UnreadCount int `json:"unreadCount"`
	}
	api.expect(http.MethodGet, "/api/messages/conversations", alice.Token, nil, http.StatusOK, &conversations)
	if len(conversations) != 1 {
		t.Fatalf("expected one conversation, got %d", len(conversations))
	}
	if conversations[0].User.ID != bob.ID || conversations[0].UnreadCount != 1 || conversations[0].LastMessage.Sender != "them" {
		t.Fatalf("unexpected conversation: %+v", conversations[0])
	}

	var thread []struct {
		Content string `json:"content"`
		Read    bool   `json:"read"`
		Sender  struct {
			ID string `json:"_id"`
		} `json:"sender"`
	}
	api.expect(http.MethodGet, "/api/messages/"+bob.ID, alice.Token, nil, http.StatusOK, &thread)
	if len(thread) != 1 || thread[0].Content != "Is the Bike still available?" || thread[0].Sender.ID != bob.ID {
		t.Fatalf("unexpected thread: %+v", thread)
	}
	if !thread[0].Read {
		t.Fatalf("opening the thread must mark the message read")
	}

	api.expect(http.MethodGet, "/api/messages/conversations", alice.Token, nil, http.StatusOK, &conversations)
	if len(conversations) != 1 || conversations[0].UnreadCount != 0 {
		t.Fatalf("expected unread count 0 after reading, got %+v", conversations)
	}

	// the sender's own view is unaffected by the recipient's unread state
	api.expect(http.MethodGet, "/api/messages/conversations", bob.Token, nil, http.StatusOK, &conversations)
	if len(conversations) != 1 || conversations[0].UnreadCount != 0 || conversations[0].LastMessage.Sender != "me" {
		t.Fatalf("unexpected sender view: %+v", conversations)
	}
}

func TestScenarioFulfilledNeedLeavesPublicListing(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("Alice", "alice@example.com")

	var coat map[string]any
	api.expect(http.MethodPost, "/api/needs", alice.Token, map[string]any{
		"title":       "Winter Coat",
		"description": "For a ten year old",
		"category":    "Clothing",
		"urgency":     "High",
	}, http.StatusCreated, &coat)
	id, _ := coat["_id"].(string)

	var public []map[string]any
	api.expect(http.MethodGet, "/api/needs", "", nil, http.StatusOK, &public)
	if len(public) != 1 {
		t.Fatalf("expected the active need publicly, got %v", public)
	}

	var updated map[string]any
	api.expect(http.MethodPut, "/api/needs/"+id+"/status", alice.Token, map[string]any{"isActive": false}, http.StatusOK, &updated)
	if updated["isActive"] != false || updated["isFulfilled"] != true {
		t.Fatalf("unexpected status response: %v", updated)
	}

	api.expect(http.MethodGet, "/api/needs", "", nil, http.StatusOK, &public)
	if len(public) != 0 {
		t.Fatalf("fulfilled need must leave the public listing, got %v", public)
	}

	var mine []map[string]any
	api.expect(http.MethodGet, "/api/needs/user/needs", alice.Token, nil, http.StatusOK, &mine)
	if len(mine) != 1 || mine[0]["title"] != "Winter Coat" || mine[0]["isFulfilled"] != true {
		t.Fatalf("owner must still see the fulfilled need, got %v", mine)
	}
}

func TestScenarioNonOwnerCannotToggleItem(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("Alice", "alice@example.com")
	carol := api.register("Carol", "carol@example.com")

	var bike map[string]any
	api.expect(http.MethodPost, "/api/items", alice.Token, map[string]any{
		"title":       "Bike",
		"description": "Mountain bike",
		"category":    "Sports",
		"condition":   "Good",
	}, http.StatusCreated, &bike)
	id, _ := bike["_id"].(string)

	api.expect(http.MethodPut, "/api/items/"+id+"/status", carol.Token, map[string]any{"isAvailable": false}, http.StatusForbidden, nil)

	var after map[string]any
	api.expect(http.MethodGet, "/api/items/"+id, "", nil, http.StatusOK, &after)
	if after["isAvailable"] != true {
		t.Fatalf("availability must be unchanged, got %v", after["isAvailable"])
	}
}

func TestAuthAndProfileFlow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("Alice", "alice@example.com")

	api.expect(http.MethodPost, "/api/users/register", "", map[string]string{
		"name": "Other", "email": "ALICE@example.com", "password": "secret123",
	}, http.StatusConflict, nil)

	api.expect(http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-pass",
	}, http.StatusUnauthorized, nil)

	var loggedIn session
	api.expect(http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret123",
	}, http.StatusOK, &loggedIn)
	if loggedIn.ID != alice.ID {
		t.Fatalf("login returned a different user: %q", loggedIn.ID)
	}

	api.expect(http.MethodGet, "/api/users/profile", "", nil, http.StatusUnauthorized, nil)

	var profile map[string]any
	api.expect(http.MethodPut, "/api/users/profile", loggedIn.Token, map[string]string{"location": "Mumbai"}, http.StatusOK, &profile)
	if profile["location"] != "Mumbai" || profile["name"] != "Alice" {
		t.Fatalf("unexpected profile after update: %v", profile)
	}
	if _, leaked := profile["password"]; leaked {
		t.Fatalf("profile must not expose the password hash")
	}

	var users []map[string]any
	api.expect(http.MethodGet, "/api/users", "", nil, http.StatusOK, &users)
	if len(users) != 1 || users[0]["_id"] != alice.ID {
		t.Fatalf("unexpected user listing: %v", users)
	}
	if _, leaked := users[0]["email"]; leaked {
		t.Fatalf("public profiles must not expose email")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	api.expect(http.MethodGet, "/health", "", nil, http.StatusOK, nil)
	api.expect(http.MethodGet, "/api/items", "", nil, http.StatusOK, nil)

	status, raw := api.call(http.MethodGet, "/metrics", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected metrics endpoint, got %d", status)
	}
	if !bytes.Contains(raw, []byte(`donation_http_requests_total{method="GET",route="/api/items",status="200"}`)) {
		t.Fatalf("expected request counter for /api/items in:\n%s", raw)
	}
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	api := newTestAPI(t)

	status, raw := api.call(http.MethodGet, "/api/nothing-here", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	var body map[string]string
	if err := json.Unmarshal(raw, &body); err != nil || body["error"] == "" {
		t.Fatalf("expected JSON error body, got %s", raw)
	}
}
