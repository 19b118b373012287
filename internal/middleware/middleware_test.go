package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/VinayBibyan/Donation-Network/internal/repository"
	"github.com/VinayBibyan/Donation-Network/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type stubUsers struct {
	known map[string]bool
}

func (s stubUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if id == "offline" {
		return nil, errors.New("connection refused")
	}
	if !s.known[id] {
		return nil, repository.ErrNotFound
	}
	return &models.User{ID: id}, nil
}

func newAuthApp(users userLookup) *fiber.App {
	app := fiber.New()
	app.Get("/private", AuthRequired("secret", users), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	valid, err := utils.GenerateToken("u1", "u1@example.com", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	orphan, err := utils.GenerateToken("gone", "gone@example.com", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	foreign, err := utils.GenerateToken("u1", "u1@example.com", "other", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	offline, err := utils.GenerateToken("offline", "offline@example.com", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	app := newAuthApp(stubUsers{known: map[string]bool{"u1": true}})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "foreign signature", header: "Bearer " + foreign, want: http.StatusUnauthorized},
		{name: "deleted user", header: "Bearer " + orphan, want: http.StatusUnauthorized},
		{name: "user lookup failure", header: "Bearer " + offline, want: http.StatusInternalServerError},
		{name: "valid", header: "Bearer " + valid, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

type recordedRequest struct {
	method string
	route  string
	status int
}

type stubRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (s *stubRecorder) RecordRequest(method, route string, status int, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, recordedRequest{method: method, route: route, status: status})
}

func TestRequestMetricsUsesRoutePattern(t *testing.T) {
	recorder := &stubRecorder{}
	app := fiber.New()
	app.Use(RequestMetrics(recorder))
	app.Get("/api/items/:id", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/items/abc", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()

	if len(recorder.requests) != 1 {
		t.Fatalf("expected one recorded request, got %d", len(recorder.requests))
	}
	got := recorder.requests[0]
	if got.method != http.MethodGet || got.route != "/api/items/:id" || got.status != http.StatusNotFound {
		t.Fatalf("unexpected record: %+v", got)
	}
}
