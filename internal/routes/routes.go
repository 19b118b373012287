package routes

import (
	"github.com/VinayBibyan/Donation-Network/internal/config"
	"github.com/VinayBibyan/Donation-Network/internal/handlers"
	"github.com/VinayBibyan/Donation-Network/internal/metrics"
	"github.com/VinayBibyan/Donation-Network/internal/middleware"
	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/VinayBibyan/Donation-Network/internal/repository"
	"github.com/VinayBibyan/Donation-Network/internal/services"
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

// Dependencies are the long-lived components the HTTP layer is built from.
// Storage, Metrics and Gatherer may be nil.
type Dependencies struct {
	Config   *config.Config
	Store    *repository.Store
	Storage  services.StorageService
	Logger   *log.Logger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// NewApp builds the fiber application with middleware, static uploads,
// health and metrics endpoints and every API route.
func NewApp(deps Dependencies) (*fiber.App, error) {
	cfg := deps.Config
	responder := handlers.NewErrorResponder(deps.Logger, !cfg.IsProduction())

	app := fiber.New(fiber.Config{
		AppName:      "donation-network",
		BodyLimit:    cfg.MaxUploadBytes + 1<<20,
		ErrorHandler: responder.FiberErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))
	if !cfg.IsProduction() {
		app.Use(logger.New())
	}
	if deps.Metrics != nil {
		app.Use(middleware.RequestMetrics(deps.Metrics))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if cfg.EnableMetrics && deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(deps.Gatherer)))
	}
	if cfg.StorageDriver == config.StorageLocal && cfg.UploadDir != "" {
		app.Static(services.UploadsPrefix, cfg.UploadDir)
	}
	if err := registerDocsRoutes(app, cfg); err != nil {
		return nil, err
	}

	RegisterRoutes(app, deps, responder)
	return app, nil
}

func RegisterRoutes(app *fiber.App, deps Dependencies, responder *handlers.ErrorResponder) {
	cfg := deps.Config
	store := deps.Store
	sanitizer := services.NewTextSanitizer()

	var events services.EventRecorder
	if deps.Metrics != nil {
		events = deps.Metrics
	}

	authService := services.NewAuthService(store.Users, deps.Storage, sanitizer, cfg.JWTSecret, cfg.JWTTTL)
	profileService := services.NewProfileService(store.Users, deps.Storage, sanitizer)
	listingOptions := services.ListingServiceOptions{
		Storage:          deps.Storage,
		Sanitizer:        sanitizer,
		PlaceholderImage: cfg.PlaceholderImageURL,
		Events:           events,
	}
	itemService := services.NewListingService(store.Listings(models.ItemKind), store.Users, listingOptions)
	needService := services.NewListingService(store.Listings(models.NeedKind), store.Users, listingOptions)
	chatService := services.NewChatService(store.Messages, store.Users, sanitizer, events)

	authHandler := handlers.NewAuthHandler(authService, responder, cfg.MaxUploadBytes)
	profileHandler := handlers.NewProfileHandler(profileService, responder, cfg.MaxUploadBytes)
	itemHandler := handlers.NewListingHandler(itemService, responder, cfg.MaxUploadBytes)
	needHandler := handlers.NewListingHandler(needService, responder, cfg.MaxUploadBytes)
	chatHandler := handlers.NewChatHandler(chatService, responder)

	protect := middleware.AuthRequired(cfg.JWTSecret, store.Users)

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", authHandler.Register)
	users.Post("/login", authHandler.Login)
	users.Get("/profile", protect, profileHandler.GetProfile)
	users.Put("/profile", protect, profileHandler.UpdateProfile)
	users.Post("/profile/avatar", protect, profileHandler.UploadAvatar)
	users.Get("", profileHandler.ListUsers)

	registerListingRoutes(api.Group("/items"), "/user/items", itemHandler, protect)
	registerListingRoutes(api.Group("/needs"), "/user/needs", needHandler, protect)

	messages := api.Group("/messages", protect)
	messages.Get("/conversations", chatHandler.ListConversations)
	messages.Get("/:userId", chatHandler.GetThread)
	messages.Post("/:userId", chatHandler.SendMessage)
}

// registerListingRoutes mounts one listing kind. The caller's own listing
// path is registered ahead of /:id so it is never taken for an id.
func registerListingRoutes(group fiber.Router, minePath string, h *handlers.ListingHandler, protect fiber.Handler) {
	group.Get("", h.List)
	group.Post("", protect, h.Create)
	group.Get(minePath, protect, h.ListMine)
	group.Put("/:id/status", protect, h.UpdateStatus)

	group.Get("/:id", h.Get)
	group.Put("/:id", protect, h.Update)
	group.Delete("/:id", protect, h.Delete)
}
