package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/evebot-backend/database"
	"github.com/Ananth-NQI/evebot-backend/internal/config"
	"github.com/Ananth-NQI/evebot-backend/internal/handlers"
	"github.com/Ananth-NQI/evebot-backend/internal/jobs"
	"github.com/Ananth-NQI/evebot-backend/internal/logger"
	"github.com/Ananth-NQI/evebot-backend/internal/metrics"
	"github.com/Ananth-NQI/evebot-backend/internal/routes"
	"github.com/Ananth-NQI/evebot-backend/internal/services"
	"github.com/Ananth-NQI/evebot-backend/internal/storage"
)

const version = "1.0.0"

// server bundles the fiber app with the background pieces that need stopping.
type server struct {
	app      *fiber.App
	sweeper  *jobs.SessionSweeper
	whatsapp *handlers.WhatsAppHandler
	cancel   context.CancelFunc
}

func main() {
	config.LoadEnvFiles()
	cfg := config.MustLoad()

	if err := logger.Init(cfg.LogLevel, cfg.IsDevelopment()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	history, err := newHistoryStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize history storage", zap.Error(err))
	}

	srv, err := newServer(cfg, history, registry)
	if err != nil {
		logger.Fatal("Failed to initialize server", zap.Error(err))
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-c
		logger.Info("🛑 Gracefully shutting down...")
		srv.shutdown()
	}()

	logger.Info("🚀 EveBot backend starting",
		zap.String("port", cfg.Port),
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
		zap.String("provider", cfg.Provider),
		zap.String("reply_mode", cfg.ReplyMode),
		zap.String("storage", cfg.StorageDriver),
		zap.Bool("webhook_validation", cfg.ValidateWebhooks()),
		zap.Duration("session_ttl", cfg.SessionTTL),
	)

	if err := srv.app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}

	// Listen returns as soon as the listener closes; wait for the drain.
	<-done
	logger.Info("👋 Shutdown complete")
}

func newHistoryStore(cfg *config.Config) (storage.HistoryStore, error) {
	if cfg.StorageDriver != config.StoragePostgres {
		logger.Warn("⚠️  Using in-memory analysis history (not for production!)")
		return storage.NewMemoryHistoryStore(cfg.HistoryLimit), nil
	}

	logger.Info("📦 Connecting to PostgreSQL database...")
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("✅ Using PostgreSQL analysis history")
	return storage.NewDatabaseHistoryStore(db), nil
}

func newProvider(cfg *config.Config, httpClient *http.Client) (services.VisionProvider, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return services.NewOllamaProvider(cfg.Ollama, httpClient)
	default:
		return services.NewGeminiProvider(cfg.Gemini, httpClient), nil
	}
}

// newServer wires the services, handlers and routes for cfg.
func newServer(cfg *config.Config, history storage.HistoryStore, registry *prometheus.Registry) (*server, error) {
	m := metrics.New(registry)
	httpClient := &http.Client{Timeout: cfg.OutboundTimeout}

	provider, err := newProvider(cfg, httpClient)
	if err != nil {
		return nil, fmt.Errorf("vision provider: %w", err)
	}
	logger.Info("✅ Vision provider initialized",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()),
	)

	if !cfg.Twilio.Configured() {
		logger.Warn("⚠️  Twilio credentials not found - media downloads are unauthenticated")
	}

	var replySender services.ReplySender
	if cfg.ReplyMode == config.ReplyModeAPI {
		twilioService, err := services.NewTwilioService(cfg.Twilio)
		if err != nil {
			return nil, fmt.Errorf("twilio service: %w", err)
		}
		replySender = twilioService
		logger.Info("✅ Twilio service initialized")
	}

	sessions := storage.NewMemorySessionStore(cfg.SessionTTL)
	media := services.NewMediaFetcher(httpClient, cfg.Twilio, cfg.MaxMediaBytes)
	vision := services.NewVisionService(media, provider, history, m, cfg.ExposeUpstreamErrors)
	conversation := services.NewConversationService(sessions, vision, m)

	ctx, cancel := context.WithCancel(context.Background())
	srv := &server{
		whatsapp: handlers.NewWhatsAppHandler(ctx, conversation, replySender, cfg.ReplyMode, m),
		cancel:   cancel,
	}

	if cfg.SessionTTL > 0 {
		srv.sweeper = jobs.NewSessionSweeper(sessions, cfg.SessionSweepInterval, m)
		srv.sweeper.Start()
	}

	srv.app = fiber.New(fiber.Config{
		AppName:   "EveBot Backend v" + version,
		Immutable: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	srv.app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	srv.app.Use(recover.New())
	srv.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(srv.app, cfg, routes.Handlers{
		WhatsApp: srv.whatsapp,
		Health:   handlers.NewHealthHandler(version, provider.Name(), conversation, history),
		Admin:    handlers.NewAdminHandler(conversation, history),
		Gatherer: registry,
		Metrics:  m,
	})

	return srv, nil
}

func (s *server) shutdown() {
	if s.sweeper != nil {
		logger.Info("⏹️  Stopping session sweeper...")
		s.sweeper.Stop()
	}
	logger.Info("⏹️  Shutting down server...")
	if err := s.app.Shutdown(); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	// let in-flight api-mode replies finish before cancelling their context
	s.whatsapp.Wait()
	s.cancel()
}
