package main

import (
	"context"
	"log"
	"time"

	"github.com/Conceptual-Machines/talea-api/internal/api"
	"github.com/Conceptual-Machines/talea-api/internal/api/handlers"
	"github.com/Conceptual-Machines/talea-api/internal/config"
	"github.com/Conceptual-Machines/talea-api/internal/database"
	"github.com/Conceptual-Machines/talea-api/internal/metrics"
	"github.com/Conceptual-Machines/talea-api/internal/services"
	"github.com/Conceptual-Machines/talea-api/internal/store"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "talea-api@" + releaseVersion,            // Use embedded release version
			EnableTracing:    true,                                     // Enable tracing for spans
			TracesSampleRate: 1.0,                                      // 100% sampling for now, adjust based on volume
			EnableLogs:       true,                                     // Enable Sentry Logs feature
			Debug:            cfg.Environment != environmentProduction, // Enable debug in non-prod
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	st, err := openStateStore(cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to open stream state store:", err)
	}

	cloudwatch, err := metrics.NewClient(context.Background(), cfg.Environment, cfg.MetricsNamespace)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}

	svc, err := services.NewRhythmService(st, cloudwatch, cfg.MaxSegments)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to create rhythm service:", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(svc, cfg, cloudwatch, GetVersion())

	log.Printf("🚀 Starting server on port %s (auth: %s, state store: %s)", cfg.Port, cfg.AuthMode, handlers.StateStoreKind(cfg))
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

// openStateStore returns the Postgres store when DATABASE_URL is set and the
// in-memory store otherwise
func openStateStore(cfg *config.Config) (store.StateStore, error) {
	if !cfg.UsesDatabase() {
		log.Println("⚠️  DATABASE_URL not set, stream cursors are kept in memory")
		return store.NewMemoryStore(), nil
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return store.NewPostgresStore(db), nil
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
