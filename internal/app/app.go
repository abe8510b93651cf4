package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/fikstur/fikstur-bot/external/oddsllm"
	"github.com/fikstur/fikstur-bot/external/serpfeed"
	"github.com/fikstur/fikstur-bot/internal/config"
	"github.com/fikstur/fikstur-bot/internal/domain/match"
	"github.com/fikstur/fikstur-bot/internal/domain/team"
	"github.com/fikstur/fikstur-bot/internal/infrastructure/repository/postgres"
	"github.com/fikstur/fikstur-bot/internal/interfaces/httpapi"
	"github.com/fikstur/fikstur-bot/internal/platform/logging"
	"github.com/fikstur/fikstur-bot/internal/platform/resilience"
	"github.com/fikstur/fikstur-bot/internal/usecase"
)

// App bundles every long-lived component of the bot process.
type App struct {
	Config     config.Config
	Logger     *logging.Logger
	DB         *sqlx.DB
	Scheduler  *usecase.SchedulerService
	HTTPServer *http.Server
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var teamRepo team.Repository = postgres.NewTeamRepository(db)
	var matchRepo match.Repository = postgres.NewMatchRepository(db)

	feed := newFixtureFeed(cfg, logger)
	odds := newOddsProvider(cfg, logger)

	resolver := usecase.NewTeamResolver(teamRepo, feed, cfg.TeamCacheTTL, logger)
	matchService := usecase.NewMatchService(matchRepo, usecase.MatchServiceConfig{
		NotificationLead: cfg.NotificationLead,
		VoiceRoomLead:    cfg.VoiceRoomLead,
		CacheTTL:         cfg.MatchCacheTTL,
	}, logger)
	syncService := usecase.NewSyncService(feed, odds, resolver, matchService, usecase.SyncConfig{
		Roster:         cfg.ClubRoster,
		WindowDays:     cfg.SyncWindowDays,
		MaxWorkers:     cfg.SyncMaxWorkers,
		WipeBeforeSync: cfg.SyncFullResync,
	}, logger)
	scheduler := usecase.NewSchedulerService(matchService, syncService, nil, usecase.SchedulerConfig{
		CheckInterval: cfg.MatchCheckInterval,
		SyncInterval:  cfg.SyncInterval,
	}, logger)

	handler := httpapi.NewHandler(matchService, syncService, db, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Scheduler:  scheduler,
		HTTPServer: server,
	}, nil
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return db, nil
}

func newFixtureFeed(cfg config.Config, logger *logging.Logger) *serpfeed.Client {
	return serpfeed.NewClient(serpfeed.ClientConfig{
		BaseURL:      cfg.SerpAPIBaseURL,
		APIKey:       cfg.SerpAPIKey,
		Location:     cfg.SerpAPILocation,
		Timeout:      cfg.SerpAPITimeout,
		MaxRetries:   cfg.SerpAPIMaxRetries,
		TeamCacheTTL: cfg.TeamCacheTTL,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SerpAPICircuitEnabled,
			FailureThreshold: cfg.SerpAPICircuitFailureCount,
			OpenTimeout:      cfg.SerpAPICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SerpAPICircuitHalfOpenMaxReq,
		},
	})
}

// newOddsProvider returns nil when odds are disabled; the sync pipeline
// persists fixtures without probabilities in that case.
func newOddsProvider(cfg config.Config, logger *logging.Logger) usecase.OddsProvider {
	if !cfg.OddsEnabled {
		return nil
	}

	return oddsllm.NewClient(oddsllm.ClientConfig{
		BaseURL:    cfg.OpenRouterBaseURL,
		APIKey:     cfg.OpenRouterAPIKey,
		Model:      cfg.OpenRouterModel,
		Timeout:    cfg.OpenRouterTimeout,
		MaxRetries: cfg.OpenRouterMaxRetries,
		CacheTTL:   cfg.OddsCacheTTL,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.OpenRouterCircuitEnabled,
			FailureThreshold: cfg.OpenRouterCircuitFailureCount,
			OpenTimeout:      cfg.OpenRouterCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.OpenRouterCircuitHalfOpenMax,
		},
	})
}
