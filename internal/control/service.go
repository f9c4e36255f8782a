// Package control wires the relevance service together: storage, dataset,
// cache, engine, gateway, and the health server.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pressly/goose/v3"

	"github.com/fundgrove/relevance/internal/cache"
	"github.com/fundgrove/relevance/internal/core/config"
	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/dataset"
	"github.com/fundgrove/relevance/internal/engine"
	"github.com/fundgrove/relevance/internal/gateway"
	"github.com/fundgrove/relevance/internal/health"
	redisbus "github.com/fundgrove/relevance/internal/infra/redis"
	"github.com/fundgrove/relevance/internal/infra/storage"
	"github.com/fundgrove/relevance/internal/infra/storage/memory"
	"github.com/fundgrove/relevance/internal/infra/storage/postgres"
)

// Service is the assembled application. Construct with NewService, run with
// Start, release with Stop.
type Service struct {
	cfg          *config.AppConfig
	engine       *engine.Engine
	cache        *cache.Cache
	repo         storage.ProgramRepository
	gateway      *gateway.Gateway
	healthServer *health.Server
	db           *postgres.DB
	bus          *redisbus.Bus
	log          *slog.Logger
}

// NewService initializes every component from the configuration. Database
// and Redis are optional; without a database URL the service runs on the
// in-memory store seeded from the dataset file.
func NewService(ctx context.Context, cfg *config.AppConfig) (*Service, error) {
	// 1. Load the dataset
	var programs []domain.FundingProgram
	if cfg.Dataset.Path != "" {
		var err error
		programs, err = dataset.Load(cfg.Dataset.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset: %w", err)
		}
		slog.Info("Loaded funding programs", "count", len(programs))
	}

	// 2. Initialize storage
	var repo storage.ProgramRepository
	var feed storage.ChangeFeed
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		pgRepo := postgres.NewProgramRepo(db)
		repo = pgRepo
		feed = postgres.NewListener(cfg.Database.URL)

		// Seed an empty database from the dataset; an already-populated
		// table is authoritative.
		count, err := pgRepo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count programs: %w", err)
		}
		if count == 0 && len(programs) > 0 {
			if err := pgRepo.UpsertBatch(ctx, programs); err != nil {
				return nil, fmt.Errorf("failed to seed programs: %w", err)
			}
			slog.Info("Seeded program table from dataset", "count", len(programs))
		} else if count > 0 {
			programs, err = pgRepo.List(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list programs: %w", err)
			}
		}

		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewStore()
		store.Seed(programs)
		repo = store
		feed = store
		slog.Info("Using Memory storage")
	}
	// 3. Cache and engine
	cacheStore := cache.New(cfg.Cache)
	eng := engine.New(programs, cacheStore)

	// 4. Redis event bus
	var bus *redisbus.Bus
	var requests gateway.RequestSource
	if cfg.Redis.URL != "" {
		var err error
		bus, err = redisbus.NewBus(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, event bus disabled", "error", err)
		} else {
			eng.SetEventSink(bus)
			requests = bus
		}
	}

	// 5. Gateway and health
	gw := gateway.New(eng, feed, requests, cfg.Gateway)
	var pinger health.Pinger
	if db != nil {
		pinger = db
	}
	monitor := health.NewMonitor(eng, pinger)
	healthServer := health.NewServer(monitor, cfg.Server.Port)

	return &Service{
		cfg:          cfg,
		engine:       eng,
		cache:        cacheStore,
		repo:         repo,
		gateway:      gw,
		healthServer: healthServer,
		db:           db,
		bus:          bus,
		log:          slog.Default(),
	}, nil
}

// Engine exposes the relevance engine for CLI commands.
func (s *Service) Engine() *engine.Engine {
	return s.engine
}

// Repository exposes the program repository for CLI commands.
func (s *Service) Repository() storage.ProgramRepository {
	return s.repo
}

// Start warms the cache, starts the background loops, and returns. The
// loops run until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	// Warm the cache with a full classification pass.
	classified := s.engine.ClassifyOwn()
	s.log.Info("Initial classification complete",
		"programs", len(classified),
		"cached", s.engine.CacheStats().Size)

	s.cache.StartSweeper()
	s.engine.ScheduleInvalidation(s.cfg.Schedule)

	go s.gateway.Run(ctx)

	go func() {
		if err := s.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Health server failed", "error", err)
		}
	}()

	return nil
}

// Stop shuts the service down: health server first so probes stop, then the
// engine's background tasks, then the connections.
func (s *Service) Stop(ctx context.Context) error {
	s.log.Info("Stopping service...")

	err := s.healthServer.Stop(ctx)

	s.engine.Destroy()

	if s.bus != nil {
		if closeErr := s.bus.Close(); closeErr != nil {
			s.log.Warn("Failed to close Redis", "error", closeErr)
		}
	}
	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil {
			s.log.Warn("Failed to close database", "error", closeErr)
		}
	}

	return err
}
