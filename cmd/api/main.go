package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/team-hierarchy-service/internal/api/http"
	"github.com/spec-kit/team-hierarchy-service/internal/api/http/handlers"
	"github.com/spec-kit/team-hierarchy-service/internal/auth"
	"github.com/spec-kit/team-hierarchy-service/internal/config"
	"github.com/spec-kit/team-hierarchy-service/internal/events"
	"github.com/spec-kit/team-hierarchy-service/internal/namecheck"
	"github.com/spec-kit/team-hierarchy-service/internal/observability"
	"github.com/spec-kit/team-hierarchy-service/internal/persistence"
	"github.com/spec-kit/team-hierarchy-service/internal/reconcile"
	"github.com/spec-kit/team-hierarchy-service/internal/repository"
	"github.com/spec-kit/team-hierarchy-service/internal/service"
	"github.com/spec-kit/team-hierarchy-service/internal/store"
	"github.com/spec-kit/team-hierarchy-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pg *persistence.Postgres
	var teamStore store.TeamStore

	switch cfg.Store.Backend {
	case config.StoreBackendHTTP:
		teamStore = store.NewHTTPStore(cfg.RemoteStore, nil)
		logger.Info("using remote team store", zap.String("base_url", cfg.RemoteStore.BaseURL))
	default:
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		teamStore = repository.NewPGTeamStore(pg.PoolHandle())
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, worker.NewAuditWorker(redis, logger))

	detector := namecheck.NewDetector(namecheck.DetectorDependencies{
		Store:    teamStore,
		Matcher:  namecheck.NewMatcher(cfg.Similarity.MaxDistance),
		Cache:    redis,
		CacheTTL: cfg.Similarity.CacheTTL(),
		Logger:   logger,
	})
	engine := reconcile.NewEngine(reconcile.EngineDependencies{
		Store:   teamStore,
		Logger:  logger,
		Metrics: metrics,
	})
	teamService := service.NewTeamService(service.TeamDependencies{
		Store:      teamStore,
		Detector:   detector,
		Engine:     engine,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Teams:          handlers.NewTeamsHandler(teamService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
