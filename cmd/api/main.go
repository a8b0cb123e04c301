package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/Abhishekkatale/CRM-Musitech/internal/api/http"
	"github.com/Abhishekkatale/CRM-Musitech/internal/api/http/handlers"
	"github.com/Abhishekkatale/CRM-Musitech/internal/config"
	"github.com/Abhishekkatale/CRM-Musitech/internal/events"
	"github.com/Abhishekkatale/CRM-Musitech/internal/guard"
	"github.com/Abhishekkatale/CRM-Musitech/internal/identity"
	"github.com/Abhishekkatale/CRM-Musitech/internal/observability"
	"github.com/Abhishekkatale/CRM-Musitech/internal/persistence"
	"github.com/Abhishekkatale/CRM-Musitech/internal/repository"
	"github.com/Abhishekkatale/CRM-Musitech/internal/service"
	"github.com/Abhishekkatale/CRM-Musitech/internal/session"
	"github.com/Abhishekkatale/CRM-Musitech/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	pool := pg.PoolHandle()
	accountRepo := repository.NewAccountRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	clientRepo := repository.NewClientRepository(pool)
	subuserRepo := repository.NewSubuserRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	provider := identity.NewLocalProvider(cfg.Auth,
		accountRepo,
		identity.NewRedisRefreshStore(redis.Client),
		logger)
	defer provider.Close()

	resolver := service.NewProfileResolver(cfg.Auth, service.ResolverDependencies{
		ProfileRepo: profileRepo,
		ClientRepo:  clientRepo,
		SubuserRepo: subuserRepo,
	}, logger, metrics)

	controller := service.NewAuthController(cfg.Auth, service.ControllerDependencies{
		Provider:   provider,
		Store:      session.NewRedisStore(redis.Client, cfg.Auth.RefreshTokenTTL()),
		Resolver:   resolver,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err := controller.Start(ctx); err != nil {
		logger.Fatal("failed to start auth controller", zap.Error(err))
	}
	defer controller.Close()

	auditService := service.NewAuditService(cfg.Audit, auditRepo, dispatcher, logger)
	worker.StartAuditWorker(auditService)
	defer auditService.Close()

	routeGuard := guard.New(controller, cfg.Guard, metrics)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:     handlers.NewAuthHandler(controller),
		Audit:    handlers.NewAuditHandler(auditRepo),
		Profiles: handlers.NewProfileHandler(profileRepo, auditService),
		Guard:    routeGuard,
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
