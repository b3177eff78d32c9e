package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/dispatch-service/internal/api/http"
	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/persistence"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	"github.com/spec-kit/dispatch-service/internal/worker"
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

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	technicianRepo := repository.NewTechnicianRepository(pool)
	dispatcherRepo := repository.NewDispatcherRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	holdStore := repository.NewHoldStore(pool)
	timeLogStore := repository.NewTimeLogStore(pool)

	dispatcher := events.NewInMemoryDispatcher()
	conflictCache := persistence.NewConflictMapCache(redis, cfg.Schedule.ConflictMapTTL(), logger)

	conflictService := service.NewConflictService(service.ConflictDependencies{
		TicketRepo:     ticketRepo,
		TechnicianRepo: technicianRepo,
		Cache:          conflictCache,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:     ticketRepo,
		TechnicianRepo: technicianRepo,
		HistoryRepo:    historyRepo,
		Conflicts:      conflictService,
		Dispatcher:     dispatcher,
		Schedule:       cfg.Schedule,
	})
	holdService := service.NewHoldService(service.HoldDependencies{
		TicketRepo:  ticketRepo,
		HoldStore:   holdStore,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
	})
	timeTrackingService := service.NewTimeTrackingService(service.TimeTrackingDependencies{
		TicketRepo:     ticketRepo,
		TechnicianRepo: technicianRepo,
		TimeLogStore:   timeLogStore,
		Dispatcher:     dispatcher,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		HoldStore:    holdStore,
		TimeLogStore: timeLogStore,
		HistoryRepo:  historyRepo,
		Dispatcher:   dispatcher,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		DispatcherRepo: dispatcherRepo,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), dispatcherRepo)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Schedule:       handlers.NewScheduleHandler(assignmentService, conflictService),
		Holds:          handlers.NewHoldsHandler(holdService),
		WorkLogs:       handlers.NewWorkLogHandler(timeTrackingService),
		Technicians:    handlers.NewTechniciansHandler(technicianRepo),
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
