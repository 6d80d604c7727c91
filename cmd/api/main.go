package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-core/internal/api/http"
	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/persistence"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/service"
	"github.com/spec-kit/helpdesk-core/internal/worker"
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

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	referralRepo := repository.NewReferralRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	bookmarkRepo := repository.NewBookmarkRepository(pool)
	readMarkerRepo := repository.NewReadMarkerRepository(redis.Client)

	dispatcher := events.NewInMemoryDispatcher()
	changeFeed := events.NewChangeFeed(redis.Client, logger)
	changeFeed.Bind(dispatcher)

	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo:     ticketRepo,
		ActivityRepo:   activityRepo,
		EscalationRepo: escalationRepo,
		MessageRepo:    messageRepo,
		DepartmentRepo: departmentRepo,
		Dispatcher:     dispatcher,
	})
	referralService := service.NewReferralService(service.ReferralDependencies{
		TicketRepo:     ticketRepo,
		ReferralRepo:   referralRepo,
		EscalationRepo: escalationRepo,
		AdminRepo:      adminRepo,
		ActivityRepo:   activityRepo,
		Dispatcher:     dispatcher,
		Cooldown:       cfg.Referral.Cooldown(),
		Logger:         logger,
	})
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo:     ticketRepo,
		EscalationRepo: escalationRepo,
		ActivityRepo:   activityRepo,
		Lifecycle:      lifecycleService,
		Dispatcher:     dispatcher,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		TicketRepo:      ticketRepo,
		ReferralRepo:    referralRepo,
		MessageRepo:     messageRepo,
		ReadMarkerRepo:  readMarkerRepo,
		UserAlertWindow: cfg.Alerts.UserAlertWindow(),
		UserAlertLimit:  cfg.Alerts.UserAlertLimit,
	})
	analyticsService := service.NewAnalyticsService(activityRepo, ticketRepo)
	bookmarkService := service.NewBookmarkService(bookmarkRepo, ticketRepo)
	authService := service.NewAuthService(cfg.Auth, userRepo, adminRepo)

	notificationWorker := worker.NewNotificationWorker(changeFeed, notificationService, logger)
	notificationWorker.Start(ctx)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, adminRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis, cfg.App.Version),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(lifecycleService, notificationService),
		AdminTickets:   handlers.NewAdminTicketsHandler(lifecycleService, notificationService),
		Referrals:      handlers.NewReferralsHandler(referralService),
		Escalations:    handlers.NewEscalationsHandler(escalationService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		Bookmarks:      handlers.NewBookmarksHandler(bookmarkService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
