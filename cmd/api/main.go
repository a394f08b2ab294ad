package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/facilityops/visit-booking/internal/api/http"
	"github.com/facilityops/visit-booking/internal/api/http/handlers"
	"github.com/facilityops/visit-booking/internal/auth"
	"github.com/facilityops/visit-booking/internal/config"
	"github.com/facilityops/visit-booking/internal/events"
	"github.com/facilityops/visit-booking/internal/lock"
	"github.com/facilityops/visit-booking/internal/notify"
	"github.com/facilityops/visit-booking/internal/observability"
	"github.com/facilityops/visit-booking/internal/persistence"
	"github.com/facilityops/visit-booking/internal/repository"
	"github.com/facilityops/visit-booking/internal/service"
	"github.com/facilityops/visit-booking/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	rules, err := cfg.Scheduling.SlotRules()
	if err != nil {
		logger.Fatal("invalid scheduling rules", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		appointmentRepo repository.AppointmentRepository
		auditRepo       repository.AuditRepository
	)
	if pg.Enabled() {
		appointmentRepo = repository.NewAppointmentRepository(pg.PoolHandle())
		auditRepo = repository.NewAuditRepository(pg.PoolHandle())
	} else {
		logger.Warn("using in-memory repositories; data is lost on restart")
		appointmentRepo = repository.NewMemoryAppointmentRepository()
		auditRepo = repository.NewMemoryAuditRepository()
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Scheduling.LockBackend == config.LockBackendRedis {
		if !redis.Enabled() {
			logger.Fatal("BOOKING_LOCK_BACKEND=redis requires REDIS_ADDR")
		}
		locker = lock.NewRedisLocker(redis.Client, cfg.Scheduling.LockTTL())
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	bookingService := service.NewBookingService(service.BookingDependencies{
		AppointmentRepo: appointmentRepo,
		Locker:          locker,
		Rules:           rules,
		Dispatcher:      dispatcher,
		Logger:          logger,
		Metrics:         metrics,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		AppointmentRepo: appointmentRepo,
		AuditRepo:       auditRepo,
		Dispatcher:      dispatcher,
		Logger:          logger,
		Metrics:         metrics,
	})
	appointmentQueries := service.NewAppointmentQueryService(appointmentRepo, rules)
	auditQueries := service.NewAuditQueryService(auditRepo)

	notifiers := []notify.Notifier{
		notify.NewEmailNotifier(cfg.Notification.EmailFrom, logger),
		notify.NewWebhookNotifier(cfg.Notification.WebhookURL, logger),
	}
	if redis.Enabled() && cfg.Notification.RedisChannel != "" {
		notifiers = append(notifiers, notify.NewRedisNotifier(redis.Client, cfg.Notification.RedisChannel))
	}
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, notifiers...)
	notificationService.RegisterHandlers()

	notificationWorker := worker.NewNotificationWorker(notificationService, cfg.Notification.Workers, cfg.Notification.QueueSize, logger, metrics)
	if cfg.Notification.Enabled {
		notificationWorker.Register(dispatcher)
	}
	notificationWorker.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Appointments:   handlers.NewAppointmentsHandler(bookingService, lifecycleService, appointmentQueries, rules.Location().String()),
		Audit:          handlers.NewAuditHandler(auditQueries),
		Reports:        handlers.NewReportsHandler(appointmentQueries, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	notificationWorker.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
