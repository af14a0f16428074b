package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/gateway"
	"github.com/lucena-edu/frequencia-api/internal/handler"
	"github.com/lucena-edu/frequencia-api/internal/middleware"
	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/repository"
	"github.com/lucena-edu/frequencia-api/internal/service"
	"github.com/lucena-edu/frequencia-api/internal/store"
	"github.com/lucena-edu/frequencia-api/pkg/cache"
	"github.com/lucena-edu/frequencia-api/pkg/config"
	"github.com/lucena-edu/frequencia-api/pkg/database"
	"github.com/lucena-edu/frequencia-api/pkg/logger"
	corsmiddleware "github.com/lucena-edu/frequencia-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lucena-edu/frequencia-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.New(logr)
	if cfg.Demo.SeedData {
		if err := store.SeedDemoData(st, logr); err != nil {
			logr.Sugar().Fatalw("failed to seed demo data", "error", err)
		}
	}

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		repo := repository.NewCacheRepository(client, logr)
		cacheSvc = service.NewCacheService(repo, metrics, cfg.Cache.TTL, logr, true)
	}

	// Journal replay happens before any listener is registered, so restored
	// history produces no notifications and is not written back out.
	var journal *repository.FrequencyJournal
	if cfg.Journal.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect postgres", "error", err)
		}
		journal = repository.NewFrequencyJournal(db)
		if err := journal.EnsureSchema(ctx); err != nil {
			logr.Sugar().Fatalw("failed to prepare journal schema", "error", err)
		}
		replayJournal(ctx, st, journal, logr)
	}

	authSvc := service.NewAuthService(st, validator.New(), logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	attendanceSvc := service.NewAttendanceService(st, cacheSvc, logr)
	accessSvc := service.NewAccessService(st)
	notificationSvc := service.NewNotificationService(st, nil, metrics, logr, service.NotificationConfig{
		WindowClose:   cfg.Notifications.WindowClose,
		MessagePrefix: cfg.Notifications.MessagePrefix,
	})

	var bridge gateway.Bridge
	if cfg.Env == config.EnvProduction {
		bridge = gateway.NewHTTPBridge(cfg.Terminals.BridgeTimeout, logr)
	} else {
		bridge = gateway.NewDetached(logr)
	}
	terminalSvc := service.NewTerminalService(st, bridge, metrics, logr, service.TerminalConfig{
		BridgeTimeout:    cfg.Terminals.BridgeTimeout,
		OfflineThreshold: cfg.Terminals.OfflineThreshold,
	})
	reportSvc := service.NewReportService(attendanceSvc, accessSvc)

	st.OnPresenceChange(notificationSvc.HandlePresenceChange)
	if journal != nil {
		st.OnAppend(func(entry models.FrequencyLog) {
			writeCtx, cancelWrite := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelWrite()
			if err := journal.Append(writeCtx, entry); err != nil {
				logr.Warn("failed to journal frequency log", zap.String("log_id", entry.ID), zap.Error(err))
			}
		})
	}

	notificationSvc.StartWindowScheduler(ctx)
	if cfg.Notifications.FlushOnStartup {
		notificationSvc.Flush(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Classrooms:   handler.NewClassroomHandler(st, accessSvc, attendanceSvc),
		Students:     handler.NewStudentHandler(st, accessSvc, attendanceSvc),
		Terminals:    handler.NewTerminalHandler(st, terminalSvc),
		Connectivity: handler.NewConnectivityHandler(notificationSvc),
		AuthService:  authSvc,
		Metrics:      metrics,
	}
	if cfg.Reports.Enabled {
		handlers.Reports = handler.NewReportHandler(reportSvc)
	}
	handler.RegisterRoutes(r, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// replayJournal restores persisted history into the in-memory store.
func replayJournal(ctx context.Context, st *store.Store, journal *repository.FrequencyJournal, logr *zap.Logger) {
	entries, err := journal.LoadAll(ctx)
	if err != nil {
		logr.Sugar().Fatalw("failed to load journal", "error", err)
	}
	restored := 0
	for _, entry := range entries {
		ts, err := time.ParseInLocation(models.DateLayout+" "+models.TimeLayout, entry.Date+" "+entry.Time, time.Local)
		if err != nil {
			logr.Warn("skipping malformed journal entry", zap.String("log_id", entry.ID), zap.Error(err))
			continue
		}
		if _, err := st.RecordEvent(entry.StudentID, entry.Kind, ts); err != nil {
			// Students removed since the entry was written are expected.
			logr.Debug("journal entry not replayed", zap.String("log_id", entry.ID), zap.Error(err))
			continue
		}
		restored++
	}
	if restored > 0 {
		logr.Sugar().Infow("journal replayed", "entries", restored)
	}
}
