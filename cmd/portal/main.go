package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-portal/api/swagger"
	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/handler"
	"github.com/noah-isme/sma-timetable-portal/internal/middleware"
	"github.com/noah-isme/sma-timetable-portal/internal/repository"
	"github.com/noah-isme/sma-timetable-portal/internal/service"
	"github.com/noah-isme/sma-timetable-portal/internal/session"
	"github.com/noah-isme/sma-timetable-portal/internal/timetable"
	"github.com/noah-isme/sma-timetable-portal/internal/upstream"
	"github.com/noah-isme/sma-timetable-portal/pkg/cache"
	"github.com/noah-isme/sma-timetable-portal/pkg/config"
	"github.com/noah-isme/sma-timetable-portal/pkg/export"
	"github.com/noah-isme/sma-timetable-portal/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-portal/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-portal/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-portal/pkg/signer"
	"github.com/noah-isme/sma-timetable-portal/web"
)

// @title Timetable Portal API
// @version 1.0.0
// @description JSON mirror of the university timetable portal
// @BasePath /api/v1
// @schemes http https

const (
	searchMinLength = 2
	previewLimit    = 10
	exportFontSize  = 14
	cacheNamespace  = "timetable"
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

	clock := localClock(cfg.Grid.Timezone, logr)

	periods := grid.DefaultPeriods
	if cfg.Grid.PeriodsFile != "" {
		periods, err = grid.LoadPeriods(cfg.Grid.PeriodsFile)
		if err != nil {
			logr.Fatal("failed to load periods", zap.String("file", cfg.Grid.PeriodsFile), zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()

	api, err := upstream.New(upstream.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logr,
		Metrics: metrics,
	})
	if err != nil {
		logr.Fatal("failed to build api client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		redisClient *redis.Client
		sessions    session.Store           = session.NewMemoryStore()
		cacheRepo   service.CacheRepository = repository.NewMemoryCacheRepository()
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
		sessions = session.NewRedisStore(redisClient, logr)
		cacheRepo = repository.NewCacheRepository(redisClient, cacheNamespace, logr)
	}

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.References.CacheTTL, logr, true)
	references := service.NewReferenceService(api, cacheSvc, cfg.References.CacheTTL, logr)

	registry := timetable.NewRegistry(func() *timetable.Feed {
		return timetable.NewFeed(api, timetable.FeedConfig{
			Retries:    cfg.API.Retries,
			RetryDelay: cfg.API.RetryDelay,
			Logger:     logr,
			Clock:      clock,
		})
	})
	weeks := service.NewTimetableService(registry, api, metrics, service.TimetableConfig{
		Periods:    periods,
		RenderWait: cfg.Grid.RenderWait,
		Clock:      clock,
	}, logr)

	validate := validator.New()
	accounts := service.NewAccountService(api, validate, logr, service.AccountConfig{
		CredentialTTL: cfg.Session.TTL,
		Clock:         clock,
	})
	admin := service.NewAdminService(api, logr)
	calendar := service.NewCalendarService(api, logr)
	exports := service.NewExportService(logr, export.NewCSVExporter(export.WithBOM()), pdfExporter(cfg.Export), pngExporter(cfg.Export))

	maintenance, err := service.NewMaintenanceService(references, registry, service.MaintenanceConfig{
		RefreshSpec: cfg.References.RefreshCron,
		SweepSpec:   cfg.Grid.SweepCron,
		FeedTTL:     cfg.Grid.FeedIdleTTL,
		Workers:     cfg.References.Workers,
		RetryDelay:  cfg.API.RetryDelay,
	}, logr)
	if err != nil {
		logr.Fatal("failed to build maintenance", zap.Error(err))
	}

	if err := maintenance.Start(ctx); err != nil {
		logr.Fatal("failed to start maintenance", zap.Error(err))
	}
	defer maintenance.Stop()

	tmpl, err := web.Templates()
	if err != nil {
		logr.Fatal("failed to parse templates", zap.Error(err))
	}

	manager := session.NewManager(sessions, signer.New(cfg.Session.Secret), session.ManagerConfig{
		TTL:    cfg.Session.TTL,
		Clock:  clock,
		Logger: logr,
	})

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))
	r.MaxMultipartMemory = handler.MaxImportSize
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metrics))
	}
	r.Use(middleware.Audit(logr))
	r.Use(middleware.ClientHints(cfg.Variant, cfg.Grid.MobileBreakpoint))
	r.Use(middleware.Session(manager, middleware.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.Secure}, logr))

	checks := map[string]handler.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	handler.RegisterRoutes(r, cfg.Variant, handler.Handlers{
		Timetable:  handler.NewTimetableHandler(weeks, references, clock),
		References: handler.NewReferenceHandler(references, searchMinLength, clock),
		Calendar:   handler.NewCalendarHandler(calendar, references, previewLimit, clock),
		Export:     handler.NewExportHandler(weeks, exports, clock),
		Metrics:    handler.NewMetricsHandler(metrics, checks),
		Admin:      handler.NewAdminHandler(admin, maintenance, clock),
		Account:    handler.NewAccountHandler(accounts, clock, logr),
	}, clock)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "variant", cfg.Variant, "api", api.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// localClock reports the current time in the university's zone so that
// "today" and the current week follow local dates.
func localClock(zone string, logr *zap.Logger) func() time.Time {
	if zone == "" {
		return time.Now
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		logr.Warn("unknown timezone, using local", zap.String("timezone", zone), zap.Error(err))
		return time.Now
	}
	return func() time.Time { return time.Now().In(loc) }
}

func pdfExporter(cfg config.ExportConfig) *export.PDFExporter {
	if cfg.FontFile == "" {
		return export.NewPDFExporter()
	}
	return export.NewPDFExporterWithFont(cfg.FontFile)
}

func pngExporter(cfg config.ExportConfig) *export.PNGExporter {
	if cfg.FontFile == "" {
		return export.NewPNGExporter()
	}
	return export.NewPNGExporterWithFont(cfg.FontFile, exportFontSize)
}
