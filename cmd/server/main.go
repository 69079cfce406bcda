package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/config"
	"github.com/fadilmartias/assessment-proctor/internal/domain/fiber/handler"
	applogger "github.com/fadilmartias/assessment-proctor/internal/logger"
	"github.com/fadilmartias/assessment-proctor/internal/middleware"
	"github.com/fadilmartias/assessment-proctor/internal/model"
	"github.com/fadilmartias/assessment-proctor/internal/observability"
	"github.com/fadilmartias/assessment-proctor/internal/repository"
	"github.com/fadilmartias/assessment-proctor/internal/service"
	"github.com/fadilmartias/assessment-proctor/internal/usecase"
	"github.com/fadilmartias/assessment-proctor/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	zlog, err := applogger.New(appConfig.LogJSON, appConfig.LogDebug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}
			return util.ErrorResponse(c, util.ErrorResponseFormat{Code: code, Message: message}, err)
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.RecruiterPasscodeHeader,
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(appConfig.RateLimitMax, appConfig.RateLimitWindow))

	metrics := observability.NewMetrics("assessment")
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	db := ConnectDB()
	submissionRepo := repository.NewSubmissionRepository(db)
	usedTokenRepo := repository.NewUsedTokenRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	creds := config.CredentialsFromEnv(settingRepo)
	if err := creds.Refresh(runCtx); err != nil {
		zlog.Warn("initial credential refresh incomplete", zap.Error(err))
	}
	creds.Watch(runCtx, config.LoadAIConfig().CredentialsRefresh, func(err error) {
		zlog.Warn("credential refresh failed", zap.Error(err))
	})

	orchestrator := newOrchestrator(creds, metrics, zlog)
	catalog := assessment.DefaultCatalog()

	subDeps := usecase.SubmissionDeps{
		Submissions: submissionRepo,
		Tokens:      usedTokenRepo,
		Reports:     orchestrator,
		Metrics:     metrics,
		Company:     appConfig.CompanyName,
	}
	if rdb := ConnectRedis(runCtx, zlog); rdb != nil {
		defer rdb.Close()
		subDeps.Guard = repository.NewRedisRedemptionGuard(rdb, config.LoadRedisConfig().ClaimTTL)
	}

	settingsUC := usecase.NewSettingsUsecase(settingRepo, catalog, creds, zlog.Named("settings"))
	submissionUC := usecase.NewSubmissionUsecase(subDeps, zlog.Named("submission"))

	manager := assessment.NewManager(appConfig.SessionInactivityTTL)
	manager.StartJanitor(runCtx, appConfig.JanitorInterval)

	proctoringConfig := config.LoadProctoringConfig()
	assessmentUC := usecase.NewAssessmentUsecase(usecase.AssessmentDeps{
		Manager:      manager,
		Catalog:      catalog,
		Conversation: orchestrator,
		Submissions:  submissionUC,
		Settings:     settingsUC,
		Metrics:      metrics,
	}, usecase.AssessmentConfig{
		Thresholds:        proctoringConfig.Thresholds(),
		Capabilities:      proctoringConfig.Capabilities(),
		RecruiterPasscode: appConfig.RecruiterPasscode,
		BaseURL:           appConfig.BaseURL,
		Company:           appConfig.CompanyName,
	}, zlog.Named("assessment"))
	if appConfig.RecruiterPasscode == "" {
		zlog.Warn("RECRUITER_PASSCODE is empty, recruiter access is disabled")
	}

	api := app.Group("/api")
	handler.NewAssessmentHandler(assessmentUC).RegisterRoutes(api)
	handler.NewRecruiterHandler(assessmentUC, submissionUC, settingsUC).
		RegisterRoutes(api, middleware.RecruiterAuth(assessmentUC.VerifyPasscode))

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				zlog.Debug("runtime stats",
					zap.Int("goroutines", runtime.NumGoroutine()),
					zap.Int("active_sessions", manager.ActiveCount()))
			}
		}
	}()

	go func() {
		zlog.Info("server running", zap.String("addr", appConfig.Port))
		if err := app.Listen(appConfig.Port); err != nil {
			zlog.Fatal("listen failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	zlog.Info("shutdown signal received")

	runCancel()
	if err := app.ShutdownWithTimeout(appConfig.ShutdownTimeout); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
	zlog.Info("shutdown complete")
}

// newOrchestrator wires the enabled providers in fallback order: Gemini, OpenRouter, NVIDIA.
func newOrchestrator(creds *config.ProviderCredentials, metrics *observability.Metrics, zlog *zap.Logger) *service.AIOrchestrator {
	aiConfig := config.LoadAIConfig()
	var (
		conversation []service.ConversationProvider
		reports      []service.ReportProvider
	)

	if cfg := config.LoadGeminiConfig(); cfg.Enabled {
		gemini := service.NewGeminiService(cfg, creds, zlog)
		gemini.Temperature = float32(aiConfig.Temperature)
		conversation = append(conversation, gemini)
		reports = append(reports, gemini)
	}
	if cfg := config.LoadOpenRouterConfig(); cfg.Enabled {
		openRouter := service.NewOpenRouterService(cfg, creds, zlog)
		openRouter.Temperature = aiConfig.Temperature
		conversation = append(conversation, openRouter)
		reports = append(reports, openRouter)
	}
	if cfg := config.LoadNvidiaConfig(); cfg.Enabled {
		nvidia := service.NewNvidiaService(cfg, creds, zlog)
		nvidia.Temperature = aiConfig.Temperature
		conversation = append(conversation, nvidia)
		reports = append(reports, nvidia)
	}
	zlog.Info("AI providers configured",
		zap.Int("conversation", len(conversation)),
		zap.Int("report", len(reports)))

	return service.NewAIOrchestrator(service.OrchestratorOptions{
		Conversation:   conversation,
		Reports:        reports,
		AttemptTimeout: aiConfig.AttemptTimeout,
		Metrics:        metrics,
	}, zlog.Named("ai"))
}

func ConnectDB() *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		log.Fatalf("Could not get database instance: %v", err)
	}
	if !appConfig.IsProduction() {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	err = db.AutoMigrate(&model.Submission{}, &model.UsedToken{}, &model.SystemSetting{})
	if err != nil {
		log.Fatal("migration failed: ", err)
	}
	return db
}

// ConnectRedis returns nil when redis is not configured or unreachable; redemption then
// relies on the database alone.
func ConnectRedis(ctx context.Context, zlog *zap.Logger) *redis.Client {
	cfg := config.LoadRedisConfig()
	if !cfg.Enabled() {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		zlog.Warn("redis unavailable, redemption claims disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	return rdb
}
