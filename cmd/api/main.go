package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/api/handlers"
	"github.com/krug-analyzer/backend/internal/app"
	"github.com/krug-analyzer/backend/internal/metrics"
	"github.com/krug-analyzer/backend/internal/middleware/ratelimit"
	"github.com/krug-analyzer/backend/internal/middleware/security"
	"github.com/krug-analyzer/backend/internal/middleware/validation"
	"github.com/krug-analyzer/backend/pkg/config"
	appLogger "github.com/krug-analyzer/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Krug Analyzer API Server")

	metrics.Init()

	ctx := context.Background()
	application, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		appLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.AllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	fiberApp.Use(security.HeadersMiddleware(security.HeadersConfig{
		ConnectSources: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Development,
	}))

	fiberApp.Get("/metrics", metrics.MetricsHandler())

	limiterCfg := ratelimit.Config{
		Name:                 "analyze",
		MaxRequestsPerMinute: cfg.RateLimit.AnalyzePerMinute,
		Logger:               appLogger.GetLogger(),
	}
	if application.Redis != nil {
		limiterCfg.Shared = application.Redis
	}
	limiter := ratelimit.New(limiterCfg)
	defer limiter.Stop()

	analysisHandler := handlers.NewAnalysisHandler(application.Analyzer, application.Settings, application.Defaults)

	api := fiberApp.Group("/api/v1")
	api.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	handlers.Register(api, handlers.Routes{
		Analysis:     analysisHandler,
		WebSocket:    handlers.NewWebSocketHandler(analysisHandler),
		History:      handlers.NewHistoryHandler(application.History),
		Settings:     handlers.NewSettingsHandler(application.Settings, application.Defaults),
		AnalyzeLimit: limiter.Middleware(),
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return application.Ready(ctx)
		},
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := fiberApp.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	fiberApp.ShutdownWithTimeout(10 * time.Second)
	appLogger.Info("Server stopped")
}
