package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	documentapp "github.com/lodgehr/backend/internal/application/document"
	onboardingapp "github.com/lodgehr/backend/internal/application/onboarding"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/validation"
	"github.com/lodgehr/backend/internal/infrastructure/cache"
	"github.com/lodgehr/backend/internal/infrastructure/config"
	"github.com/lodgehr/backend/internal/infrastructure/event"
	"github.com/lodgehr/backend/internal/infrastructure/logger"
	"github.com/lodgehr/backend/internal/infrastructure/notify"
	"github.com/lodgehr/backend/internal/infrastructure/persistence"
	"github.com/lodgehr/backend/internal/infrastructure/rendering"
	"github.com/lodgehr/backend/internal/infrastructure/storage"
	"github.com/lodgehr/backend/internal/interfaces/http/handler"
	"github.com/lodgehr/backend/internal/interfaces/http/middleware"
	"github.com/lodgehr/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Lodge HR Onboarding API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	sessionRepo := persistence.NewGormSessionRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)

	// Idempotency store for step save dedup
	dedupe, err := cache.NewIdempotencyStore(cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := dedupe.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Step catalog and validation rules
	registry, err := onboarding.NewStepRegistry(onboarding.DefaultCatalog())
	if err != nil {
		log.Fatal("Invalid step catalog", zap.Error(err))
	}
	resolver := onboarding.NewResolver(registry)

	validator, err := validation.NewEngine(validation.DefaultRuleSets())
	if err != nil {
		log.Fatal("Invalid validation rule sets", zap.Error(err))
	}

	// Rendering pipeline
	templates, err := rendering.NewTemplateStore()
	if err != nil {
		log.Fatal("Failed to load form templates", zap.Error(err))
	}
	renderer, err := rendering.NewChromedpRenderer(&rendering.ChromedpConfig{
		DefaultTimeout: cfg.Render.Timeout,
		ExecPath:       cfg.Render.ChromePath,
		Headless:       cfg.Render.Headless,
		NoSandbox:      os.Getuid() == 0,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()

	// Document storage
	docStore, err := storage.NewDocumentStore(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize document storage", zap.Error(err))
	}
	if s3Store, ok := docStore.(*storage.S3DocumentStore); ok {
		ensureCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := s3Store.EnsureBucket(ensureCtx); err != nil {
			cancel()
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		cancel()
	}

	// Application services
	sessionService := onboardingapp.NewSessionService(
		sessionRepo, documentRepo, resolver, validator, dedupe, log,
		onboardingapp.ServiceConfig{
			SessionTTL:   cfg.Session.TTL,
			TokenBytes:   cfg.Session.TokenBytes,
			SaveDedupTTL: cfg.Session.SaveDedupTTL,
		})
	documentService := documentapp.NewDocumentService(
		sessionRepo, documentRepo, resolver,
		templates, rendering.NewTemplateEngine(), rendering.NewFieldMapper(),
		renderer, docStore, log)

	// Event bus and notification handlers
	eventBus := event.NewInMemoryEventBus(log)
	notifier := notify.NewNotifier(cfg.Notify, log)
	eventBus.Subscribe(notify.NewSessionCompletedHandler(notifier, cfg.Notify, log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	sessionService.SetEventPublisher(eventBus)
	documentService.SetEventPublisher(eventBus)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Liveness endpoint outside API versioning for load balancers
	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler())
	r.Register(handler.NewOnboardingHandler(sessionService))
	r.Register(handler.NewDocumentHandler(documentService))
	r.Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
