package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/petrocom/permit-workflow/internal/application/dispatcher"
	"github.com/petrocom/permit-workflow/internal/application/engine"
	"github.com/petrocom/permit-workflow/internal/application/gate"
	"github.com/petrocom/permit-workflow/internal/application/service"
	"github.com/petrocom/permit-workflow/internal/config"
	"github.com/petrocom/permit-workflow/internal/domain/catalog"
	"github.com/petrocom/permit-workflow/internal/infrastructure/persistence/repository"
	"github.com/petrocom/permit-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/petrocom/permit-workflow/internal/infrastructure/worker"
	transport "github.com/petrocom/permit-workflow/internal/transport/http"
	"github.com/petrocom/permit-workflow/pkg/database"
	"github.com/petrocom/permit-workflow/pkg/utils"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting permit workflow service",
		zap.Int("port", cfg.Server.Port),
		zap.Duration("escalation_interval", cfg.Escalation.ScanInterval))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(database.Schema()); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	kvLogger := utils.NewKVLogger(logger)
	txManager := sqlite.NewDB(db.DB, logger)

	appRepo := repository.NewApplicationRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	paymentRepo := repository.NewPaymentConfirmationRepository(db.DB, logger)
	documentRepo := repository.NewDocumentVerificationRepository(db.DB, logger)

	workflowCatalog := catalog.Default()

	eventDispatcher := dispatcher.NewDispatcher(dispatcher.WithLogger(kvLogger))
	defer eventDispatcher.Close()

	paymentGate := gate.NewPaymentGate(paymentRepo, kvLogger)
	paymentGate.SubscribeInvalidation(eventDispatcher)
	documentGate := gate.NewDocumentGate(documentRepo, kvLogger)
	documentGate.SubscribeInvalidation(eventDispatcher)

	notificationService := service.NewNotificationService(workflowCatalog, notificationRepo, kvLogger)

	transitionEngine := engine.NewEngine(
		workflowCatalog,
		appRepo,
		auditRepo,
		txManager,
		paymentGate,
		documentGate,
		kvLogger,
		engine.WithNotifier(notificationService),
		engine.WithDispatcher(eventDispatcher),
	)

	applicationService := service.NewApplicationService(
		workflowCatalog,
		appRepo,
		auditRepo,
		txManager,
		notificationService,
		eventDispatcher,
		kvLogger,
	)

	escalationMonitor := worker.NewEscalationMonitor(
		appRepo,
		workflowCatalog,
		transitionEngine,
		cfg.Escalation.ScanInterval,
		logger,
	)

	workerManager := worker.NewManager(logger)
	workerManager.Register(escalationMonitor)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := workerManager.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	webhooks := transport.NewPaymentWebhook(paymentRepo, documentRepo, eventDispatcher, logger)
	handler := transport.NewHandler(applicationService, transitionEngine, notificationService, webhooks, logger)
	router := transport.NewRouter(handler, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := workerManager.StopAll(); err != nil {
		logger.Error("Worker shutdown failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
