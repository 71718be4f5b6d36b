package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/application/service"
	"timebill/internal/config"
	"timebill/internal/export"
	"timebill/internal/infrastructure/persistence/repository"
	"timebill/internal/infrastructure/persistence/sqlite"
	httpserver "timebill/internal/interfaces/http"
	"timebill/pkg/database"
	"timebill/pkg/utils"
)

func main() {
	gotenv.Load()

	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
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

	logger.Info("Starting time tracking and billing service",
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

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

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	txManager := sqlite.NewDB(db.DB, logger)
	entryRepo := repository.NewTimeEntryRepository(db.DB, logger)
	expenseRepo := repository.NewExpenseRepository(db.DB, logger)
	projectRepo := repository.NewProjectRepository(db.DB, logger)
	clientRepo := repository.NewClientRepository(db.DB, logger)
	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)
	paymentRepo := repository.NewPaymentRepository(db.DB, logger)

	// Initialize services
	clock := port.SystemClock{}
	timerService := service.NewTimerService(entryRepo, projectRepo, txManager, clock, logger)
	entryService := service.NewTimeEntryService(entryRepo, projectRepo, txManager, clock, logger)
	expenseService := service.NewExpenseService(expenseRepo, projectRepo, clock, logger)
	clientService := service.NewClientService(clientRepo, clock, logger)
	projectService := service.NewProjectService(projectRepo, clientRepo, clock, logger)
	invoiceService := service.NewInvoiceService(invoiceRepo, paymentRepo, clientRepo, txManager, clock, logger)
	reportService := service.NewReportService(entryRepo, expenseRepo, invoiceRepo, projectRepo, clientRepo, logger)
	notificationService := service.NewNotificationService(invoiceRepo, entryRepo, paymentRepo, logger)

	exporter := export.NewExcelExporter(logger)

	// Initialize HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		timerService,
		entryService,
		expenseService,
		clientService,
		projectService,
		invoiceService,
		reportService,
		notificationService,
		exporter,
		httpserver.BillingDefaults{
			TaxRate: cfg.Billing.DefaultTaxRate,
			DueDays: cfg.Billing.DefaultDueDays,
		},
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server error", zap.Error(err))
	}

	logger.Info("Server exited")
}
