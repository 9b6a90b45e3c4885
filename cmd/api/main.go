package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/spendlog/backend/docs"
	"github.com/spendlog/backend/internal/config"
	"github.com/spendlog/backend/internal/database"
	"github.com/spendlog/backend/internal/handler"
	"github.com/spendlog/backend/internal/logger"
	"github.com/spendlog/backend/internal/recurrence"
	"github.com/spendlog/backend/internal/repository"
	"github.com/spendlog/backend/internal/scheduler"
	"github.com/spendlog/backend/internal/service"
)

// @title SpendLog API
// @version 1.0
// @description Personal expense tracker: one-off and recurring expenses, category registries, occasional groups, yearly goals and statistics.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup structured logger
	log := logger.Setup(cfg.Env)

	policy, err := recurrence.ParsePolicy(cfg.OccurrenceDeletePolicy)
	if err != nil {
		log.Error("Invalid occurrence delete policy", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if cfg.RunMigrations {
		if err := database.Migrate(db); err != nil {
			log.Error("Failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if v, dirty, err := database.Version(db); err == nil {
			log.Info("Database schema ready", slog.Uint64("version", uint64(v)), slog.Bool("dirty", dirty))
		}
	}

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db)
	groupRepo := repository.NewOccasionalGroupRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	recurringRepo := repository.NewRecurringRepository(db)
	financialYearRepo := repository.NewFinancialYearRepository(db)

	// Initialize services
	recurringService := service.NewRecurringService(recurringRepo, expenseRepo, categoryRepo, groupRepo, policy)
	expenseService := service.NewExpenseService(expenseRepo, categoryRepo, groupRepo, recurringService)
	categoryService := service.NewCategoryService(categoryRepo)
	groupService := service.NewOccasionalGroupService(groupRepo)
	financialYearService := service.NewFinancialYearService(financialYearRepo)
	statsService := service.NewStatsService(expenseRepo, financialYearService, recurringService)
	exportService := service.NewExportService(expenseService, statsService, cfg.Currency)

	router := handler.NewRouter(cfg.AllowedOrigins, handler.Handlers{
		Expense:       handler.NewExpenseHandler(expenseService),
		Recurring:     handler.NewRecurringHandler(recurringService),
		Stats:         handler.NewStatsHandler(statsService),
		Category:      handler.NewCategoryHandler(categoryService),
		Group:         handler.NewOccasionalGroupHandler(groupService),
		FinancialYear: handler.NewFinancialYearHandler(financialYearService),
		Export:        handler.NewExportHandler(exportService),
	})

	// Occurrence sweep
	sweep := scheduler.New(scheduler.Config{
		Schedule: cfg.SweepSchedule,
		Timeout:  cfg.SweepTimeout,
		Enabled:  cfg.SweepEnabled,
	}, recurringService)
	if err := sweep.Start(); err != nil {
		log.Error("Failed to start occurrence sweep", slog.String("error", err.Error()))
	} else if cfg.SweepEnabled {
		// Catch up on months missed while the server was down.
		sweep.RunNow()
	}

	// Create server
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	idle := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down server...")

		// Stop scheduler first
		<-sweep.Stop().Done()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Server shutdown error", slog.String("error", err.Error()))
		}
		close(idle)
	}()

	log.Info("Server starting", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	<-idle
}
