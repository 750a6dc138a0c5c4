package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application Layer
	appService "reminder/internal/application/service"

	// Infrastructure Layer
	"reminder/internal/infrastructure/database/sqlite"
	lineClient "reminder/internal/infrastructure/line"
	"reminder/internal/infrastructure/notifier"
	"reminder/internal/infrastructure/scheduler"

	// Interfaces Layer
	"reminder/internal/interfaces/api/handler"
	"reminder/internal/interfaces/api/router"

	// Packages
	"reminder/internal/pkg/config"
	appLogger "reminder/internal/pkg/logger"
	"reminder/internal/pkg/metrics"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

func gracefulShutdown(apiServer *http.Server, schedulerSvc appService.NotificationScheduler, db *gorm.DB, log appLogger.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("Shutting down gracefully, press Ctrl+C again to force")

	// Stop accepting requests before the store goes away.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err)
	}

	log.Info("Stopping scheduler...")
	schedulerSvc.Stop()

	log.Info("Closing database connection...")
	if err := sqlite.CloseDB(db); err != nil {
		log.Error("Error closing database", err)
	}

	log.Info("Server exiting")
	done <- true
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load(os.Getenv(config.PathEnv))
	if err != nil {
		appLogger.New(appLogger.LevelInfo).Error("Failed to load configuration", err)
		os.Exit(1)
	}
	appLog := appLogger.New(appLogger.ParseLevel(cfg.Log.Level))
	appLog.Info("Logger initialized.")

	// --- Infrastructure ---
	db, err := sqlite.NewDB(sqlite.Options{Path: cfg.Database.Path, LogSQL: cfg.Database.LogSQL, LogOutput: os.Stdout})
	if err != nil {
		appLog.Error("Failed to open database", err)
		os.Exit(1)
	}
	reminderRepo := sqlite.NewReminderRepository(db)
	appLog.Info(fmt.Sprintf("Database initialized at %s.", cfg.Database.Path))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer, err := metrics.NewPrometheusObserver("reminder", registry)
	if err != nil {
		appLog.Error("Failed to register metrics", err)
		os.Exit(1)
	}

	var line *lineClient.Client
	var deliverer appService.Deliverer = notifier.NewLogDeliverer(appLog)
	if cfg.Line.Enabled() {
		line, err = lineClient.NewClient(cfg.Line.ChannelSecret, cfg.Line.ChannelAccessToken, appLog)
		if err != nil {
			appLog.Error("Failed to create LINE Bot client", err)
			os.Exit(1)
		}
		if cfg.Line.UserID != "" {
			deliverer = lineClient.NewPushDeliverer(line, cfg.Line.UserID)
			appLog.Info(fmt.Sprintf("Notifications will be pushed to LINE user %s.", cfg.Line.UserID))
		}
	} else {
		appLog.Warn("LINE credentials not set, webhook disabled and notifications only logged.")
	}

	cronScheduler := scheduler.NewScheduler(appLog)

	// --- Application Services ---
	schedulerSvc := appService.NewSchedulerService(
		cronScheduler,
		deliverer,
		notifier.NewStaticAuthorizer(cfg.Notifications.Enabled),
		observer,
		appLog,
	)
	reminderSvc := appService.NewReminderService(reminderRepo, schedulerSvc, observer, appLog)
	appLog.Info("Application services initialized.")

	// --- Initialize Schedules ---
	if err := reminderSvc.InitializeSchedules(context.Background()); err != nil {
		// Log the error but continue starting the server
		appLog.Error("Failed to initialize schedules on startup", err)
	}

	if spec := cfg.Notifications.ExpirySweepSpec; spec != "" {
		_, err := cronScheduler.AddJob(spec, func() {
			if _, err := reminderSvc.DeleteExpired(context.Background()); err != nil {
				appLog.Error("Scheduled expiry sweep failed", err)
			}
		})
		if err != nil {
			appLog.Error("Failed to schedule expiry sweep", err)
			os.Exit(1)
		}
	}

	// External change signal: webhook postbacks feed the service's watch loop.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	changes := make(chan string, 16)
	go reminderSvc.Watch(watchCtx, changes)

	// --- API Handlers ---
	routerCfg := &router.Config{
		ReminderHandler: handler.NewReminderHandler(reminderSvc, schedulerSvc, appLog),
		Logger:          appLog,
		Gatherer:        registry,
	}
	if line != nil {
		routerCfg.LineHandler = handler.NewLineHandler(line, reminderSvc, changes, appLog)
	}
	echoRouter := router.NewRouter(routerCfg)

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// --- Start Server & Shutdown Handling ---
	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, schedulerSvc, db, appLog, done)

	appLog.Info(fmt.Sprintf("Server starting on %s", apiServer.Addr))
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("HTTP server ListenAndServe error", err)
		os.Exit(1)
	}

	// Wait for graceful shutdown signal
	<-done
	appLog.Info("Graceful shutdown complete.")
}
