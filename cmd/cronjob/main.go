package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/config"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/jobs"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/queue"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository/postgres"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/scheduler"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit ('relay-booking-events', 'reconcile-stock', 'all')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting inventory cronjob runner...", "log_level", cfg.Log.Level)

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	var publisher service.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		p := queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		defer p.Close()
		publisher = p
	} else {
		logger.Warn("RabbitMQ is not configured, booking events stay in the outbox")
	}

	jobRunner := jobs.NewJobRunner(&jobs.Services{
		Notifier:   service.NewLifecycleNotifier(store, store.ActivityLogRepository, store.BookingEventRepository, publisher),
		Reconciler: service.NewStockReconciler(store, store.EquipmentRepository, store.BookingRepository),
	}, cfg)

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "relay-booking-events":
		jobRunner.RelayBookingEvents()
	case "reconcile-stock":
		jobRunner.ReconcileStock()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - relay-booking-events\n")
		fmt.Printf("  - reconcile-stock\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
