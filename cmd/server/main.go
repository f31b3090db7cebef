package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	api "github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/api/grpc"
	httpapi "github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/api/http"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/config"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/queue"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository/postgres"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/security"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", false, "Apply the database schema before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting inventory reservation service...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.GetServerAddress(), "grpc", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrate || cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema applied")
	}

	store := postgres.NewStore(db)

	var publisher service.EventPublisher
	var amqpPublisher *queue.Publisher
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher = queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		publisher = amqpPublisher
	} else {
		logger.Warn("RabbitMQ is not configured, booking events stay in the outbox")
	}

	ledger := service.NewStockLedger(store.EquipmentRepository, store.StockMovementRepository)
	pricing := service.NewPricingCalculator(store, store.EquipmentRepository)
	availability := service.NewAvailabilityChecker(store, store.EquipmentRepository, store.BookingRepository)
	units := service.NewUnitService(store, store.EquipmentRepository, store.EquipmentUnitRepository, store.ActivityLogRepository, ledger)
	notifier := service.NewLifecycleNotifier(store, store.ActivityLogRepository, store.BookingEventRepository, publisher)
	customers := service.NewCustomerDirectory(store, store.CustomerRepository)

	bookings := service.NewBookingService(service.BookingDependencies{
		Tx:           store,
		Bookings:     store.BookingRepository,
		Equipment:    store.EquipmentRepository,
		Movements:    store.StockMovementRepository,
		Activity:     store.ActivityLogRepository,
		Ledger:       ledger,
		Availability: availability,
		Pricing:      pricing,
		Units:        units,
		Notifier:     notifier,
		Customers:    customers,
		PlanLimiter:  service.NewPlanLimiter(store.TenantPlanRepository, store.BookingRepository),
	}, service.BookingOptions{
		ReleaseUnitsOnComplete: cfg.Booking.ReleaseUnitsOnComplete,
		MaxItemsPerBooking:     cfg.Booking.MaxItemsPerBooking,
	})
	equipment := service.NewEquipmentService(store, store.EquipmentRepository, store.StockMovementRepository, store.ActivityLogRepository, ledger)

	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	var wg sync.WaitGroup

	if cfg.RabbitMQ.ConsumerEnabled {
		consumer, closeConsumer, err := newConsumer(ctx, cfg, customers)
		if err != nil {
			log.Fatalf("Failed to start booking event consumer: %v", err)
		}
		defer closeConsumer()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Booking event consumer stopped", "error", err)
			}
		}()
	}

	router := httpapi.NewRouter(httpapi.Services{
		Bookings:     bookings,
		Equipment:    equipment,
		Units:        units,
		Availability: availability,
		Pricing:      pricing,
	}, tokenManager, db)
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := api.NewServer(tokenManager, db)
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		logger.Info("gRPC server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		grpcServer.WatchHealth(ctx, 15*time.Second)
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	grpcServer.Shutdown()
	wg.Wait()

	if amqpPublisher != nil {
		amqpPublisher.Close()
	}
	logger.Info("Server stopped")
}

// newConsumer wires the broker consumer to the Redis deduplicator and SendGrid.
func newConsumer(ctx context.Context, cfg *config.Config, customers service.CustomerDirectory) (*queue.Consumer, func(), error) {
	redisClient, err := queue.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	ttl := time.Duration(cfg.Redis.DedupeTTLMinutes) * time.Minute
	emailSvc := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	handler := service.NewBookingEventHandler(customers, emailSvc)

	consumer := queue.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, cfg.RabbitMQ.Prefetch, handler, queue.NewRedisDeduplicator(redisClient, ttl))
	return consumer, func() { _ = redisClient.Close() }, nil
}
