package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/mealdash/internal/adapter/logger"
	"github.com/YelzhanWeb/mealdash/internal/adapter/postgres"
	"github.com/YelzhanWeb/mealdash/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/mealdash/internal/app/browse"
	"github.com/YelzhanWeb/mealdash/internal/app/dispatch"
	"github.com/YelzhanWeb/mealdash/internal/app/order"
	"github.com/YelzhanWeb/mealdash/internal/config"

	amqpAdapter "github.com/YelzhanWeb/mealdash/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/mealdash/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Service mode: api, dispatch-worker, notification-subscriber")
	port := flag.Int("port", 3000, "HTTP port")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	courierName := flag.String("courier-name", "", "Courier name (for dispatch-worker)")
	zones := flag.String("zones", "", "Comma-separated delivery zones (for dispatch-worker)")
	heartbeatInterval := flag.Int("heartbeat-interval", 30, "Heartbeat interval in seconds")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Initialize logger
	lgr := logger.New(*mode)

	// Connect to PostgreSQL
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	// Connect to RabbitMQ
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	// Route to appropriate service
	switch *mode {
	case "api":
		runAPI(db, mqConn, lgr, cfg, *port)

	case "dispatch-worker":
		if *courierName == "" {
			log.Fatal("--courier-name is required for dispatch-worker mode")
		}
		runDispatchWorker(ctx, db, mqConn, lgr, cfg, *courierName, *zones, *heartbeatInterval, *prefetch)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, mqConn, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runAPI(db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, cfg *config.Config, port int) {
	fees, err := cfg.Pricing.FeeSchedule()
	if err != nil {
		log.Fatalf("Invalid pricing config: %v", err)
	}

	// Initialize repositories
	orderRepo := postgres.NewOrderRepository(db)
	courierRepo := postgres.NewCourierRepository(db)
	mealRepo := postgres.NewMealRepository(db)

	// Initialize messaging
	publisher := rabbitmq.NewPublisher(mqConn)

	// Initialize services
	orderService := order.NewService(orderRepo, mealRepo, courierRepo, publisher, lgr, fees)
	browseService := browse.NewService(orderRepo, courierRepo, lgr)

	// Initialize HTTP handlers
	orderHandler := httpAdapter.NewOrderHandler(orderService, lgr)
	browseHandler := httpAdapter.NewBrowseHandler(browseService, lgr)

	handler := httpAdapter.NewRouter(orderHandler, browseHandler, []byte(cfg.Auth.JWTSecret), lgr)

	if cfg.HTTP.Port != 0 {
		port = cfg.HTTP.Port
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("API started on port %d", port), "startup", map[string]interface{}{
		"port": port,
	})

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down API", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runDispatchWorker(ctx context.Context, db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, cfg *config.Config, courierName, zones string, heartbeatInterval, prefetch int) {
	fees, err := cfg.Pricing.FeeSchedule()
	if err != nil {
		log.Fatalf("Invalid pricing config: %v", err)
	}

	// Initialize repositories
	orderRepo := postgres.NewOrderRepository(db)
	courierRepo := postgres.NewCourierRepository(db)
	mealRepo := postgres.NewMealRepository(db)

	// Initialize messaging
	publisher := rabbitmq.NewPublisher(mqConn)
	consumer := rabbitmq.NewConsumer(mqConn, prefetch)

	// Initialize services
	orderService := order.NewService(orderRepo, mealRepo, courierRepo, publisher, lgr, fees)
	dispatchService := dispatch.NewService(courierRepo, orderService, lgr, courierName, zones, heartbeatInterval)

	// Initialize AMQP handler
	offerHandler := amqpAdapter.NewOfferHandler(dispatchService, lgr)

	// Start worker
	if err := dispatchService.Start(ctx); err != nil {
		log.Fatalf("Failed to start dispatch worker: %v", err)
	}

	lgr.Info("service_started", fmt.Sprintf("Dispatch Worker %s started", courierName), "startup", map[string]interface{}{
		"courier_name": courierName,
		"zones":        zones,
		"prefetch":     prefetch,
	})

	// Start consuming messages
	go func() {
		if err := consumer.ConsumeDeliveryOffers(ctx, offerHandler.HandleOffer); err != nil {
			lgr.Error("consumer_error", "Error consuming delivery offers", "runtime", nil, err)
		}
	}()

	// Wait for shutdown signal
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("graceful_shutdown", "Shutting down Dispatch Worker", "shutdown", nil)

	if err := dispatchService.Shutdown(ctx); err != nil {
		lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
	}
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger) {
	// Initialize consumer
	consumer := rabbitmq.NewConsumer(mqConn, 1)

	// Initialize handler
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	// Start consuming notifications
	go func() {
		if err := consumer.ConsumeStatusUpdates(ctx, notificationHandler.HandleNotification); err != nil {
			lgr.Error("consumer_error", "Error consuming status updates", "runtime", nil, err)
		}
	}()

	// Wait for shutdown signal
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}
