package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/database"
	"github.com/nexoraai/nexora_server/internal/pkg/billing"
	"github.com/nexoraai/nexora_server/internal/pkg/email"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/pubsub"
	"github.com/nexoraai/nexora_server/internal/pkg/queue"
	"github.com/nexoraai/nexora_server/internal/repository"
	"github.com/nexoraai/nexora_server/internal/service"
	"github.com/nexoraai/nexora_server/internal/worker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.L().Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log, cfg.Server.Mode)
	log := logger.WithComponent("worker")

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Info("Database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Info("Redis connected")

	gateway, err := billing.NewMercadoPago(cfg.Checkout)
	if err != nil {
		log.Fatalf("Failed to init checkout: %v", err)
	}

	paymentQueue := queue.NewQueue(rdb, cfg.Queue.PaymentQueue)
	publisher := pubsub.NewPublisher(rdb)

	planService := service.NewPlanService(repository.NewPlanRepository(db), cfg)
	// the worker never enqueues, so payments are processed inline
	checkoutService := service.NewCheckoutService(gateway, planService, repository.NewPaymentRepository(db), nil, publisher, email.NewService(&cfg.Email), cfg)

	processor := worker.NewProcessor(checkoutService, paymentQueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal")
		cancel()
	}()

	if backlog, err := paymentQueue.Length(ctx); err == nil {
		log.WithField("backlog", backlog).Info("Payment queue inspected")
	}
	log.Infof("Worker started, max workers: %d", cfg.Queue.MaxWorkers)
	processor.Run(ctx, cfg.Queue.MaxWorkers)
	log.Info("Worker shutdown complete")
}
