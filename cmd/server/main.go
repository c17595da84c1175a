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

	"github.com/spf13/afero"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/api"
	"github.com/nexoraai/nexora_server/internal/api/handler"
	"github.com/nexoraai/nexora_server/internal/database"
	"github.com/nexoraai/nexora_server/internal/pkg/ai"
	"github.com/nexoraai/nexora_server/internal/pkg/billing"
	"github.com/nexoraai/nexora_server/internal/pkg/cron"
	"github.com/nexoraai/nexora_server/internal/pkg/email"
	"github.com/nexoraai/nexora_server/internal/pkg/graph"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/pkg/localstore"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/oauth"
	"github.com/nexoraai/nexora_server/internal/pkg/oss"
	"github.com/nexoraai/nexora_server/internal/pkg/pubsub"
	"github.com/nexoraai/nexora_server/internal/pkg/queue"
	"github.com/nexoraai/nexora_server/internal/pkg/ws"
	"github.com/nexoraai/nexora_server/internal/repository"
	"github.com/nexoraai/nexora_server/internal/service"
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
	log := logger.WithComponent("server")

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, cfg.Database.Driver); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}
	log.Info("Database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Info("Redis connected")

	// Repository
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	planRepo := repository.NewPlanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	historyRepo := repository.NewHistoryRepository(rdb, cfg.History.Limit)

	// Identity
	var provider identity.Provider
	switch cfg.Auth.Provider {
	case "local":
		provider = identity.NewLocalProvider(userRepo, cfg.JWT)
	default:
		sp, err := identity.NewSupabaseProvider(cfg.Supabase)
		if err != nil {
			log.Fatalf("Failed to init supabase auth: %v", err)
		}
		provider = sp
	}
	log.WithField("provider", cfg.Auth.Provider).Info("Identity provider ready")

	// Optional integrations
	var gateway billing.Gateway
	if mp, err := billing.NewMercadoPago(cfg.Checkout); err != nil {
		log.WithError(err).Warn("Checkout disabled")
	} else {
		gateway = mp
	}

	var archiver service.Archiver
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			log.WithError(err).Warn("Failed to init OSS client")
		} else {
			archiver = ossClient
			log.Info("OSS client initialized")
		}
	}

	store, err := localstore.New(afero.NewOsFs(), cfg.Storage.Dir)
	if err != nil {
		log.Fatalf("Failed to open storage dir: %v", err)
	}

	mailer := email.NewService(&cfg.Email)
	publisher := pubsub.NewPublisher(rdb)
	paymentQueue := queue.NewQueue(rdb, cfg.Queue.PaymentQueue)
	graphClient := graph.NewClient(cfg.Meta.GraphBaseURL, cfg.Meta.GraphVersion, 30*time.Second)

	// Service
	planService := service.NewPlanService(planRepo, cfg)
	authService := service.NewAuthService(provider, profileRepo, planService, mailer, cfg)
	profileService := service.NewProfileService(profileRepo, paymentRepo, planService)
	checkoutService := service.NewCheckoutService(gateway, planService, paymentRepo, paymentQueue, publisher, mailer, cfg)
	metaService := service.NewMetaService(oauth.NewMetaOAuth(cfg.Meta), oauth.NewStateStore(rdb), graphClient, store, cfg)
	historyService := service.NewHistoryService(historyRepo)
	generationService := service.NewGenerationService(ai.NewOpenAIClient(cfg.OpenAI), metaService, historyRepo, archiver, cfg)

	// Realtime plan events
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsHub := ws.NewHub()
	go func() {
		err := pubsub.NewSubscriber(rdb).Subscribe(ctx, func(event *pubsub.PlanEvent) {
			if !wsHub.IsOnline(event.UserID) {
				return
			}
			if err := wsHub.SendToUser(event.UserID, &ws.Message{Type: event.Type, Data: event}); err != nil {
				log.WithError(err).WithField("user_id", event.UserID).Warn("Failed to forward plan event")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Plan event subscription ended")
		}
	}()

	cronService := cron.NewService(planService, cron.DefaultSweepInterval)
	cronService.Start()
	defer cronService.Stop()

	// Handler
	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewProfileHandler(profileService),
		handler.NewGenerationHandler(generationService, cfg.Generation),
		handler.NewCheckoutHandler(checkoutService),
		handler.NewMetaHandler(metaService),
		handler.NewHistoryHandler(historyService),
		handler.NewWebSocketHandler(wsHub, provider, cfg.CORS.AllowedOrigins),
		handler.NewHealthHandler(wsHub, paymentQueue),
		provider,
		planService,
		cfg,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Received shutdown signal")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	log.Info("Server stopped")
}
