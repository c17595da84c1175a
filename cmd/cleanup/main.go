package main

import (
	"flag"
	"os"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/database"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/repository"
	"github.com/nexoraai/nexora_server/internal/service"
)

var dryRun = flag.Bool("dry-run", true, "Only report plans that would expire")

func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.L().Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log, cfg.Server.Mode)
	log := logger.WithComponent("cleanup").WithField("dry_run", *dryRun)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	planService := service.NewPlanService(repository.NewPlanRepository(db), cfg)
	count, err := planService.ExpireStale(*dryRun)
	if err != nil {
		log.WithError(err).WithField("expired", count).Fatal("Plan expiry failed")
	}

	if *dryRun {
		log.WithField("would_expire", count).Info("Dry run complete, run with -dry-run=false to apply")
		return
	}
	log.WithField("expired", count).Info("Plan expiry complete")
}
