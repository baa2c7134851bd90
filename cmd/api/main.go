package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/api"
	"jobboard/internal/auth"
	"jobboard/internal/config"
	"jobboard/internal/contact"
	"jobboard/internal/database"
	"jobboard/internal/events"
	"jobboard/internal/identity"
	"jobboard/internal/listing"
	"jobboard/internal/notify"
	"jobboard/internal/storage"
	"jobboard/internal/taxonomy"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	log.Printf("api bootstrapped with db host=%s port=%d db=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Printf("database connection ready")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	log.Printf("database migrated")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	authService, err := loadAuthService(cfg.Auth)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	notifier := buildNotifier(cfg, asynqClient)
	publisher := events.NewRedisPublisher(redisClient)
	gate := identity.NewGate(db, identity.WithWindow(cfg.Listing.ExpiryWindow))

	listingOpts := []listing.Option{
		listing.WithLogger(logger),
		listing.WithNotifier(notifier),
		listing.WithEvents(publisher),
		listing.WithGate(gate),
		listing.WithExpiryWindow(cfg.Listing.ExpiryWindow),
		listing.WithStrictStatus(cfg.API.StrictStatusFilter),
		listing.WithEnforcePaymentProof(cfg.API.EnforcePaymentProof),
		listing.WithSweepOnRead(cfg.Listing.SweepOnRead),
	}

	services := api.Services{
		DB:       db,
		Redis:    redisClient,
		Auth:     authService,
		Jobs:     listing.NewJobService(db, listingOpts...),
		Seekers:  listing.NewSeekerService(db, listingOpts...),
		Gate:     gate,
		Taxonomy: taxonomy.NewService(db, logger),
		Contacts: contact.NewService(db),
		Storage:  storageClient,
		Logger:   logger,
	}
	if cfg.Upload.ClamdAddr != "" {
		services.Scanner = api.NewClamdScanner(cfg.Upload.ClamdAddr)
	}

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, cfg, services)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address), slog.String("notify_mode", cfg.Notify.Mode))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}

func loadAuthService(cfg config.AuthConfig) (*auth.AuthService, error) {
	privatePEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	publicPEM, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return auth.NewAuthService(privatePEM, publicPEM, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

func buildNotifier(cfg *config.Config, client *asynq.Client) notify.Notifier {
	switch cfg.Notify.Mode {
	case "queue":
		return notify.NewQueueNotifier(client)
	case "disabled":
		return notify.Disabled{}
	default:
		return notify.NewMailer(cfg.SMTP)
	}
}
