package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobboard/internal/config"
	"jobboard/internal/database"
	"jobboard/internal/listing"
	"jobboard/internal/metrics"
	"jobboard/internal/notify"
	"jobboard/internal/tasks"
	"jobboard/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password}

	// 定时任务只做过期清理，不触发读时清理。
	jobs := listing.NewJobService(db,
		listing.WithLogger(logger),
		listing.WithExpiryWindow(cfg.Listing.ExpiryWindow),
		listing.WithSweepOnRead(false),
	)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeApprovalEmail, worker.NewApprovalEmailHandler(notify.NewMailer(cfg.SMTP), logger))
	mux.Handle(tasks.TypeExpirySweep, worker.NewExpirySweepHandler(jobs, logger))

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues: map[string]int{
			tasks.QueueNotify:      6,
			tasks.QueueMaintenance: 1,
		},
	})

	scheduler := asynq.NewScheduler(redisOpt, nil)
	entryID, err := scheduler.Register(cfg.Listing.SweepCron, tasks.NewExpirySweepTask())
	if err != nil {
		log.Fatalf("register expiry sweep: %v", err)
	}
	logger.Info("expiry sweep scheduled", slog.String("cron", cfg.Listing.SweepCron), slog.String("entry_id", entryID))

	if err := server.Start(mux); err != nil {
		log.Fatalf("start worker server: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("start scheduler: %v", err)
	}
	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))

	var metricsServer *http.Server
	if cfg.Worker.MetricsPort > 0 {
		httpMux := http.NewServeMux()
		httpMux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Worker.MetricsPort), Handler: httpMux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("worker metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("worker shutting down")
	scheduler.Shutdown()
	server.Shutdown()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(context.Background())
	}
}
