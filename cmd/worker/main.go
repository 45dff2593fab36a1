package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taskcal/taskcal/internal/config"
	"github.com/taskcal/taskcal/internal/db"
	"github.com/taskcal/taskcal/internal/notifications"
	"github.com/taskcal/taskcal/internal/observability"
	"github.com/taskcal/taskcal/internal/queue/redisclient"
	"github.com/taskcal/taskcal/internal/queue/worker"
	"github.com/taskcal/taskcal/internal/repo/postgres"
	workerhealth "github.com/taskcal/taskcal/internal/worker"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	sharesRepo := postgres.NewSharesRepo(pool)
	usersRepo := postgres.NewUsersRepo(pool)
	tasksRepo := postgres.NewTasksRepo(pool, prom)
	deliveries := postgres.NewDeliveriesRepo(pool)

	redisCl := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCl.Close()

	var waker worker.Waker

	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	if err := redisCl.Ping(pingCtx); err != nil {
		log.Warn("redis unreachable, polling only", "err", err)
	} else {
		waker = redisCl
	}
	cancelPing()

	var notifier notifications.Notifier

	if cfg.SMTPHost != "" {
		notifier = notifications.NewSMTPNotifier(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		log.Info("using SMTP notifier", "host", cfg.SMTPHost)
	} else {
		notifier = notifications.NewLogNotifier()
		log.Info("SMTP not configured, using log notifier")
	}

	notifier = notifications.NewProtectedNotifier(notifier, notifications.ProtectedNotifierConfig{
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 2,
	})

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval:  time.Second,
		WorkerID:      workerID,
		Concurrency:   4,
		ShutdownGrace: 10 * time.Second,
		Prom:          prom,
	}, jobsRepo, sharesRepo, usersRepo, tasksRepo, notifier, deliveries, waker, log)

	mux := http.NewServeMux()
	mux.Handle("/healthz", workerhealth.HealthHandler())
	mux.Handle("/readyz", workerhealth.ReadyHandler(pool, func() bool { return !w.Ready() }))
	mux.Handle("/metricsz", workerhealth.MetricsHandler(func() any { return w.Metrics().Snapshot() }))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)

		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker starting", "worker_id", workerID)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := healthSrv.Shutdown(sctx); err != nil {
		log.Error("health server shutdown failed", "err", err)
	}

	log.Info("worker shutdown complete")
}
