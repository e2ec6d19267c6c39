package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"camwatch/internal/adapters/repo"
	"camwatch/internal/infra/config"
	"camwatch/internal/infra/db"
	applog "camwatch/internal/infra/log"
	"camwatch/internal/infra/metrics"
	"camwatch/internal/infra/queue"
	checkusecase "camwatch/internal/usecase/check"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, applog.Component(logger, "metrics"), ":9090")

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	checkQueue, err := queue.New(cfg.Queues.Backend, cfg.RedisAddr, cfg.RabbitURL, cfg.Queues.Check)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось инициализировать очередь")
	}

	scheduler := checkusecase.NewScheduler(
		applog.Component(logger, "scheduler"),
		repoAdapter, repoAdapter, checkQueue, cfg.Check.MaxPerCycle,
	)

	runCycle := func() {
		if _, err := scheduler.RunCycle(ctx, time.Now().UTC()); err != nil {
			logger.Error().Err(err).Msg("scheduler: цикл не удался")
		}
	}

	logger.Info().Dur("interval", cfg.Check.Interval).Msg("scheduler: запуск")
	runCycle()

	ticker := time.NewTicker(cfg.Check.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: остановлен")
			return
		case <-ticker.C:
			runCycle()
		}
	}
}
