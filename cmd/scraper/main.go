package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"camwatch/internal/adapters/repo"
	"camwatch/internal/adapters/source"
	"camwatch/internal/infra/cache"
	"camwatch/internal/infra/config"
	"camwatch/internal/infra/db"
	applog "camwatch/internal/infra/log"
	"camwatch/internal/infra/metrics"
	"camwatch/internal/usecase/ingest"
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
		logger.Fatal().Err(err).Msg("scraper: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	redisCache := cache.NewRedis(redisClient)

	client := source.NewClient(30 * time.Second)
	xloveLimiter := rate.NewLimiter(rate.Every(time.Second), 1)
	sources := []source.Source{
		source.NewChaturbate(client, redisCache),
		source.NewStripcash(client),
		source.NewXLoveCash(client, xloveLimiter, applog.Component(logger, "xlovecash")),
		source.NewBongaCash(client),
	}
	service := ingest.NewService(applog.Component(logger, "ingest"), repoAdapter, repoAdapter, sources, cfg.Scrape.Limit)

	logger.Info().Dur("interval", cfg.Scrape.Interval).Msg("scraper: запуск")
	service.RunAll(ctx)

	ticker := time.NewTicker(cfg.Scrape.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scraper: остановлен")
			return
		case <-ticker.C:
			service.RunAll(ctx)
		}
	}
}
