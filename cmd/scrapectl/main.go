package main

import (
	"context"
	"flag"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"camwatch/internal/adapters/repo"
	"camwatch/internal/adapters/source"
	"camwatch/internal/domain"
	"camwatch/internal/infra/cache"
	"camwatch/internal/infra/config"
	"camwatch/internal/infra/db"
	applog "camwatch/internal/infra/log"
	"camwatch/internal/infra/metrics"
	"camwatch/internal/usecase/ingest"
)

// scrapectl выполняет разовый цикл сверки: одной платформы или всех подряд.
func main() {
	platform := flag.String("platform", "all", "платформа для сверки или all")
	timeout := flag.Duration("timeout", 10*time.Minute, "лимит времени на выполнение")
	flag.Parse()

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scrapectl: нет подключения к БД")
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

	if *platform == "all" {
		service.RunAll(ctx)
		return
	}
	found := false
	for _, known := range domain.Platforms {
		if known == *platform {
			found = true
			break
		}
	}
	if !found {
		logger.Fatal().Str("platform", *platform).Msg("scrapectl: неизвестная платформа")
	}
	if _, err := service.RunPlatform(ctx, *platform); err != nil {
		logger.Fatal().Err(err).Str("platform", *platform).Msg("scrapectl: цикл не удался")
	}
}
