package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"camwatch/internal/adapters/detector"
	"camwatch/internal/adapters/mailer"
	"camwatch/internal/adapters/repo"
	"camwatch/internal/adapters/telegram"
	"camwatch/internal/domain"
	"camwatch/internal/infra/config"
	"camwatch/internal/infra/db"
	applog "camwatch/internal/infra/log"
	"camwatch/internal/infra/metrics"
	"camwatch/internal/infra/queue"
	checkusecase "camwatch/internal/usecase/check"
	"camwatch/internal/usecase/maintenance"
	"camwatch/internal/usecase/notify"
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
		logger.Fatal().Err(err).Msg("checker: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	checkQueue, err := queue.New(cfg.Queues.Backend, cfg.RedisAddr, cfg.RabbitURL, cfg.Queues.Check)
	if err != nil {
		logger.Fatal().Err(err).Msg("checker: не удалось инициализировать очередь")
	}

	nudenet, err := detector.NewNudeNet(cfg.Detector.URL, cfg.Detector.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("checker: не удалось создать классификатор")
	}

	channels := make(map[string]domain.DeliveryChannel)
	if cfg.SMTP.Host != "" {
		smtp, err := mailer.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			logger.Fatal().Err(err).Msg("checker: не удалось создать SMTP-клиент")
		}
		channels[domain.ChannelEmail] = smtp
	}
	if cfg.Telegram.Token != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("checker: не удалось создать бота")
		}
		channels[domain.ChannelTelegram] = telegram.NewChannel(botAPI)
	}
	if len(channels) == 0 {
		logger.Fatal().Msg("checker: не настроен ни один канал доставки")
	}

	dispatcher := notify.NewDispatcher(
		applog.Component(logger, "notify"),
		repoAdapter, repoAdapter, channels, cfg.Notify.Cooldown, cfg.Notify.SiteURL,
	)
	gateway := checkusecase.NewGateway(
		applog.Component(logger, "check"),
		repoAdapter, nudenet, dispatcher, cfg.Check.FetchTimeout, cfg.Check.ArtifactDir,
	)

	janitor := maintenance.NewJanitor(
		applog.Component(logger, "janitor"),
		cfg.Check.ArtifactDir, cfg.Check.ArtifactTTL,
	)
	popularity := maintenance.NewPopularity(
		applog.Component(logger, "popularity"),
		repoAdapter, cfg.Popular.MinViewers,
	)
	go runMaintenance(ctx, janitor, popularity, cfg.Check.SweepInterval, cfg.Popular.Interval)

	logger.Info().Int("workers", cfg.Check.Concurrency).Msg("checker: запуск обработки очереди")
	var wg sync.WaitGroup
	for i := 0; i < cfg.Check.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			runWorker(ctx, logger.With().Int("worker", worker).Logger(), checkQueue, gateway)
		}(i)
	}
	wg.Wait()
	logger.Info().Msg("checker: остановлен")
}

func runWorker(ctx context.Context, logger zerolog.Logger, checkQueue domain.CheckQueue, gateway *checkusecase.Gateway) {
	for {
		job, ack, err := checkQueue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error().Err(err).Msg("checker: ошибка чтения очереди")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		err = gateway.Process(ctx, job)
		if errors.Is(err, context.Canceled) {
			// Обработка прервана остановкой: задача возвращается в очередь.
			_ = ack(false)
			return
		}
		if err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Msg("checker: задача не обработана")
		}
		if err := ack(true); err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Msg("checker: не удалось подтвердить задачу")
		}
	}
}

func runMaintenance(ctx context.Context, janitor *maintenance.Janitor, popularity *maintenance.Popularity, sweepInterval, popularityInterval time.Duration) {
	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()
	popularityTicker := time.NewTicker(popularityInterval)
	defer popularityTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-sweepTicker.C:
			_, _ = janitor.SweepArtifacts(now)
		case <-popularityTicker.C:
			_, _ = popularity.Recompute(ctx)
		}
	}
}
