package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"camwatch/internal/adapters/source"
	"camwatch/internal/domain"
	"camwatch/internal/infra/metrics"
)

// Service выполняет циклы сверки каталога с платформами.
type Service struct {
	log     zerolog.Logger
	catalog domain.CatalogRepo
	configs domain.PlatformConfigRepo
	sources map[string]source.Source
	limit   int
}

// NewService создаёт сервис сверки. Лимит добавляется к параметрам запроса
// платформ, у которых он не задан в конфигурации.
func NewService(log zerolog.Logger, catalog domain.CatalogRepo, configs domain.PlatformConfigRepo, sources []source.Source, limit int) *Service {
	byPlatform := make(map[string]source.Source, len(sources))
	for _, src := range sources {
		byPlatform[src.Platform()] = src
	}
	return &Service{log: log, catalog: catalog, configs: configs, sources: byPlatform, limit: limit}
}

// RunPlatform выполняет один цикл сверки платформы. Ошибка опроса прерывает
// цикл без частичного применения: каталог меняется только по полному ответу.
func (s *Service) RunPlatform(ctx context.Context, platform string) (domain.SweepStats, error) {
	src, ok := s.sources[platform]
	if !ok {
		return domain.SweepStats{}, fmt.Errorf("ingest: неизвестная платформа %q", platform)
	}
	cfg, err := s.configs.GetPlatformConfig(ctx, platform)
	if err != nil {
		return domain.SweepStats{}, fmt.Errorf("ingest: конфигурация %s: %w", platform, err)
	}
	if !cfg.Active {
		s.log.Info().Str("platform", platform).Msg("ingest: платформа выключена")
		return domain.SweepStats{}, nil
	}
	if s.limit > 0 {
		if _, ok := cfg.Params["limit"]; !ok {
			if cfg.Params == nil {
				cfg.Params = make(map[string]string, 1)
			}
			cfg.Params["limit"] = strconv.Itoa(s.limit)
		}
	}

	start := time.Now()
	records, tags, err := src.Fetch(ctx, cfg)
	if err != nil {
		metrics.ScrapeErrors.WithLabelValues(platform).Inc()
		return domain.SweepStats{}, fmt.Errorf("ingest: опрос %s: %w", platform, err)
	}
	metrics.ScrapedPerformers.WithLabelValues(platform).Set(float64(len(records)))

	stats, err := s.catalog.ApplySweep(ctx, platform, records)
	if err != nil {
		metrics.ScrapeErrors.WithLabelValues(platform).Inc()
		return domain.SweepStats{}, fmt.Errorf("ingest: сверка %s: %w", platform, err)
	}
	if err := s.catalog.ReplaceCategories(ctx, platform, tags); err != nil {
		metrics.ScrapeErrors.WithLabelValues(platform).Inc()
		return stats, fmt.Errorf("ingest: категории %s: %w", platform, err)
	}
	metrics.ScrapeSeconds.WithLabelValues(platform).Observe(time.Since(start).Seconds())

	s.log.Info().
		Str("platform", platform).
		Int("records", len(records)).
		Int("updated", stats.Updated).
		Int("inserted", stats.Inserted).
		Int("offline", stats.MarkedOffline).
		Int("resuffixed", stats.Resuffixed).
		Msg("ingest: цикл завершён")
	return stats, nil
}

// RunAll обходит все платформы. Ошибка одной платформы не прерывает остальные.
func (s *Service) RunAll(ctx context.Context) {
	for _, platform := range domain.Platforms {
		if _, ok := s.sources[platform]; !ok {
			continue
		}
		if _, err := s.RunPlatform(ctx, platform); err != nil {
			s.log.Error().Err(err).Str("platform", platform).Msg("ingest: цикл платформы не удался")
		}
		if ctx.Err() != nil {
			return
		}
	}
}
