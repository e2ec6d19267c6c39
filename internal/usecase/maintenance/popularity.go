package maintenance

import (
	"context"

	"github.com/rs/zerolog"

	"camwatch/internal/domain"
)

// Popularity пересчитывает флаг популярности каталога по числу зрителей.
type Popularity struct {
	log        zerolog.Logger
	catalog    domain.CatalogRepo
	minViewers int
}

// NewPopularity создаёт сервис пересчёта.
func NewPopularity(log zerolog.Logger, catalog domain.CatalogRepo, minViewers int) *Popularity {
	return &Popularity{log: log, catalog: catalog, minViewers: minViewers}
}

// Recompute выставляет флаг популярности и возвращает число изменённых записей.
func (p *Popularity) Recompute(ctx context.Context) (int, error) {
	changed, err := p.catalog.RecomputePopularity(ctx, p.minViewers)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		p.log.Info().Int("changed", changed).Msg("popularity: флаги пересчитаны")
	}
	return changed, nil
}
