package check

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"camwatch/internal/domain"
)

// Scheduler отбирает моделей на проверку и ставит задачи в очередь.
type Scheduler struct {
	log         zerolog.Logger
	catalog     domain.CatalogRepo
	tasks       domain.CheckTaskRepo
	queue       domain.CheckQueue
	maxPerCycle int
}

// NewScheduler создаёт планировщик проверок.
func NewScheduler(log zerolog.Logger, catalog domain.CatalogRepo, tasks domain.CheckTaskRepo, queue domain.CheckQueue, maxPerCycle int) *Scheduler {
	return &Scheduler{log: log, catalog: catalog, tasks: tasks, queue: queue, maxPerCycle: maxPerCycle}
}

// SelectForCheck сортирует кандидатов по давности последней проверки
// (непроверенные первыми) и ограничивает выборку лимитом цикла.
func SelectForCheck(candidates []domain.Performer, limit int) []domain.Performer {
	sorted := make([]domain.Performer, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].CheckedAt, sorted[j].CheckedAt
		switch {
		case a == nil && b == nil:
			return sorted[i].ID < sorted[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		case a.Equal(*b):
			return sorted[i].ID < sorted[j].ID
		default:
			return a.Before(*b)
		}
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// RunCycle выполняет один цикл планирования и возвращает число поставленных
// задач. Постановка идемпотентна в пределах минуты: повторный запуск цикла не
// дублирует задачи.
func (s *Scheduler) RunCycle(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.catalog.ListCheckCandidates(ctx)
	if err != nil {
		return 0, err
	}
	selected := SelectForCheck(candidates, s.maxPerCycle)
	if len(selected) < len(candidates) {
		s.log.Info().
			Int("selected", len(selected)).
			Int("candidates", len(candidates)).
			Msg("scheduler: выборка ограничена лимитом цикла")
	}

	scheduledFor := now.Truncate(time.Minute)
	enqueued := 0
	for _, perf := range selected {
		acquired, err := s.tasks.AcquireCheckTask(ctx, perf.ID, scheduledFor)
		if err != nil {
			return enqueued, err
		}
		if !acquired {
			continue
		}
		job := domain.CheckJob{
			ID:          uuid.NewString(),
			PerformerID: perf.ID,
			ScheduledAt: now,
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return enqueued, err
		}
		enqueued++
	}
	s.log.Info().Int("enqueued", enqueued).Msg("scheduler: цикл завершён")
	return enqueued, nil
}
