package check

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"camwatch/internal/domain"
)

type stubCatalog struct {
	candidates []domain.Performer
	performer  domain.Performer
	getErr     error
	updated    []checkResult
}

type checkResult struct {
	id        int64
	explicit  bool
	imageHash string
}

func (s *stubCatalog) ApplySweep(context.Context, string, []domain.SourceRecord) (domain.SweepStats, error) {
	return domain.SweepStats{}, nil
}
func (s *stubCatalog) ReplaceCategories(context.Context, string, map[string][]string) error {
	return nil
}
func (s *stubCatalog) GetPerformer(context.Context, int64) (domain.Performer, error) {
	return s.performer, s.getErr
}
func (s *stubCatalog) ListPerformers(context.Context, domain.PerformerFilter) ([]domain.Performer, error) {
	return nil, nil
}
func (s *stubCatalog) ListCheckCandidates(context.Context) ([]domain.Performer, error) {
	return s.candidates, nil
}
func (s *stubCatalog) UpdateCheckResult(_ context.Context, id int64, explicit bool, _ float64, _ time.Time, imageHash string) error {
	s.updated = append(s.updated, checkResult{id: id, explicit: explicit, imageHash: imageHash})
	return nil
}
func (s *stubCatalog) RecomputePopularity(context.Context, int) (int, error) { return 0, nil }

type stubTasks struct {
	acquired map[int64]bool
	denied   map[int64]bool
}

func (s *stubTasks) AcquireCheckTask(_ context.Context, performerID int64, _ time.Time) (bool, error) {
	if s.denied[performerID] {
		return false, nil
	}
	if s.acquired == nil {
		s.acquired = map[int64]bool{}
	}
	s.acquired[performerID] = true
	return true, nil
}

type stubQueue struct {
	jobs []domain.CheckJob
}

func (s *stubQueue) Enqueue(_ context.Context, job domain.CheckJob) error {
	s.jobs = append(s.jobs, job)
	return nil
}
func (s *stubQueue) Receive(context.Context) (domain.CheckJob, domain.CheckAckFunc, error) {
	return domain.CheckJob{}, nil, nil
}

func ts(value string) *time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &parsed
}

func TestSelectForCheckOrdersAndCaps(t *testing.T) {
	candidates := []domain.Performer{
		{ID: 1, CheckedAt: ts("2026-08-30T12:00:00Z")},
		{ID: 2},
		{ID: 3, CheckedAt: ts("2026-08-30T10:00:00Z")},
		{ID: 4},
	}
	selected := SelectForCheck(candidates, 3)
	if len(selected) != 3 {
		t.Fatalf("ожидали 3 кандидата, получили %d", len(selected))
	}
	if selected[0].ID != 2 || selected[1].ID != 4 {
		t.Fatalf("непроверенные должны идти первыми: %v, %v", selected[0].ID, selected[1].ID)
	}
	if selected[2].ID != 3 {
		t.Fatalf("ожидали самую давнюю проверку третьей, получили %d", selected[2].ID)
	}
}

func TestSelectForCheckNoLimit(t *testing.T) {
	selected := SelectForCheck([]domain.Performer{{ID: 1}, {ID: 2}}, 0)
	if len(selected) != 2 {
		t.Fatalf("нулевой лимит не должен резать выборку")
	}
}

func TestRunCycleEnqueuesAcquiredOnly(t *testing.T) {
	catalog := &stubCatalog{candidates: []domain.Performer{{ID: 1}, {ID: 2}, {ID: 3}}}
	tasks := &stubTasks{denied: map[int64]bool{2: true}}
	queue := &stubQueue{}
	scheduler := NewScheduler(zerolog.Nop(), catalog, tasks, queue, 20)

	enqueued, err := scheduler.RunCycle(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if enqueued != 2 {
		t.Fatalf("ожидали 2 задачи, получили %d", enqueued)
	}
	for _, job := range queue.jobs {
		if job.PerformerID == 2 {
			t.Fatalf("занятая задача не должна попадать в очередь")
		}
		if job.ID == "" {
			t.Fatalf("у задачи должен быть идентификатор")
		}
	}
}

func TestRunCycleHonorsMaxPerCycle(t *testing.T) {
	var candidates []domain.Performer
	for i := int64(1); i <= 30; i++ {
		candidates = append(candidates, domain.Performer{ID: i})
	}
	catalog := &stubCatalog{candidates: candidates}
	queue := &stubQueue{}
	scheduler := NewScheduler(zerolog.Nop(), catalog, &stubTasks{}, queue, 20)

	enqueued, err := scheduler.RunCycle(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if enqueued != 20 {
		t.Fatalf("ожидали лимит 20, получили %d", enqueued)
	}
}
