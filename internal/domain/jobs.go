package domain

import (
	"context"
	"time"
)

// CheckJob содержит задачу классификации снимка одной модели.
type CheckJob struct {
	ID          string    `json:"job_id"`
	PerformerID int64     `json:"performer_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// CheckQueue описывает очередь задач классификации.
type CheckQueue interface {
	Enqueue(ctx context.Context, job CheckJob) error
	Receive(ctx context.Context) (CheckJob, CheckAckFunc, error)
}

// CheckAckFunc подтверждает обработку или возвращает задачу в очередь.
type CheckAckFunc func(success bool) error

// CheckTaskRepo отвечает за идемпотентную постановку задач классификации.
type CheckTaskRepo interface {
	// AcquireCheckTask помечает постановку задачи на указанный цикл и возвращает
	// true, если запись была создана. При конфликте возвращает false без ошибки.
	AcquireCheckTask(ctx context.Context, performerID int64, scheduledFor time.Time) (bool, error)
}
