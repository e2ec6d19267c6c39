package source

import (
	"context"

	"camwatch/internal/domain"
)

// Source опрашивает API одной платформы и возвращает нормализованные записи
// вместе с тегами по native_id.
type Source interface {
	Platform() string
	Fetch(ctx context.Context, cfg domain.PlatformConfig) ([]domain.SourceRecord, map[string][]string, error)
}
