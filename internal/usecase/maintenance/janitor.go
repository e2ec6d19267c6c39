package maintenance

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Janitor удаляет устаревшие артефакты проверок из каталога снимков.
type Janitor struct {
	log zerolog.Logger
	dir string
	ttl time.Duration
}

// NewJanitor создаёт уборщик артефактов.
func NewJanitor(log zerolog.Logger, dir string, ttl time.Duration) *Janitor {
	return &Janitor{log: log, dir: dir, ttl: ttl}
}

// SweepArtifacts удаляет файлы старше TTL и возвращает число удалённых.
// Отсутствие каталога не считается ошибкой.
func (j *Janitor) SweepArtifacts(now time.Time) (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	threshold := now.Add(-j.ttl)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(threshold) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, entry.Name())); err != nil {
			j.log.Warn().Err(err).Str("file", entry.Name()).Msg("janitor: не удалось удалить артефакт")
			continue
		}
		removed++
	}
	if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("janitor: каталог артефактов очищен")
	}
	return removed, nil
}
