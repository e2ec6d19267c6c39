package check

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"camwatch/internal/domain"
	"camwatch/internal/infra/metrics"
)

const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Notifier запускает рассылку по подписчикам модели после положительного
// вердикта.
type Notifier interface {
	NotifySubscribers(ctx context.Context, performer domain.Performer) error
}

// Gateway выполняет полную проверку одной модели: скачивание снимка,
// вычисление хеша, классификация, запись итога и запуск уведомлений.
// Скачанный снимок удаляется по завершении проверки независимо от исхода;
// плановая чистка каталога артефактов подбирает только осиротевшие файлы.
type Gateway struct {
	log         zerolog.Logger
	catalog     domain.CatalogRepo
	detector    domain.Detector
	notifier    Notifier
	http        *http.Client
	artifactDir string
}

// NewGateway создаёт шлюз проверок.
func NewGateway(log zerolog.Logger, catalog domain.CatalogRepo, det domain.Detector, notifier Notifier, fetchTimeout time.Duration, artifactDir string) *Gateway {
	return &Gateway{
		log:         log,
		catalog:     catalog,
		detector:    det,
		notifier:    notifier,
		http:        &http.Client{Timeout: fetchTimeout},
		artifactDir: artifactDir,
	}
}

// Process обрабатывает одну задачу проверки. Если снимок не изменился с
// прошлой проверки, классификация и запись итога пропускаются.
func (g *Gateway) Process(ctx context.Context, job domain.CheckJob) error {
	start := time.Now()
	perf, err := g.catalog.GetPerformer(ctx, job.PerformerID)
	if err != nil {
		metrics.ObserveCheck(start, false, err)
		return fmt.Errorf("check: модель %d: %w", job.PerformerID, err)
	}
	if perf.ImageURL == "" {
		g.log.Warn().Int64("performer_id", perf.ID).Msg("check: у модели нет снимка")
		return nil
	}

	imagePath, imageHash, err := g.fetchImage(ctx, perf.ImageURL)
	if err != nil {
		metrics.ObserveCheck(start, false, err)
		return fmt.Errorf("check: снимок модели %d: %w", perf.ID, err)
	}
	defer func() {
		if err := os.Remove(imagePath); err != nil {
			g.log.Warn().Err(err).Str("path", imagePath).Msg("check: не удалось удалить артефакт")
		}
	}()

	if imageHash == perf.ImageHash {
		g.log.Debug().Int64("performer_id", perf.ID).Msg("check: снимок не изменился")
		metrics.CheckVerdicts.WithLabelValues("unchanged").Inc()
		return nil
	}

	detections, err := g.detector.Detect(ctx, imagePath)
	if err != nil {
		metrics.ObserveCheck(start, false, err)
		return fmt.Errorf("check: классификация модели %d: %w", perf.ID, err)
	}
	explicit, confidence := Evaluate(detections)

	checkedAt := time.Now().UTC()
	if err := g.catalog.UpdateCheckResult(ctx, perf.ID, explicit, confidence, checkedAt, imageHash); err != nil {
		metrics.ObserveCheck(start, explicit, err)
		return fmt.Errorf("check: запись итога модели %d: %w", perf.ID, err)
	}
	metrics.ObserveCheck(start, explicit, nil)

	g.log.Info().
		Int64("performer_id", perf.ID).
		Bool("explicit", explicit).
		Float64("confidence", confidence).
		Msg("check: проверка завершена")

	if explicit && g.notifier != nil {
		perf.Explicit = explicit
		perf.Confidence = &confidence
		if err := g.notifier.NotifySubscribers(ctx, perf); err != nil {
			return fmt.Errorf("check: уведомления модели %d: %w", perf.ID, err)
		}
	}
	return nil
}

// fetchImage скачивает снимок, сохраняет его в каталог артефактов под именем
// из md5-хеша и возвращает путь и хеш.
func (g *Gateway) fetchImage(ctx context.Context, imageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	start := time.Now()
	resp, err := g.http.Do(req)
	metrics.ObserveNetworkRequest("image_fetch", "get", req.URL.Host, start, err)
	if err != nil {
		return "", "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read image: %w", err)
	}

	sum := md5.Sum(body)
	imageHash := hex.EncodeToString(sum[:])

	if err := os.MkdirAll(g.artifactDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create artifact dir: %w", err)
	}
	imagePath := filepath.Join(g.artifactDir, imageHash+".jpg")
	if err := os.WriteFile(imagePath, body, 0o644); err != nil {
		return "", "", fmt.Errorf("write artifact: %w", err)
	}
	return imagePath, imageHash, nil
}
