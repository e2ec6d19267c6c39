package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"camwatch/internal/domain"
	"camwatch/internal/infra/metrics"
)

// NudeNet вызывает HTTP-сервис NudeNet и возвращает размеченные регионы.
type NudeNet struct {
	endpoint string
	host     string
	http     *http.Client
}

// NewNudeNet создаёт клиент сервиса классификации.
func NewNudeNet(endpoint string, timeout time.Duration) (*NudeNet, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("nudenet: не указан адрес сервиса")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("nudenet: parse url: %w", err)
	}
	return &NudeNet{
		endpoint: endpoint,
		host:     parsed.Host,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

var _ domain.Detector = (*NudeNet)(nil)

// Detect реализует domain.Detector: отправляет локальный файл на классификацию.
func (d *NudeNet) Detect(ctx context.Context, imagePath string) ([]domain.Detection, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := d.http.Do(req)
	metrics.ObserveNetworkRequest("nudenet", "detect", d.host, start, err)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload []struct {
		Class string  `json:"class"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	detections := make([]domain.Detection, 0, len(payload))
	for _, item := range payload {
		detections = append(detections, domain.Detection{Label: item.Class, Score: item.Score})
	}
	return detections, nil
}
