package check

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"camwatch/internal/domain"
)

type stubDetector struct {
	detections []domain.Detection
	calls      int
}

func (s *stubDetector) Detect(context.Context, string) ([]domain.Detection, error) {
	s.calls++
	return s.detections, nil
}

type stubNotifier struct {
	notified []int64
}

func (s *stubNotifier) NotifySubscribers(_ context.Context, perf domain.Performer) error {
	s.notified = append(s.notified, perf.ID)
	return nil
}

func TestGatewayProcessExplicit(t *testing.T) {
	image := []byte("fake-jpeg-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(image)
	}))
	defer server.Close()

	dir := t.TempDir()
	catalog := &stubCatalog{performer: domain.Performer{ID: 7, ImageURL: server.URL + "/snap.jpg"}}
	det := &stubDetector{detections: []domain.Detection{{Label: "FEMALE_BREAST_EXPOSED", Score: 0.9}}}
	notifier := &stubNotifier{}
	gateway := NewGateway(zerolog.Nop(), catalog, det, notifier, 5*time.Second, dir)

	if err := gateway.Process(context.Background(), domain.CheckJob{ID: "job-1", PerformerID: 7}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if len(catalog.updated) != 1 {
		t.Fatalf("ожидали одну запись итога")
	}
	result := catalog.updated[0]
	if !result.explicit {
		t.Fatalf("ожидали положительный вердикт")
	}
	sum := md5.Sum(image)
	if result.imageHash != hex.EncodeToString(sum[:]) {
		t.Fatalf("хеш не совпадает с md5 снимка")
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != 7 {
		t.Fatalf("ожидали запуск уведомлений по модели 7")
	}
	artifact := filepath.Join(dir, result.imageHash+".jpg")
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Fatalf("артефакт должен удаляться по завершении проверки: %v", err)
	}
}

func TestGatewayProcessRemovesArtifact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("snapshot-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	catalog := &stubCatalog{performer: domain.Performer{ID: 11, ImageURL: server.URL}}
	det := &stubDetector{detections: []domain.Detection{{Label: "FACE_FEMALE", Score: 0.99}}}
	gateway := NewGateway(zerolog.Nop(), catalog, det, &stubNotifier{}, 5*time.Second, dir)

	if err := gateway.Process(context.Background(), domain.CheckJob{ID: "job-5", PerformerID: 11}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("не удалось прочитать каталог артефактов: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("артефакт не удалён после завершения проверки: %d файлов осталось", len(entries))
	}
}

func TestGatewayProcessUnchangedImage(t *testing.T) {
	image := []byte("same-image")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(image)
	}))
	defer server.Close()

	sum := md5.Sum(image)
	catalog := &stubCatalog{performer: domain.Performer{
		ID:        3,
		ImageURL:  server.URL,
		ImageHash: hex.EncodeToString(sum[:]),
	}}
	det := &stubDetector{}
	notifier := &stubNotifier{}
	gateway := NewGateway(zerolog.Nop(), catalog, det, notifier, 5*time.Second, t.TempDir())

	if err := gateway.Process(context.Background(), domain.CheckJob{ID: "job-2", PerformerID: 3}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if det.calls != 0 {
		t.Fatalf("неизменившийся снимок не должен классифицироваться")
	}
	if len(catalog.updated) != 0 {
		t.Fatalf("итог не должен записываться при пропуске")
	}
}

func TestGatewayProcessCleanVerdictSkipsNotify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("clean-image"))
	}))
	defer server.Close()

	catalog := &stubCatalog{performer: domain.Performer{ID: 5, ImageURL: server.URL}}
	det := &stubDetector{detections: []domain.Detection{{Label: "FACE_FEMALE", Score: 0.99}}}
	notifier := &stubNotifier{}
	gateway := NewGateway(zerolog.Nop(), catalog, det, notifier, 5*time.Second, t.TempDir())

	if err := gateway.Process(context.Background(), domain.CheckJob{ID: "job-3", PerformerID: 5}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(catalog.updated) != 1 || catalog.updated[0].explicit {
		t.Fatalf("ожидали чистый вердикт с записью итога")
	}
	if len(notifier.notified) != 0 {
		t.Fatalf("чистый вердикт не должен запускать уведомления")
	}
}

func TestGatewayProcessNoImage(t *testing.T) {
	catalog := &stubCatalog{performer: domain.Performer{ID: 9}}
	det := &stubDetector{}
	gateway := NewGateway(zerolog.Nop(), catalog, det, &stubNotifier{}, 5*time.Second, t.TempDir())

	if err := gateway.Process(context.Background(), domain.CheckJob{ID: "job-4", PerformerID: 9}); err != nil {
		t.Fatalf("модель без снимка не должна давать ошибку: %v", err)
	}
	if det.calls != 0 || len(catalog.updated) != 0 {
		t.Fatalf("без снимка проверка не выполняется")
	}
}
