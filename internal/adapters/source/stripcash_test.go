package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"camwatch/internal/domain"
)

func TestStripcashFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models": [
  {"id": 42, "username": "dina", "gender": "female",
   "previewUrl": "https://sc.example/dina.jpg", "snapshotUrl": "https://sc.example/dina_live.jpg",
   "tags": ["blonde"]},
  {"id": 0, "username": "ghost"}
]}`))
	}))
	defer server.Close()

	src := NewStripcash(NewClient(5 * time.Second))
	cfg := domain.PlatformConfig{APIURL: server.URL, Params: map[string]string{"userId": "partner7"}}
	records, tags, err := src.Fetch(context.Background(), cfg)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("запись без id должна пропускаться, получили %d", len(records))
	}
	dina := records[0]
	if dina.NativeID != "42" || dina.Handle != "dina" {
		t.Fatalf("неверная запись: %+v", dina)
	}
	if !strings.Contains(dina.EmbedURL, "lite-iframe.stripcdn.com/dina") || !strings.Contains(dina.EmbedURL, "userId=partner7") {
		t.Fatalf("embed-ссылка должна собираться из userId: %q", dina.EmbedURL)
	}
	if !strings.Contains(dina.ChatURL, "path=/cams/dina") {
		t.Fatalf("chat-ссылка должна содержать путь модели: %q", dina.ChatURL)
	}
	if !strings.Contains(dina.IframeURL, "path=dina") {
		t.Fatalf("iframe-ссылка должна содержать модель: %q", dina.IframeURL)
	}
	if got := tags["42"]; len(got) != 1 || got[0] != "blonde" {
		t.Fatalf("теги должны ключеваться по native_id: %v", tags)
	}
}
