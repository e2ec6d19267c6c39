package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"camwatch/internal/domain"
)

type stubCache struct {
	values map[string][]byte
}

func (s *stubCache) Set(key string, value []byte, _ time.Duration) error {
	if s.values == nil {
		s.values = map[string][]byte{}
	}
	s.values[key] = value
	return nil
}
func (s *stubCache) Get(key string) ([]byte, error) {
	value, ok := s.values[key]
	if !ok {
		return nil, context.Canceled
	}
	return value, nil
}

var _ domain.Cache = (*stubCache)(nil)

const chaturbatePayload = `[
  {"username": "alice", "display_name": "Alice", "age": 25, "gender": "f",
   "room_subject": "hi", "image_url": "https://cb.example/alice.jpg",
   "iframe_embed": "<iframe></iframe>", "chat_room_url": "https://cb.example/alice",
   "num_users": 700, "tags": ["teen", "18"]},
  {"username": "bob", "gender": "m", "image_url": "https://cb.example/bob.jpg"}
]`

func TestChaturbateFetchBareList(t *testing.T) {
	var gotClientIP string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClientIP = r.URL.Query().Get("client_ip")
		_, _ = w.Write([]byte(chaturbatePayload))
	}))
	defer server.Close()

	cache := &stubCache{values: map[string][]byte{ipCacheKey: []byte("1.2.3.4")}}
	src := NewChaturbate(NewClient(5*time.Second), cache)
	records, tags, err := src.Fetch(context.Background(), domain.PlatformConfig{APIURL: server.URL})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if gotClientIP != "1.2.3.4" {
		t.Fatalf("client_ip должен браться из кэша, получили %q", gotClientIP)
	}
	if len(records) != 2 {
		t.Fatalf("ожидали 2 записи, получили %d", len(records))
	}
	alice := records[0]
	if alice.NativeID != "alice" || alice.DisplayName != "Alice" {
		t.Fatalf("неверная запись: %+v", alice)
	}
	if alice.Gender != "female" {
		t.Fatalf("пол должен нормализоваться: %q", alice.Gender)
	}
	if alice.SnapshotURL != "https://cb.example/alice.jpg" {
		t.Fatalf("снапшотом служит image_url")
	}
	if len(alice.RawJSON) == 0 {
		t.Fatalf("сырой ответ должен сохраняться")
	}
	if records[1].DisplayName != "bob" {
		t.Fatalf("display_name по умолчанию равен username")
	}
	if got := tags["alice"]; len(got) != 2 {
		t.Fatalf("ожидали теги alice, получили %v", got)
	}
	if _, ok := tags["bob"]; ok {
		t.Fatalf("записи без тегов не попадают в карту")
	}
}

func TestChaturbateFetchWrappedResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 1, "results": [{"username": "carol", "gender": "s"}]}`))
	}))
	defer server.Close()

	cache := &stubCache{values: map[string][]byte{ipCacheKey: []byte("1.2.3.4")}}
	src := NewChaturbate(NewClient(5*time.Second), cache)
	records, _, err := src.Fetch(context.Background(), domain.PlatformConfig{APIURL: server.URL})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(records) != 1 || records[0].NativeID != "carol" {
		t.Fatalf("обёртка results должна разбираться: %+v", records)
	}
	if records[0].Gender != "trans" {
		t.Fatalf("код s нормализуется в trans, получили %q", records[0].Gender)
	}
}

func TestChaturbateFetchKeepsConfiguredClientIP(t *testing.T) {
	var gotClientIP string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClientIP = r.URL.Query().Get("client_ip")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	src := NewChaturbate(NewClient(5*time.Second), &stubCache{})
	cfg := domain.PlatformConfig{APIURL: server.URL, Params: map[string]string{"client_ip": "9.9.9.9"}}
	if _, _, err := src.Fetch(context.Background(), cfg); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if gotClientIP != "9.9.9.9" {
		t.Fatalf("заданный client_ip не должен перетираться: %q", gotClientIP)
	}
}
