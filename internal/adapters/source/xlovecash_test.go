package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"camwatch/internal/domain"
)

func TestXLoveCashFetchWithProfiles(t *testing.T) {
	var profileRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list":
			_, _ = w.Write([]byte(`{"content": {"models_list": [
  {"model_id": 10, "nick": "fleur", "model_profil_photo": "http://xl.example/fleur.jpg",
   "camLive": "https://xl.example/fleur_live.jpg", "model_link": "https://xl.example/fleur",
   "tagList": ["fr"]}
]}}`))
		case "/profile":
			profileRequests++
			if err := r.ParseForm(); err != nil {
				t.Errorf("разбор формы: %v", err)
			}
			if got := r.PostForm["modelid[]"]; len(got) != 1 || got[0] != "10" {
				t.Errorf("ожидали modelid[]=10, получили %v", got)
			}
			_, _ = w.Write([]byte(`{"content": {"10": {"model": {"age": 27, "sex": "female"}, "infoByLang": {"description": "bonjour"}}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	src := NewXLoveCash(NewClient(5*time.Second), nil, zerolog.Nop())
	cfg := domain.PlatformConfig{
		APIURL: server.URL + "/list",
		Params: map[string]string{"profile_url": server.URL + "/profile"},
	}
	records, tags, err := src.Fetch(context.Background(), cfg)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if profileRequests != 1 {
		t.Fatalf("ожидали один запрос профилей, получили %d", profileRequests)
	}
	if len(records) != 1 {
		t.Fatalf("ожидали 1 запись, получили %d", len(records))
	}
	fleur := records[0]
	if fleur.NativeID != "10" || fleur.Handle != "fleur" {
		t.Fatalf("неверная запись: %+v", fleur)
	}
	if fleur.ImageURL != "https://xl.example/fleur.jpg" {
		t.Fatalf("http-ссылка должна переводиться на https: %q", fleur.ImageURL)
	}
	if fleur.Age == nil || *fleur.Age != 27 || fleur.Gender != "female" || fleur.Description != "bonjour" {
		t.Fatalf("профиль должен дополнять запись: %+v", fleur)
	}
	if got := tags["10"]; len(got) != 1 {
		t.Fatalf("ожидали теги по native_id: %v", tags)
	}
}

func TestXLoveCashFetchProfileErrorIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list":
			_, _ = w.Write([]byte(`{"content": {"models_list": [{"model_id": 11, "nick": "gala"}]}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	src := NewXLoveCash(NewClient(5*time.Second), nil, zerolog.Nop())
	cfg := domain.PlatformConfig{
		APIURL: server.URL + "/list",
		Params: map[string]string{"profile_url": server.URL + "/profile"},
	}
	records, _, err := src.Fetch(context.Background(), cfg)
	if err != nil {
		t.Fatalf("сбой профилей не должен прерывать обход: %v", err)
	}
	if len(records) != 1 || records[0].Gender != "" {
		t.Fatalf("запись остаётся без профиля: %+v", records)
	}
}
