package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"

	"camwatch/internal/adapters/repo"
	"camwatch/internal/domain"
	"camwatch/internal/infra/config"
	"camwatch/internal/infra/db"
	httpinfra "camwatch/internal/infra/http"
	applog "camwatch/internal/infra/log"
	"camwatch/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.PGDSN); err != nil {
		logger.Fatal().Err(err).Msg("api: миграции не применились")
	}
	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	srv := httpinfra.NewServer(applog.Component(logger, "http"))
	r := srv.Router

	r.Get("/api/v1/performers", func(w http.ResponseWriter, r *http.Request) {
		filter := domain.PerformerFilter{
			Platform: r.URL.Query().Get("platform"),
			Gender:   domain.NormalizeGender(r.URL.Query().Get("gender")),
			Limit:    queryInt(r, "limit", 50),
			Offset:   queryInt(r, "offset", 0),
		}
		if raw := r.URL.Query().Get("online"); raw != "" {
			online, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "online must be true or false")
				return
			}
			filter.Online = &online
		}
		performers, err := repoAdapter.ListPerformers(r.Context(), filter)
		if err != nil {
			logger.Error().Err(err).Msg("api: список моделей")
			writeError(w, http.StatusInternalServerError, "failed to list performers")
			return
		}
		items := make([]performerResponse, 0, len(performers))
		for _, perf := range performers {
			items = append(items, toPerformerResponse(perf))
		}
		writeJSON(w, map[string]any{"performers": items})
	})

	r.Get("/api/v1/performers/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid performer id")
			return
		}
		perf, err := repoAdapter.GetPerformer(r.Context(), id)
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "performer not found")
			return
		}
		if err != nil {
			logger.Error().Err(err).Int64("performer_id", id).Msg("api: модель")
			writeError(w, http.StatusInternalServerError, "failed to load performer")
			return
		}
		writeJSON(w, toPerformerResponse(perf))
	})

	r.Get("/api/v1/categories", func(w http.ResponseWriter, r *http.Request) {
		categories, err := repoAdapter.ListCategories(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("api: категории")
			writeError(w, http.StatusInternalServerError, "failed to list categories")
			return
		}
		writeJSON(w, map[string]any{"categories": categories})
	})

	r.Post("/api/v1/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}
		if req.PerformerID == 0 {
			writeError(w, http.StatusBadRequest, "performer_id is required")
			return
		}
		channel := req.Channel
		if channel == "" {
			channel = domain.ChannelEmail
		}
		switch channel {
		case domain.ChannelEmail, domain.ChannelTelegram, domain.ChannelBoth:
		default:
			writeError(w, http.StatusBadRequest, "unknown channel")
			return
		}
		if _, err := repoAdapter.GetPerformer(r.Context(), req.PerformerID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusNotFound, "performer not found")
				return
			}
			logger.Error().Err(err).Msg("api: проверка модели")
			writeError(w, http.StatusInternalServerError, "failed to load performer")
			return
		}
		user, err := repoAdapter.UpsertByEmail(r.Context(), req.Email, req.TGChatID)
		if err != nil {
			logger.Error().Err(err).Msg("api: пользователь")
			writeError(w, http.StatusInternalServerError, "failed to upsert user")
			return
		}
		sub, err := repoAdapter.Subscribe(r.Context(), user.ID, req.PerformerID, channel)
		if err != nil {
			logger.Error().Err(err).Msg("api: подписка")
			writeError(w, http.StatusInternalServerError, "failed to subscribe")
			return
		}
		writeJSON(w, map[string]any{
			"subscription_id": sub.ID,
			"user_id":         user.ID,
			"performer_id":    sub.PerformerID,
			"channel":         sub.Channel,
		})
	})

	r.Get("/api/v1/users/{userID}/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		subs, err := repoAdapter.ListUserSubscriptions(r.Context(), userID)
		if err != nil {
			logger.Error().Err(err).Msg("api: подписки пользователя")
			writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
			return
		}
		items := make([]map[string]any, 0, len(subs))
		for _, sub := range subs {
			items = append(items, map[string]any{
				"subscription_id":  sub.ID,
				"performer_id":     sub.PerformerID,
				"channel":          sub.Channel,
				"last_notified_at": sub.LastNotifiedAt,
				"created_at":       sub.CreatedAt,
			})
		}
		writeJSON(w, map[string]any{"subscriptions": items})
	})

	r.Delete("/api/v1/users/{userID}/subscriptions/{performerID}", func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		performerID, err := strconv.ParseInt(chi.URLParam(r, "performerID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid performer id")
			return
		}
		if err := repoAdapter.Unsubscribe(r.Context(), userID, performerID); err != nil {
			logger.Error().Err(err).Msg("api: отписка")
			writeError(w, http.StatusInternalServerError, "failed to unsubscribe")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type subscribeRequest struct {
	Email       string `json:"email"`
	TGChatID    *int64 `json:"tg_chat_id"`
	PerformerID int64  `json:"performer_id"`
	Channel     string `json:"channel"`
}

type performerResponse struct {
	ID           int64      `json:"id"`
	Platform     string     `json:"platform"`
	Handle       string     `json:"handle"`
	UniqueHandle string     `json:"unique_handle"`
	DisplayName  string     `json:"display_name"`
	Online       bool       `json:"online"`
	Age          *int       `json:"age,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Description  string     `json:"description,omitempty"`
	ImageURL     string     `json:"image_url"`
	IframeURL    string     `json:"iframe_url,omitempty"`
	EmbedURL     string     `json:"embed_url,omitempty"`
	SnapshotURL  string     `json:"snapshot_url,omitempty"`
	ChatURL      string     `json:"chat_url,omitempty"`
	Explicit     bool       `json:"explicit"`
	Confidence   *float64   `json:"confidence,omitempty"`
	CheckedAt    *time.Time `json:"checked_at,omitempty"`
	Popular      bool       `json:"popular"`
	Viewers      int        `json:"viewers"`
}

func toPerformerResponse(perf domain.Performer) performerResponse {
	return performerResponse{
		ID:           perf.ID,
		Platform:     perf.Platform,
		Handle:       perf.Handle,
		UniqueHandle: perf.UniqueHandle,
		DisplayName:  perf.DisplayName,
		Online:       perf.Online,
		Age:          perf.Age,
		Gender:       perf.Gender,
		Description:  perf.Description,
		ImageURL:     perf.ImageURL,
		IframeURL:    perf.IframeURL,
		EmbedURL:     perf.EmbedURL,
		SnapshotURL:  perf.SnapshotURL,
		ChatURL:      perf.ChatURL,
		Explicit:     perf.Explicit,
		Confidence:   perf.Confidence,
		CheckedAt:    perf.CheckedAt,
		Popular:      perf.Popular,
		Viewers:      perf.Viewers(),
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
