package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ScrapeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_errors_total",
		Help: "Ошибки при опросе платформ",
	}, []string{"platform"})

	ScrapeSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scrape_cycle_seconds",
		Help:    "Время полного цикла опроса платформы",
		Buckets: prometheus.DefBuckets,
	}, []string{"platform"})

	ScrapedPerformers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scraped_performers",
		Help: "Количество записей в последнем ответе платформы",
	}, []string{"platform"})

	CheckSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "check_seconds",
		Help:    "Время полной проверки изображения",
		Buckets: prometheus.DefBuckets,
	})

	CheckVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "check_verdicts_total",
		Help: "Результаты проверок изображений",
	}, []string{"verdict"})

	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Количество уведомлений по каналам и статусам",
	}, []string{"channel", "status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ScrapeErrors,
		ScrapeSeconds,
		ScrapedPerformers,
		CheckSeconds,
		CheckVerdicts,
		NotificationsTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveCheck записывает длительность и вердикт проверки изображения.
func ObserveCheck(start time.Time, explicit bool, err error) {
	CheckSeconds.Observe(time.Since(start).Seconds())
	verdict := "clean"
	switch {
	case err != nil:
		verdict = "error"
	case explicit:
		verdict = "explicit"
	}
	CheckVerdicts.WithLabelValues(verdict).Inc()
}

// IncNotification увеличивает счётчик уведомлений.
func IncNotification(channel, status string) {
	NotificationsTotal.WithLabelValues(channel, status).Inc()
}
