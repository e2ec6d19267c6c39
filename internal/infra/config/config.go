package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"UTC"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Queues struct {
		Check   string `envconfig:"CHECK_QUEUE_KEY" default:"check_jobs"`
		Backend string `envconfig:"CHECK_QUEUE_BACKEND" default:"redis"`
	} `envconfig:""`

	Scrape struct {
		Interval time.Duration `envconfig:"SCRAPE_INTERVAL" default:"5m"`
		Limit    int           `envconfig:"SCRAPE_LIMIT" default:"100"`
	} `envconfig:""`

	Check struct {
		Interval      time.Duration `envconfig:"CHECK_INTERVAL" default:"5m"`
		MaxPerCycle   int           `envconfig:"CHECK_MAX_PER_CYCLE" default:"20"`
		Concurrency   int           `envconfig:"CHECK_CONCURRENCY" default:"2"`
		FetchTimeout  time.Duration `envconfig:"CHECK_FETCH_TIMEOUT" default:"10s"`
		ArtifactDir   string        `envconfig:"CHECK_ARTIFACT_DIR" default:"/tmp/camwatch/nudity_cache"`
		ArtifactTTL   time.Duration `envconfig:"CHECK_ARTIFACT_TTL" default:"1h"`
		SweepInterval time.Duration `envconfig:"CHECK_SWEEP_INTERVAL" default:"30m"`
	} `envconfig:""`

	Detector struct {
		URL     string        `envconfig:"DETECTOR_URL"`
		Timeout time.Duration `envconfig:"DETECTOR_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Notify struct {
		Cooldown time.Duration `envconfig:"NOTIFY_COOLDOWN" default:"30m"`
		SiteURL  string        `envconfig:"SITE_URL" default:"https://camwatch.example"`
	} `envconfig:""`

	SMTP struct {
		Host     string `envconfig:"SMTP_HOST"`
		Port     int    `envconfig:"SMTP_PORT" default:"587"`
		Username string `envconfig:"SMTP_USERNAME"`
		Password string `envconfig:"SMTP_PASSWORD"`
		From     string `envconfig:"SMTP_FROM"`
	} `envconfig:""`

	Telegram struct {
		Token string `envconfig:"TG_BOT_TOKEN"`
	} `envconfig:""`

	Popular struct {
		MinViewers int           `envconfig:"POPULAR_MIN_VIEWERS" default:"500"`
		Interval   time.Duration `envconfig:"POPULAR_INTERVAL" default:"1h"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
