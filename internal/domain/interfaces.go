package domain

import (
	"context"
	"time"
)

// CatalogRepo управляет каталогом моделей.
type CatalogRepo interface {
	// ApplySweep применяет результат обхода платформы одной транзакцией:
	// обновление существующих записей без затрагивания идентификационных полей,
	// вставка новых с игнорированием конфликтов, разрешение дублей уникальных
	// хендлов и авторитетная замена онлайн-статуса платформы.
	ApplySweep(ctx context.Context, platform string, records []SourceRecord) (SweepStats, error)
	// ReplaceCategories заменяет наборы категорий моделей платформы по их тегам,
	// сопоставленным со словарём категорий по name или display_name.
	ReplaceCategories(ctx context.Context, platform string, tags map[string][]string) error
	GetPerformer(ctx context.Context, id int64) (Performer, error)
	ListPerformers(ctx context.Context, filter PerformerFilter) ([]Performer, error)
	// ListCheckCandidates возвращает онлайн-моделей, имеющих хотя бы одну
	// активную подписку.
	ListCheckCandidates(ctx context.Context) ([]Performer, error)
	// UpdateCheckResult записывает итог классификации одной записью.
	UpdateCheckResult(ctx context.Context, id int64, explicit bool, confidence float64, checkedAt time.Time, imageHash string) error
	// RecomputePopularity выставляет флаг популярности по числу зрителей.
	RecomputePopularity(ctx context.Context, minViewers int) (int, error)
}

// PerformerFilter задаёт фильтры выборки каталога.
type PerformerFilter struct {
	Platform string
	Gender   string
	Online   *bool
	Limit    int
	Offset   int
}

// CategoryRepo управляет словарём категорий.
type CategoryRepo interface {
	UpsertCategory(ctx context.Context, name, displayName string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// UserRepo управляет получателями уведомлений.
type UserRepo interface {
	UpsertByEmail(ctx context.Context, email string, tgChatID *int64) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
}

// SubscriptionRepo управляет подписками.
type SubscriptionRepo interface {
	// Subscribe создаёт подписку или включает существующую (одна строка на пару
	// пользователь-модель).
	Subscribe(ctx context.Context, userID, performerID int64, channel string) (Subscription, error)
	Unsubscribe(ctx context.Context, userID, performerID int64) error
	ListUserSubscriptions(ctx context.Context, userID int64) ([]Subscription, error)
	// ListActiveForPerformer возвращает активные подписки модели вместе с
	// данными получателей.
	ListActiveForPerformer(ctx context.Context, performerID int64) ([]Subscription, error)
	// StampNotified фиксирует момент постановки уведомления в доставку.
	StampNotified(ctx context.Context, subscriptionID int64, at time.Time) error
}

// NotificationRepo управляет журналом уведомлений.
type NotificationRepo interface {
	CreateNotification(ctx context.Context, subscriptionID, performerID int64, channel string) (Notification, error)
	MarkNotificationSent(ctx context.Context, id int64, at time.Time) error
	MarkNotificationFailed(ctx context.Context, id int64, detail string) error
}

// PlatformConfigRepo возвращает конфигурацию платформ.
type PlatformConfigRepo interface {
	GetPlatformConfig(ctx context.Context, platform string) (PlatformConfig, error)
}

// Detection — один размеченный регион из ответа классификатора.
type Detection struct {
	Label string
	Score float64
}

// Detector — внешний классификатор изображений: путь к локальному файлу на
// входе, упорядоченный список детекций на выходе.
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]Detection, error)
}

// Delivery описывает одно сообщение для доставки подписчику.
type Delivery struct {
	Recipient User
	Subject   string
	Body      string
}

// DeliveryChannel доставляет уведомление и синхронно сообщает об исходе.
type DeliveryChannel interface {
	Deliver(ctx context.Context, d Delivery) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
