package domain

import "time"

// Платформы, с которых собирается каталог.
const (
	PlatformChaturbate = "chaturbate"
	PlatformStripcash  = "stripcash"
	PlatformXLoveCash  = "xlovecash"
	PlatformBongaCash  = "bongacash"
)

// Platforms перечисляет поддерживаемые платформы в порядке обхода.
var Platforms = []string{PlatformChaturbate, PlatformStripcash, PlatformXLoveCash, PlatformBongaCash}

// Performer описывает модель каталога с привязкой к платформе.
// Пара (Platform, NativeID) уникальна; UniqueHandle уникален глобально.
type Performer struct {
	ID           int64
	Platform     string
	NativeID     string
	Handle       string
	UniqueHandle string
	DisplayName  string
	Online       bool
	Age          *int
	Gender       string
	Description  string
	ImageURL     string
	IframeURL    string
	EmbedURL     string
	SnapshotURL  string
	ChatURL      string
	RawJSON      []byte
	Explicit     bool
	Confidence   *float64
	CheckedAt    *time.Time
	ImageHash    string
	Popular      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Viewers извлекает число зрителей из сырого ответа платформы.
// Возвращает 0, если платформа его не сообщает.
func (p Performer) Viewers() int {
	return viewersFromRaw(p.RawJSON)
}

// SourceRecord — нормализованная запись модели из ответа платформы,
// ещё не сохранённая в каталоге. Присутствие записи в ответе означает,
// что модель онлайн.
type SourceRecord struct {
	NativeID    string
	Handle      string
	DisplayName string
	Age         *int
	Gender      string
	Description string
	ImageURL    string
	IframeURL   string
	EmbedURL    string
	SnapshotURL string
	ChatURL     string
	RawJSON     []byte
}

// Category описывает категорию каталога.
type Category struct {
	ID          int64
	Name        string
	DisplayName string
	Active      bool
	CreatedAt   time.Time
}

// User описывает получателя уведомлений.
type User struct {
	ID        int64
	Email     string
	TGChatID  *int64
	CreatedAt time.Time
}

// Каналы доставки уведомлений.
const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
	ChannelBoth     = "both"
)

// Subscription хранит подписку пользователя на модель.
// На пару (UserID, PerformerID) существует не более одной строки;
// повторная подписка включает флаг Active вместо создания дубликата.
type Subscription struct {
	ID             int64
	UserID         int64
	PerformerID    int64
	Active         bool
	Channel        string
	LastNotifiedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	User           User
}

// Статусы уведомлений.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification — запись об одной попытке доставки уведомления.
// Создаётся в pending и ровно один раз переходит в sent или failed.
type Notification struct {
	ID             int64
	SubscriptionID int64
	PerformerID    int64
	Channel        string
	Status         string
	SentAt         *time.Time
	Error          string
	CreatedAt      time.Time
}

// PlatformConfig описывает параметры обращения к API платформы.
type PlatformConfig struct {
	ID       int64
	Platform string
	Method   string
	APIURL   string
	Params   map[string]string
	Active   bool
}

// SweepStats — итоги одного цикла сверки каталога по платформе.
type SweepStats struct {
	Updated       int
	Inserted      int
	MarkedOffline int
	Resuffixed    int
}
