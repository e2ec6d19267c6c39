package notify

import (
	"fmt"
	"strings"
	"time"

	"camwatch/internal/domain"
)

// BuildDelivery собирает текст уведомления о начале явного шоу.
func BuildDelivery(user domain.User, perf domain.Performer, now time.Time, siteURL string) domain.Delivery {
	chatURL := perf.ChatURL
	if chatURL == "" {
		chatURL = siteURL
	}

	viewers := "N/A"
	if count := perf.Viewers(); count > 0 {
		viewers = fmt.Sprintf("%d", count)
	}

	confidence := "N/A"
	if perf.Confidence != nil {
		confidence = fmt.Sprintf("%.0f%%", *perf.Confidence*100)
	}

	body := fmt.Sprintf(`Ваша модель %s сейчас в эфире и показывает откровенное шоу!

Смотреть: %s
Зрителей: %s
Уверенность: %s
Обнаружено: %s

Отписаться от %s: %s/subscriptions/`,
		perf.DisplayName,
		chatURL,
		viewers,
		confidence,
		now.Format("2006-01-02 15:04"),
		perf.DisplayName,
		strings.TrimRight(siteURL, "/"),
	)

	return domain.Delivery{
		Recipient: user,
		Subject:   fmt.Sprintf("🔥 %s в эфире!", perf.DisplayName),
		Body:      body,
	}
}
