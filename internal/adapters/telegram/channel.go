package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"camwatch/internal/domain"
	"camwatch/internal/infra/metrics"
)

// Channel доставляет уведомления в личный чат Telegram.
type Channel struct {
	bot *tgbotapi.BotAPI
}

// NewChannel создаёт канал доставки.
func NewChannel(bot *tgbotapi.BotAPI) *Channel {
	return &Channel{bot: bot}
}

var _ domain.DeliveryChannel = (*Channel)(nil)

// Deliver реализует domain.DeliveryChannel.
func (c *Channel) Deliver(ctx context.Context, d domain.Delivery) error {
	if d.Recipient.TGChatID == nil {
		return errors.New("telegram: у получателя не привязан чат")
	}
	msg := tgbotapi.NewMessage(*d.Recipient.TGChatID, d.Subject+"\n\n"+d.Body)
	msg.DisableWebPagePreview = true

	start := time.Now()
	_, err := c.bot.Send(msg)
	metrics.ObserveNetworkRequest("telegram", "send_message", "bot_api", start, err)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
