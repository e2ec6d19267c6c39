package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"camwatch/internal/domain"
	"camwatch/internal/infra/metrics"
)

// Dispatcher рассылает уведомления подписчикам модели с учётом кулдауна.
type Dispatcher struct {
	log           zerolog.Logger
	subs          domain.SubscriptionRepo
	notifications domain.NotificationRepo
	channels      map[string]domain.DeliveryChannel
	cooldown      time.Duration
	siteURL       string
	now           func() time.Time
}

// NewDispatcher создаёт диспетчер уведомлений.
func NewDispatcher(log zerolog.Logger, subs domain.SubscriptionRepo, notifications domain.NotificationRepo, channels map[string]domain.DeliveryChannel, cooldown time.Duration, siteURL string) *Dispatcher {
	return &Dispatcher{
		log:           log,
		subs:          subs,
		notifications: notifications,
		channels:      channels,
		cooldown:      cooldown,
		siteURL:       siteURL,
		now:           time.Now,
	}
}

// expandChannels разворачивает канал подписки в список каналов доставки.
func expandChannels(channel string) []string {
	if channel == domain.ChannelBoth {
		return []string{domain.ChannelEmail, domain.ChannelTelegram}
	}
	return []string{channel}
}

// Eligible сообщает, допускает ли кулдаун уведомление по подписке.
func Eligible(sub domain.Subscription, now time.Time, cooldown time.Duration) bool {
	if !sub.Active {
		return false
	}
	if sub.LastNotifiedAt == nil {
		return true
	}
	return now.Sub(*sub.LastNotifiedAt) >= cooldown
}

// NotifySubscribers рассылает уведомления по активным подпискам модели.
// Кулдаун фиксируется сразу после создания первого уведомления, до доставки:
// сбой доставки не открывает окно повторно, но без созданного уведомления
// окно не расходуется. Ошибка одной доставки не прерывает остальные.
func (d *Dispatcher) NotifySubscribers(ctx context.Context, perf domain.Performer) error {
	subs, err := d.subs.ListActiveForPerformer(ctx, perf.ID)
	if err != nil {
		return err
	}
	now := d.now().UTC()

	notified := 0
	for _, sub := range subs {
		if !Eligible(sub, now, d.cooldown) {
			continue
		}
		stamped := false
		for _, channel := range expandChannels(sub.Channel) {
			record, err := d.notifications.CreateNotification(ctx, sub.ID, perf.ID, channel)
			if err != nil {
				d.log.Error().Err(err).Int64("subscription_id", sub.ID).Str("channel", channel).Msg("notify: не удалось создать уведомление")
				continue
			}
			if !stamped {
				if err := d.subs.StampNotified(ctx, sub.ID, now); err != nil {
					d.log.Error().Err(err).Int64("subscription_id", sub.ID).Msg("notify: не удалось зафиксировать кулдаун")
				}
				stamped = true
			}
			d.deliverOne(ctx, record, sub, perf, channel, now)
		}
		if stamped {
			notified++
		}
	}
	d.log.Info().
		Int64("performer_id", perf.ID).
		Int("subscriptions", len(subs)).
		Int("notified", notified).
		Msg("notify: рассылка завершена")
	return nil
}

func (d *Dispatcher) deliverOne(ctx context.Context, record domain.Notification, sub domain.Subscription, perf domain.Performer, channel string, now time.Time) {
	target, ok := d.channels[channel]
	if !ok {
		_ = d.notifications.MarkNotificationFailed(ctx, record.ID, "канал доставки не настроен")
		metrics.IncNotification(channel, domain.NotificationFailed)
		return
	}

	delivery := BuildDelivery(sub.User, perf, now, d.siteURL)
	if err := target.Deliver(ctx, delivery); err != nil {
		d.log.Error().Err(err).
			Int64("notification_id", record.ID).
			Str("channel", channel).
			Msg("notify: доставка не удалась")
		_ = d.notifications.MarkNotificationFailed(ctx, record.ID, err.Error())
		metrics.IncNotification(channel, domain.NotificationFailed)
		return
	}
	if err := d.notifications.MarkNotificationSent(ctx, record.ID, time.Now().UTC()); err != nil {
		d.log.Error().Err(err).Int64("notification_id", record.ID).Msg("notify: не удалось отметить доставку")
		return
	}
	metrics.IncNotification(channel, domain.NotificationSent)
}
