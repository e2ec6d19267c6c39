package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"camwatch/internal/domain"
	"camwatch/internal/infra/metrics"
)

// SMTP доставляет уведомления по электронной почте.
type SMTP struct {
	client *mail.Client
	host   string
	from   string
}

// NewSMTP создаёт канал доставки.
func NewSMTP(host string, port int, username, password, from string) (*SMTP, error) {
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTP{client: client, host: host, from: from}, nil
}

var _ domain.DeliveryChannel = (*SMTP)(nil)

// Deliver реализует domain.DeliveryChannel.
func (m *SMTP) Deliver(ctx context.Context, d domain.Delivery) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(d.Recipient.Email); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(d.Subject)
	msg.SetBodyString(mail.TypeTextPlain, d.Body)

	start := time.Now()
	err := m.client.DialAndSendWithContext(ctx, msg)
	metrics.ObserveNetworkRequest("smtp", "send", m.host, start, err)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
