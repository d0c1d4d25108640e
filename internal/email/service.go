package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/eventflow-api/internal/config"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/circuitbreaker"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

type Service interface {
	Send(ctx context.Context, msg Message) error
}

// FromNotification builds the email for a persisted notification
func FromNotification(n model.NotificationMessage) Message {
	var body strings.Builder
	if n.RecipientName != "" {
		fmt.Fprintf(&body, "Hi %s,\n\n", n.RecipientName)
	}
	body.WriteString(n.Notification.Message)
	if n.Notification.AdminNote != "" {
		fmt.Fprintf(&body, "\n\nNote from the reviewer: %s", n.Notification.AdminNote)
	}
	body.WriteString("\n\nEventFlow")

	return Message{
		To:      n.RecipientEmail,
		ToName:  n.RecipientName,
		Subject: n.Notification.Title,
		Body:    body.String(),
	}
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer dialer
	from   string
	cb     *circuitbreaker.CircuitBreaker
}

func NewSMTPService(cfg config.EmailConfig) Service {
	return newSMTPService(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From)
}

func newSMTPService(d dialer, from string) *smtpService {
	return &smtpService{
		dialer: d,
		from:   from,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxFailures: 5,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
	}
}

func (s *smtpService) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("email recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetAddressHeader("To", msg.To, msg.ToName)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.cb.Execute(func() error { return s.dialer.DialAndSend(m) }); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}

type logService struct {
	logger zerolog.Logger
}

// NewLogService returns a Service that only logs, used when SMTP is disabled
func NewLogService(logger zerolog.Logger) Service {
	return &logService{logger: logger.With().Str("component", "email").Logger()}
}

func (s *logService) Send(_ context.Context, msg Message) error {
	s.logger.Debug().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("email delivery disabled, message logged")
	return nil
}
