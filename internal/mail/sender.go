package mail

import (
	"context"

	"github.com/go-faster/errors"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Message is a single outbound notification email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a message over some transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the transport settings for real delivery. An empty Host
// means no transport is configured and the dispatcher runs in mock mode.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether real SMTP delivery can be attempted.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// SMTPSender delivers messages over SMTP using go-mail.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender builds an SMTP sender from the given transport config.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create smtp client")
	}

	return &SMTPSender{client: client, from: cfg.From}, nil
}

// Send delivers one message. It returns an error on any transport failure;
// classification into success/failure happens at the dispatcher.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return errors.Wrap(err, "set from")
	}
	if err := m.To(msg.To); err != nil {
		return errors.Wrap(err, "set to")
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return errors.Wrap(err, "dial and send")
	}
	return nil
}

// MockSender is used when no SMTP transport is configured. It logs a
// mock-delivery line and reports success without any network activity.
type MockSender struct {
	lg *zap.Logger
}

// NewMockSender creates a MockSender logging through lg.
func NewMockSender(lg *zap.Logger) *MockSender {
	return &MockSender{lg: lg}
}

// Send logs the would-be delivery and succeeds.
func (s *MockSender) Send(_ context.Context, msg Message) error {
	s.lg.Info("mock email send",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
