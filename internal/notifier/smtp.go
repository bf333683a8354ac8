package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPOptions settings for NewSMTPMailer
type SMTPOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	Timeout  time.Duration
}

// SMTPMailer Mailer backed by go-mail. STARTTLS is used when offered.
type SMTPMailer struct {
	client *mail.Client
	logger *zap.Logger
}

// ErrNoValidRecipients every address of a message was rejected by the parser.
var ErrNoValidRecipients = errors.New("no valid recipient address")

func NewSMTPMailer(opts SMTPOptions, logger *zap.Logger) (*SMTPMailer, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	c, err := mail.NewClient(opts.Host,
		mail.WithPort(opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(opts.User),
		mail.WithPassword(opts.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(opts.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &SMTPMailer{client: c, logger: logger}, nil
}

// Send dials, delivers msg and closes the connection. Recipients that do
// not parse are logged and skipped; the message still goes to the rest.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	mm, err := m.compose(msg)
	if err != nil {
		return "", err
	}
	if err := m.client.DialAndSendWithContext(ctx, mm); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return mm.GetMessageID(), nil
}

func (m *SMTPMailer) compose(msg Message) (*mail.Msg, error) {
	mm := mail.NewMsg()
	if err := mm.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", msg.From, err)
	}

	accepted := 0
	for _, rcpt := range msg.To {
		if err := mm.AddTo(rcpt); err != nil {
			m.logger.Warn("Skipping invalid recipient address", zap.String("address", rcpt), zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return nil, fmt.Errorf("%w (%d rejected)", ErrNoValidRecipients, len(msg.To))
	}

	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Text)
	mm.SetMessageID()
	mm.SetDate()
	return mm, nil
}
