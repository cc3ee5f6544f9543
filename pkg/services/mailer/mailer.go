package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
)

// Message is one report notification: HTML body with a derived plain-text
// alternative and the rendered workbook attached.
type Message struct {
	To          []string
	CC          []string
	Subject     string
	HTMLBody    string
	Attachments []string
}

// Sender delivers report notifications. Send reports whether the message was
// actually handed to the transport: a sender without credentials skips the
// send and returns (false, nil).
type Sender interface {
	Send(ctx context.Context, msg Message) (bool, error)
}

type smtpSender struct {
	cfg domain.SMTPConfig
}

func NewSender(cfg domain.SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(ctx context.Context, msg Message) (bool, error) {
	logger := zerolog.Ctx(ctx)

	if s.cfg.User == "" || s.cfg.Password == "" {
		logger.Warn().Msg("smtp not configured; skipping send")
		return false, nil
	}

	m, err := buildMessage(s.cfg, msg)
	if err != nil {
		return false, err
	}

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.User),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return false, fmt.Errorf("failed to send report mail: %w", err)
	}
	return true, nil
}

func buildMessage(cfg domain.SMTPConfig, msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()

	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", from, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient addresses %v: %w", msg.To, err)
	}
	if len(msg.CC) > 0 {
		if err := m.Cc(msg.CC...); err != nil {
			return nil, fmt.Errorf("invalid cc addresses %v: %w", msg.CC, err)
		}
	}

	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, plainText(msg.HTMLBody))
	m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)

	for _, path := range msg.Attachments {
		m.AttachFile(path)
	}
	return m, nil
}

var htmlStripper = strings.NewReplacer("<br>", "\n", "<b>", "", "</b>", "")

// plainText derives the plain alternative from the fixed HTML template.
func plainText(html string) string {
	return htmlStripper.Replace(html)
}
