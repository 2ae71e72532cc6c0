package notifications

import (
	"context"
	"errors"
	"fmt"

	applog "lifelog/backend/pkg/log"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPEmailNotifier sends through a plain SMTP relay.
type SMTPEmailNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPEmailNotifier(host string, port int, username, password, from string) (*SMTPEmailNotifier, error) {
	if host == "" {
		return nil, errors.New("missing SMTP_HOST")
	}
	if port == 0 {
		return nil, errors.New("missing SMTP_PORT")
	}
	if from == "" {
		return nil, errors.New("missing SMTP_FROM")
	}
	return &SMTPEmailNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}, nil
}

func (s *SMTPEmailNotifier) message(to, subject, bodyHTML, bodyText string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	if bodyHTML != "" {
		msg.SetBody("text/html", bodyHTML)
		if bodyText != "" {
			msg.AddAlternative("text/plain", bodyText)
		}
	} else {
		msg.SetBody("text/plain", bodyText)
	}
	return msg
}

// SendEmail dials per message. gomail has no context support, so ctx is only checked up front.
func (s *SMTPEmailNotifier) SendEmail(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return errors.New("no recipient specified")
	}
	if err := s.dialer.DialAndSend(s.message(to, subject, bodyHTML, bodyText)); err != nil {
		applog.L.Error("Failed to send email via SMTP", zap.Error(err), zap.String("recipient", to))
		return fmt.Errorf("smtp send: %w", err)
	}
	applog.L.Info("Successfully sent email", zap.String("recipient", to), zap.String("subject", subject))
	return nil
}
