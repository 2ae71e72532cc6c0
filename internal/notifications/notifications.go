package notifications

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"lifelog/backend/internal/models"
	"lifelog/backend/pkg/config"
)

const (
	passwordResetSubject   = "Reset your LifeLog password"
	lendingReminderSubject = "Reminder: borrowed item"
)

// PasswordResetMailer delivers reset tokens as a link to the frontend reset page.
type PasswordResetMailer struct {
	notifier    EmailNotifier
	frontendURL string
	ttl         time.Duration
}

// NewPasswordResetMailer builds a mailer. A nil notifier means DefaultEmailNotifier at send time.
func NewPasswordResetMailer(notifier EmailNotifier, frontendURL string, ttl time.Duration) *PasswordResetMailer {
	return &PasswordResetMailer{notifier: notifier, frontendURL: frontendURL, ttl: ttl}
}

// DefaultPasswordResetMailer uses the configured frontend URL and token lifetime.
func DefaultPasswordResetMailer() *PasswordResetMailer {
	return NewPasswordResetMailer(nil, config.Cfg.FrontendURL, config.Cfg.PasswordResetTTL)
}

// ResetLink is the URL the user follows to choose a new password.
func (m *PasswordResetMailer) ResetLink(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", strings.TrimSuffix(m.frontendURL, "/"), url.QueryEscape(token))
}

func (m *PasswordResetMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	link := m.ResetLink(token)
	validFor := m.ttl.Round(time.Minute).String()
	text := fmt.Sprintf("We received a request to reset your LifeLog password.\n\n"+
		"Open this link to choose a new password (valid for %s):\n%s\n\n"+
		"If you did not ask for this, you can ignore this email.", validFor, link)
	body := fmt.Sprintf("<p>We received a request to reset your LifeLog password.</p>"+
		"<p><a href=\"%s\">Choose a new password</a> (valid for %s).</p>"+
		"<p>If you did not ask for this, you can ignore this email.</p>", html.EscapeString(link), validFor)

	if m.notifier != nil {
		return m.notifier.SendEmail(ctx, email, passwordResetSubject, body, text)
	}
	return SendEmailNotification(ctx, email, passwordResetSubject, body, text)
}

// SendLendingReminder emails the borrower of an item. Lendings without a borrower email are skipped.
func SendLendingReminder(ctx context.Context, lending *models.Lending, itemName string) error {
	if lending.BorrowerEmail == "" {
		return nil
	}
	due := "as soon as possible"
	if lending.ExpectedReturnDate != nil {
		due = "by " + lending.ExpectedReturnDate.Format("2006-01-02")
	}
	text := fmt.Sprintf("Hi %s,\n\nThis is a friendly reminder to return %q %s.\n",
		lending.BorrowerName, itemName, due)
	body := fmt.Sprintf("<p>Hi %s,</p><p>This is a friendly reminder to return <strong>%s</strong> %s.</p>",
		html.EscapeString(lending.BorrowerName), html.EscapeString(itemName), due)
	return SendEmailNotification(ctx, lending.BorrowerEmail, lendingReminderSubject, body, text)
}
