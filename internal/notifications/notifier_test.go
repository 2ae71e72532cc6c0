package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"lifelog/backend/internal/models"
	"lifelog/backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockNotifier records every email instead of sending it.
type MockNotifier struct {
	SendFunc    func(ctx context.Context, to, subject, bodyHTML, bodyText string) error
	SendCalled  bool
	LastTo      string
	LastSubject string
	LastHTML    string
	LastText    string
}

func (m *MockNotifier) SendEmail(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
	m.SendCalled = true
	m.LastTo = to
	m.LastSubject = subject
	m.LastHTML = bodyHTML
	m.LastText = bodyText
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, bodyHTML, bodyText)
	}
	return nil
}

func TestInitEmailService(t *testing.T) {
	originalNotifier := DefaultEmailNotifier
	originalCfg := config.Cfg
	defer func() {
		DefaultEmailNotifier = originalNotifier
		config.Cfg = originalCfg
	}()

	t.Run("log provider uses logNotifier", func(t *testing.T) {
		config.Cfg.EmailProvider = "log"
		InitEmailService()
		_, ok := DefaultEmailNotifier.(*logNotifier)
		assert.True(t, ok, "DefaultEmailNotifier should be a logNotifier")
	})

	t.Run("SES without sender falls back to logNotifier", func(t *testing.T) {
		config.Cfg.EmailProvider = "ses"
		config.Cfg.AWSRegion = ""
		config.Cfg.AWSSESEmailSender = ""
		InitEmailService()
		_, ok := DefaultEmailNotifier.(*logNotifier)
		assert.True(t, ok)
	})

	t.Run("SMTP without host falls back to logNotifier", func(t *testing.T) {
		config.Cfg.EmailProvider = "smtp"
		config.Cfg.SMTPHost = ""
		InitEmailService()
		_, ok := DefaultEmailNotifier.(*logNotifier)
		assert.True(t, ok)
	})

	t.Run("SMTP with settings uses SMTPEmailNotifier", func(t *testing.T) {
		config.Cfg.EmailProvider = "smtp"
		config.Cfg.SMTPHost = "smtp.example.com"
		config.Cfg.SMTPPort = 587
		config.Cfg.SMTPFrom = "noreply@example.com"
		InitEmailService()
		_, ok := DefaultEmailNotifier.(*SMTPEmailNotifier)
		assert.True(t, ok)
	})
}

func TestSendEmailNotificationWithoutNotifier(t *testing.T) {
	originalNotifier := DefaultEmailNotifier
	DefaultEmailNotifier = nil
	defer func() { DefaultEmailNotifier = originalNotifier }()

	assert.NotPanics(t, func() {
		err := SendEmailNotification(context.Background(), "user@example.com", "subject", "<p>body</p>", "body")
		assert.NoError(t, err)
	})
}

func TestLogNotifier(t *testing.T) {
	notifier := &logNotifier{}
	err := notifier.SendEmail(context.Background(), "test@example.com", "Test Subject", "<p>Test Body</p>", "Test Body")
	assert.NoError(t, err, "logNotifier should never return an error")
}

func TestPasswordResetMailer(t *testing.T) {
	mock := &MockNotifier{}
	mailer := NewPasswordResetMailer(mock, "https://app.example.com/", time.Hour)

	err := mailer.SendPasswordReset(context.Background(), "user@example.com", "abc123")
	require.NoError(t, err)

	assert.True(t, mock.SendCalled)
	assert.Equal(t, "user@example.com", mock.LastTo)
	assert.Equal(t, passwordResetSubject, mock.LastSubject)
	assert.Contains(t, mock.LastText, "https://app.example.com/reset-password?token=abc123")
	assert.Contains(t, mock.LastHTML, "https://app.example.com/reset-password?token=abc123")
	assert.Contains(t, mock.LastText, "1h0m0s")
}

func TestPasswordResetMailerPropagatesErrors(t *testing.T) {
	mock := &MockNotifier{SendFunc: func(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
		return errors.New("smtp down")
	}}
	mailer := NewPasswordResetMailer(mock, "http://localhost:5173", time.Hour)
	err := mailer.SendPasswordReset(context.Background(), "user@example.com", "tok")
	assert.EqualError(t, err, "smtp down")
}

func TestSendLendingReminder(t *testing.T) {
	originalNotifier := DefaultEmailNotifier
	defer func() { DefaultEmailNotifier = originalNotifier }()

	mock := &MockNotifier{}
	DefaultEmailNotifier = mock

	t.Run("skips lendings without borrower email", func(t *testing.T) {
		err := SendLendingReminder(context.Background(), &models.Lending{BorrowerName: "Sam"}, "Drill")
		require.NoError(t, err)
		assert.False(t, mock.SendCalled)
	})

	t.Run("emails the borrower", func(t *testing.T) {
		due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		lending := &models.Lending{BorrowerName: "Sam", BorrowerEmail: "sam@example.com", ExpectedReturnDate: &due}
		err := SendLendingReminder(context.Background(), lending, "Drill")
		require.NoError(t, err)
		assert.Equal(t, "sam@example.com", mock.LastTo)
		assert.Contains(t, mock.LastText, "by 2024-03-01")
	})
}
