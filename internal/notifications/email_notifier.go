package notifications

import (
	"context"
	"errors"
	"strings"

	"lifelog/backend/pkg/config"
	applog "lifelog/backend/pkg/log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// EmailNotifier sends one email.
type EmailNotifier interface {
	SendEmail(ctx context.Context, to, subject, bodyHTML, bodyText string) error
}

// DefaultEmailNotifier is the notifier used by the application. InitEmailService sets it.
var DefaultEmailNotifier EmailNotifier

// InitEmailService picks the email backend from EMAIL_PROVIDER.
// Any misconfiguration falls back to the log notifier so the server still boots.
func InitEmailService() {
	log := applog.L.Named("InitEmailService")
	cfg := config.Cfg

	switch strings.ToLower(cfg.EmailProvider) {
	case "ses":
		if cfg.AWSRegion == "" || cfg.AWSSESEmailSender == "" {
			log.Warn("AWS SES is selected but AWS_REGION or AWS_SES_EMAIL_SENDER is missing. Emails will only be logged.")
			DefaultEmailNotifier = &logNotifier{}
			return
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Error("Failed to load AWS SDK config for SES", zap.Error(err))
			DefaultEmailNotifier = &logNotifier{}
			return
		}
		DefaultEmailNotifier = &SESEmailNotifier{
			client: sesv2.NewFromConfig(awsCfg),
			sender: cfg.AWSSESEmailSender,
		}
		log.Info("AWS SES email service initialized", zap.String("sender", cfg.AWSSESEmailSender), zap.String("region", cfg.AWSRegion))
	case "smtp":
		notifier, err := NewSMTPEmailNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		if err != nil {
			log.Warn("SMTP email service is not usable. Emails will only be logged.", zap.Error(err))
			DefaultEmailNotifier = &logNotifier{}
			return
		}
		DefaultEmailNotifier = notifier
		log.Info("SMTP email service initialized", zap.String("host", cfg.SMTPHost), zap.Int("port", cfg.SMTPPort))
	default:
		DefaultEmailNotifier = &logNotifier{}
		log.Info("Email provider is 'log'; outgoing emails are written to the log only")
	}
}

// SendEmailNotification sends through DefaultEmailNotifier, logging instead when none is set.
func SendEmailNotification(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
	if DefaultEmailNotifier == nil {
		return (&logNotifier{}).SendEmail(ctx, to, subject, bodyHTML, bodyText)
	}
	return DefaultEmailNotifier.SendEmail(ctx, to, subject, bodyHTML, bodyText)
}

// SESEmailNotifier sends through AWS SES v2.
type SESEmailNotifier struct {
	client *sesv2.Client
	sender string
}

func (s *SESEmailNotifier) SendEmail(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
	if s.client == nil {
		return errors.New("SES client not initialized")
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(bodyHTML),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(bodyText),
						Charset: aws.String("UTF-8"),
					},
				},
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		applog.L.Error("Failed to send email via SES", zap.Error(err), zap.String("recipient", to))
		return err
	}

	applog.L.Info("Successfully sent email", zap.String("recipient", to), zap.String("subject", subject))
	return nil
}

// logNotifier writes emails to the log. Used in development and as a fallback.
type logNotifier struct{}

func (l *logNotifier) SendEmail(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
	applog.L.Info("--- SIMULATING EMAIL SEND ---",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", bodyText))
	return nil
}
