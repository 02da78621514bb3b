package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/fortifund/fortifund-api/internal/config"
	pkglogger "github.com/fortifund/fortifund-api/pkg/logger"
	"gopkg.in/gomail.v2"
)

// EmailMessage is a plain-text email
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers email messages
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// NewMailer picks the Mailer for the configured driver
func NewMailer(cfg config.EmailConfig, logger *slog.Logger) (Mailer, error) {
	switch cfg.Driver {
	case "smtp":
		return NewSMTPMailer(cfg.SMTPServer, cfg.SMTPPort, cfg.Sender, cfg.Password), nil
	case "ses":
		return NewSESMailer(cfg.AWSRegion, cfg.Sender, logger)
	case "log":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// SMTPMailer sends mail through an SMTP relay with STARTTLS
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   username,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/plain", msg.Body)

	if err := m.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("failed to send email via smtp: %w", err)
	}
	return nil
}

// SESMailer sends mail using AWS SES
type SESMailer struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

func NewSESMailer(region, fromAddress string, logger *slog.Logger) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESMailer{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

func (m *SESMailer) Send(ctx context.Context, msg EmailMessage) error {
	input := &ses.SendEmailInput{
		Source: aws.String(m.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body)},
			},
		},
	}

	result, err := m.sesClient.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}

	m.logger.Info("email sent via SES",
		slog.String("to", pkglogger.SanitizedEmail(msg.To)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg EmailMessage) error {
	m.logger.Info("email not sent: mail delivery is not configured",
		slog.String("to", pkglogger.SanitizedEmail(msg.To)),
		slog.String("subject", msg.Subject))
	return nil
}
