package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"authgate/internal/config"
	"authgate/internal/logger"
)

// sesClient is the part of the SES API the email service uses
type sesClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesClient
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	log        *logger.Logger
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and every send is skipped.
func NewEmailService(ctx context.Context, cfg config.Email, log *logger.Logger) (*EmailService, error) {
	if cfg.FromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{log: log}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", "from", cfg.FromEmail, "region", cfg.Region)
	return newEmailService(sesv2.NewFromConfig(awsCfg), cfg, log), nil
}

func newEmailService(client sesClient, cfg config.Email, log *logger.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		appBaseURL: cfg.AppBaseURL,
		enabled:    true,
		log:        log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

// SendPasswordResetEmail mails the reset token to the user
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	if !s.IsEnabled() {
		s.log.Debug("skipping password reset email, service disabled", "to", toEmail)
		return nil
	}

	subject := "Reset your password"
	textBody := fmt.Sprintf(`Hi %s,

We received a request to reset your password.

Send the following to %s/reset_password together with your email and new password:

reset_token: %s

If you didn't request a password reset, you can safely ignore this email.
`, toName, s.appBaseURL, resetToken)

	return s.sendEmail(ctx, toEmail, subject, textBody)
}

// SendWelcomeEmail sends a welcome email to new users
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.IsEnabled() {
		s.log.Debug("skipping welcome email, service disabled", "to", toEmail)
		return nil
	}

	subject := "Welcome!"
	textBody := fmt.Sprintf(`Hi %s,

Your account has been created. You can log in at %s/sessions.
`, toName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, textBody)
}

// sendEmail sends a plain text email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.log.Info("email sent", "to", toEmail, "subject", subject, "message_id", aws.ToString(result.MessageId))
	return nil
}
