package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"

	"twolaunch/internal/models"
)

// Mailer delivers a plain text message. Delivery is attempted once.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// sesClient is the part of the SES API the email service calls
type sesClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client    sesClient
	fromEmail string
	fromName  string
	enabled   bool
	logger    zerolog.Logger
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service whose sends fail with ErrMailDisabled.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, logger zerolog.Logger) (*EmailService, error) {
	if fromEmail == "" {
		logger.Info().Msg("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, logger: logger}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("email service enabled")
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, logger), nil
}

func newEmailService(client sesClient, fromEmail, fromName string, logger zerolog.Logger) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		logger:    logger,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// Send delivers a plain text email. The call blocks until SES answers.
func (s *EmailService) Send(ctx context.Context, to, subject, body string) error {
	if !s.enabled {
		s.logger.Debug().Str("to", to).Str("subject", subject).Msg("skipping email send, service disabled")
		return ErrMailDisabled
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error().Err(err).Str("to", to).Msg("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("to", to).Str("message_id", aws.ToString(result.MessageId)).Msg("email sent")
	return nil
}

// SendPaymentReminder reminds an account holder that their plan is unpaid
func (s *EmailService) SendPaymentReminder(ctx context.Context, account *models.Account) error {
	subject, body := PaymentReminderEmail(account.FirstName, account.Plan)
	return s.Send(ctx, account.Email, subject, body)
}

// WelcomeEmail renders the message carrying a new account's credentials
func WelcomeEmail(firstName, companyName, adminURL, username, password string) (string, string) {
	subject := "Welcome to 2Launch 🎉"
	body := fmt.Sprintf(`Hi %s,

thank you for registering with 2Launch!
Your business "%s" is ready to grow 🚀

Admin dashboard access:
  URL: %s
  Username: %s
  Password: %s

We recommend changing your password right after your first login.

Best regards,
The 2Launch team
`, firstName, companyName, adminURL, username, password)

	return subject, body
}

// PaymentReminderEmail renders the unpaid plan reminder
func PaymentReminderEmail(firstName, plan string) (string, string) {
	subject := "Payment reminder"
	body := fmt.Sprintf(`Hello %s,

we would like to remind you that the payment for the %s plan has not been received yet.

Please complete it as soon as possible.
Thank you for using 2Launch!
`, firstName, plan)

	return subject, body
}
