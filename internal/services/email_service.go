package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// AWSSESEmailService sends transactional email through AWS SES.
type AWSSESEmailService struct {
	sesClient           *ses.Client
	fromAddress         string
	fromName            string
	verificationURLBase string
	logger              *slog.Logger
}

func NewAWSSESEmailService(region, fromAddress, fromName, verificationURLBase string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:           ses.NewFromConfig(cfg),
		fromAddress:         fromAddress,
		fromName:            fromName,
		verificationURLBase: verificationURLBase,
		logger:              logger,
	}, nil
}

// SendVerificationEmail mails a single-use verification link to a new
// account. The plain token appears only in this email.
func (s *AWSSESEmailService) SendVerificationEmail(ctx context.Context, to, token string, expiresAt time.Time) error {
	verifyURL := fmt.Sprintf("%s?token=%s", s.verificationURLBase, token)
	hoursLeft := int(time.Until(expiresAt).Hours())

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
    <p>Confirm your email address to activate your %s account.</p>
    <p><a href="%s">Verify my email</a></p>
    <p>This link expires in %d hours. If you did not create this account, you can ignore this email.</p>
    <p>This is an automated message. Please do not reply to this email.</p>
</body>
</html>
`, s.fromName, verifyURL, hoursLeft)

	textBody := fmt.Sprintf(`Confirm your email address to activate your %s account.

%s

This link expires in %d hours. If you did not create this account, you can ignore this email.

This is an automated message. Please do not reply to this email.
`, s.fromName, verifyURL, hoursLeft)

	return s.send(ctx, to, "Verify your email address", htmlBody, textBody)
}

// SendWelcomeEmail greets a newly registered account.
func (s *AWSSESEmailService) SendWelcomeEmail(ctx context.Context, to, firstName string) error {
	greeting := "Hello"
	if firstName != "" {
		greeting = "Hello " + firstName
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Welcome to %s</h1>
        </div>
        <div class="content">
            <p>%s,</p>
            <p>Your account has been created. You can now pay rent, manage agreements, and track your payment history in one place.</p>
            <p>If you did not create this account, please contact our support team immediately.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, s.fromName, greeting)

	textBody := fmt.Sprintf(`Welcome to %s

%s,

Your account has been created. You can now pay rent, manage agreements, and track your payment history in one place.

If you did not create this account, please contact our support team immediately.

This is an automated message. Please do not reply to this email.
`, s.fromName, greeting)

	return s.send(ctx, to, fmt.Sprintf("Welcome to %s", s.fromName), htmlBody, textBody)
}

// SendPasswordChangedEmail notifies the account that its credential changed.
func (s *AWSSESEmailService) SendPasswordChangedEmail(ctx context.Context, to string) error {
	htmlBody := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
    <p>Your account password was just changed.</p>
    <p><strong>Didn't make this change?</strong> Contact our support team immediately and secure your email account.</p>
    <p>This is an automated message. Please do not reply to this email.</p>
</body>
</html>
`
	textBody := `Your account password was just changed.

Didn't make this change? Contact our support team immediately and secure your email account.

This is an automated message. Please do not reply to this email.
`

	return s.send(ctx, to, "Your password was changed", htmlBody, textBody)
}

// SendMFAEnabledEmail notifies the account that two-factor auth is now on.
func (s *AWSSESEmailService) SendMFAEnabledEmail(ctx context.Context, to string) error {
	htmlBody := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
    <p>Two-factor authentication was just enabled on your account. From now on, logging in requires a code from your authenticator app.</p>
    <p><strong>Didn't make this change?</strong> Contact our support team immediately.</p>
    <p>This is an automated message. Please do not reply to this email.</p>
</body>
</html>
`
	textBody := `Two-factor authentication was just enabled on your account. From now on, logging in requires a code from your authenticator app.

Didn't make this change? Contact our support team immediately.

This is an automated message. Please do not reply to this email.
`

	return s.send(ctx, to, "Two-factor authentication enabled", htmlBody, textBody)
}

func (s *AWSSESEmailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("subject", subject),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// LogEmailService stands in for SES in local development: it records what
// would have been sent instead of calling out.
type LogEmailService struct {
	logger *slog.Logger
}

func NewLogEmailService(logger *slog.Logger) *LogEmailService {
	return &LogEmailService{logger: logger}
}

func (s *LogEmailService) SendWelcomeEmail(_ context.Context, to, firstName string) error {
	s.logger.Info("email delivery disabled, skipping welcome email",
		slog.String("to", to), slog.String("first_name", firstName))
	return nil
}

func (s *LogEmailService) SendVerificationEmail(_ context.Context, to, _ string, _ time.Time) error {
	s.logger.Info("email delivery disabled, skipping verification email",
		slog.String("to", to))
	return nil
}

func (s *LogEmailService) SendPasswordChangedEmail(_ context.Context, to string) error {
	s.logger.Info("email delivery disabled, skipping password changed email",
		slog.String("to", to))
	return nil
}

func (s *LogEmailService) SendMFAEnabledEmail(_ context.Context, to string) error {
	s.logger.Info("email delivery disabled, skipping MFA enabled email",
		slog.String("to", to))
	return nil
}
