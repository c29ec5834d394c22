package services

import (
	"context"
	"fmt"
	"log/slog"

	pkglogger "agora/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Dispatcher delivers verification and password-reset notifications. Failures
// propagate to the caller; the caller decides whether to surface or swallow
// them.
type Dispatcher interface {
	SendVerification(ctx context.Context, to, token, username string) error
	SendPasswordReset(ctx context.Context, to, token, username string) error
}

// SESDispatcher sends emails using AWS SES
type SESDispatcher struct {
	sesClient   *ses.Client
	fromAddress string
	frontendURL string
	logger      *slog.Logger
}

// NewSESDispatcher creates a new AWS SES email dispatcher
func NewSESDispatcher(region, fromAddress, frontendURL string, logger *slog.Logger) (*SESDispatcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESDispatcher{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		frontendURL: frontendURL,
		logger:      logger,
	}, nil
}

// SendVerification sends an email-verification link bound to the given token
func (d *SESDispatcher) SendVerification(ctx context.Context, to, token, username string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", d.frontendURL, token)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Verify your email address</h1>
        <p>Hi %s,</p>
        <p>Thanks for joining. To finish setting up your account, verify your email address:</p>
        <p><a href="%s" style="display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Verify Email Address</a></p>
        <p>Or copy and paste this link in your browser:<br><code>%s</code></p>
        <p>This link will expire in 24 hours.</p>
        <p>If you didn't create this account, you can ignore this email.</p>
    </div>
</body>
</html>
`, username, link, link)

	textBody := fmt.Sprintf(`Hi %s,

Thanks for joining. To finish setting up your account, verify your email address:

%s

This link will expire in 24 hours.

If you didn't create this account, you can ignore this email.
`, username, link)

	return d.send(ctx, to, "Verify your email address", htmlBody, textBody)
}

// SendPasswordReset sends a password-reset link bound to the given token
func (d *SESDispatcher) SendPasswordReset(ctx context.Context, to, token, username string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", d.frontendURL, token)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Reset your password</h1>
        <p>Hi %s,</p>
        <p>We received a request to reset your password. Click the link below to choose a new one:</p>
        <p><a href="%s" style="display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Reset Password</a></p>
        <p>Or copy and paste this link in your browser:<br><code>%s</code></p>
        <p>This link will expire in 1 hour.</p>
        <p>If you didn't request a password reset, you can ignore this email. Your password will not change.</p>
    </div>
</body>
</html>
`, username, link, link)

	textBody := fmt.Sprintf(`Hi %s,

We received a request to reset your password. Open the link below to choose a new one:

%s

This link will expire in 1 hour.

If you didn't request a password reset, you can ignore this email. Your password will not change.
`, username, link)

	return d.send(ctx, to, "Reset your password", htmlBody, textBody)
}

func (d *SESDispatcher) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(d.fromAddress),
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

	result, err := d.sesClient.SendEmail(ctx, input)
	if err != nil {
		d.logger.Error("failed to send email via SES",
			slog.String("email", pkglogger.SanitizedEmail(to)),
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	d.logger.Info("email sent",
		slog.String("email", pkglogger.SanitizedEmail(to)),
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}
