package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/talentbase/talentbase-auth/pkg/logger"
)

// EmailNotifier delivers one-time codes over email. Delivery is an external
// concern; implementations may fail transiently and the engine surfaces that
// to the caller without corrupting the pending challenge.
type EmailNotifier interface {
	SendMFACode(ctx context.Context, email, code string) error
}

// SMSNotifier delivers one-time codes over SMS
type SMSNotifier interface {
	SendMFACode(ctx context.Context, phoneNumber, code string) error
}

// SESEmailNotifier sends one-time codes using AWS SES
type SESEmailNotifier struct {
	sesClient   *ses.Client
	fromAddress string
	productName string
	logger      *slog.Logger
}

// NewSESEmailNotifier creates an AWS SES backed email notifier
func NewSESEmailNotifier(region, fromAddress, productName string, logger *slog.Logger) (*SESEmailNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESEmailNotifier{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		productName: productName,
		logger:      logger,
	}, nil
}

// SendMFACode emails a one-time verification code
func (n *SESEmailNotifier) SendMFACode(ctx context.Context, email, code string) error {
	subject := fmt.Sprintf("%s verification code", n.productName)
	body := fmt.Sprintf(
		"Your %s verification code is: %s\n\nThis code expires in 5 minutes. If you did not request it, you can ignore this email.",
		n.productName, code,
	)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	}

	if _, err := n.sesClient.SendEmail(ctx, input); err != nil {
		n.logger.Error("failed to send MFA code email",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("MFA code email sent",
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// LogSMSNotifier is a stand-in SMS notifier that only logs. The SMS gateway
// integration lives outside this service; deployments plug in their own
// SMSNotifier.
type LogSMSNotifier struct {
	logger *slog.Logger
}

// NewLogSMSNotifier creates the logging SMS notifier
func NewLogSMSNotifier(logger *slog.Logger) *LogSMSNotifier {
	return &LogSMSNotifier{logger: logger}
}

// SendMFACode logs instead of delivering. Never fails.
func (n *LogSMSNotifier) SendMFACode(ctx context.Context, phoneNumber, code string) error {
	n.logger.Info("MFA code SMS dispatch requested",
		slog.String("phone", pkglogger.SanitizedPhone(phoneNumber)))
	return nil
}
