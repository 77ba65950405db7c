package notification

import (
	"context"
	"fmt"
	"os"

	"github.com/resendlabs/resend-go"
)

// ResendEmailProvider sends transactional email through Resend.
type ResendEmailProvider struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

func NewResendEmailProvider() (*ResendEmailProvider, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	fromEmail := os.Getenv("EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@lexengage.com"
	}

	fromName := os.Getenv("EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "LexEngage"
	}

	return &ResendEmailProvider{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

func (p *ResendEmailProvider) SendEmail(ctx context.Context, to, subject, body string) error {
	request := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", p.fromName, p.fromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}

	_, err := p.client.Emails.Send(request)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}
