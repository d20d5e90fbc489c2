package services

import (
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"serverless-api-starter/internal/apierr"
)

// SESAPI is the subset of the SES client used by the email service.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

const welcomeEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Welcome</title>
</head>
<body>
    <h1>Welcome, {{.Name}}!</h1>
    <p>Your account has been created and is ready to use.</p>
    <p>If you did not sign up for this service, you can safely ignore this message.</p>
</body>
</html>
`

const welcomeEmailText = `Welcome, {{.Name}}!

Your account has been created and is ready to use.

If you did not sign up for this service, you can safely ignore this message.
`

// emailService implements the EmailService interface on top of SES.
type emailService struct {
	client SESAPI
	sender string
	html   *template.Template
	text   *template.Template
}

// NewEmailService creates a new email service instance
func NewEmailService(client SESAPI, sender string) (EmailService, error) {
	if client == nil {
		return nil, fmt.Errorf("SES client cannot be nil")
	}
	if strings.TrimSpace(sender) == "" {
		return nil, fmt.Errorf("sender address cannot be empty")
	}

	html, err := template.New("welcome_html").Parse(welcomeEmailTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse welcome HTML template: %w", err)
	}
	text, err := template.New("welcome_text").Parse(welcomeEmailText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse welcome text template: %w", err)
	}

	return &emailService{
		client: client,
		sender: sender,
		html:   html,
		text:   text,
	}, nil
}

// SendWelcomeEmail renders the welcome templates and sends them to the recipient
func (s *emailService) SendWelcomeEmail(ctx context.Context, recipient, name string) (string, error) {
	if err := s.ValidateEmailAddress(recipient); err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		name = "there"
	}

	data := map[string]string{"Name": name}

	var htmlBuf, textBuf strings.Builder
	if err := s.html.Execute(&htmlBuf, data); err != nil {
		return "", fmt.Errorf("failed to render welcome email: %w", err)
	}
	if err := s.text.Execute(&textBuf, data); err != nil {
		return "", fmt.Errorf("failed to render welcome email: %w", err)
	}

	return s.SendEmail(ctx, []string{recipient}, "Welcome!", htmlBuf.String(), textBuf.String())
}

// SendEmail sends an email through SES and returns the provider message ID
func (s *emailService) SendEmail(ctx context.Context, to []string, subject, htmlBody, textBody string) (string, error) {
	if len(to) == 0 {
		return "", fmt.Errorf("recipient list cannot be empty")
	}
	for _, addr := range to {
		if err := s.ValidateEmailAddress(addr); err != nil {
			return "", err
		}
	}

	body := &types.Body{}
	if htmlBody != "" {
		body.Html = &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")}
	}
	if textBody != "" {
		body.Text = &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")}
	}

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.sender),
		Destination: &types.Destination{ToAddresses: to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	})
	if err != nil {
		// Provider detail stays in the wrapped chain for logs only.
		return "", fmt.Errorf("send email: %w: %w",
			apierr.NewExternalService("Email delivery failed", nil), err)
	}

	return aws.ToString(out.MessageId), nil
}

// ValidateEmailAddress checks that an address parses per RFC 5322
func (s *emailService) ValidateEmailAddress(email string) error {
	if strings.TrimSpace(email) == "" {
		return apierr.NewValidation("Email address cannot be empty", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apierr.NewValidation(
			fmt.Sprintf("Invalid email address: %s", email),
			map[string]any{"email": email},
		)
	}
	return nil
}
