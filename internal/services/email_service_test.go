package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"

	"serverless-api-starter/internal/apierr"
)

type fakeSES struct {
	sent    []*ses.SendEmailInput
	failErr error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.sent = append(f.sent, params)
	return &ses.SendEmailOutput{MessageId: aws.String("msg-0001")}, nil
}

func TestEmailService_SendWelcomeEmail(t *testing.T) {
	client := &fakeSES{}
	svc, err := NewEmailService(client, "noreply@example.com")
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}

	messageID, err := svc.SendWelcomeEmail(context.Background(), "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("SendWelcomeEmail() error = %v", err)
	}
	if messageID != "msg-0001" {
		t.Errorf("messageID = %s, want msg-0001", messageID)
	}

	if len(client.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(client.sent))
	}
	input := client.sent[0]
	if aws.ToString(input.Source) != "noreply@example.com" {
		t.Errorf("Source = %s", aws.ToString(input.Source))
	}
	if got := input.Destination.ToAddresses; len(got) != 1 || got[0] != "alice@example.com" {
		t.Errorf("ToAddresses = %v", got)
	}
	if html := aws.ToString(input.Message.Body.Html.Data); !strings.Contains(html, "Welcome, Alice!") {
		t.Errorf("HTML body missing greeting: %s", html)
	}
}

func TestEmailService_SendWelcomeEmailDefaultsName(t *testing.T) {
	client := &fakeSES{}
	svc, err := NewEmailService(client, "noreply@example.com")
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}

	if _, err := svc.SendWelcomeEmail(context.Background(), "bob@example.com", ""); err != nil {
		t.Fatalf("SendWelcomeEmail() error = %v", err)
	}
	html := aws.ToString(client.sent[0].Message.Body.Html.Data)
	if !strings.Contains(html, "Welcome, there!") {
		t.Errorf("HTML body = %s", html)
	}
}

func TestEmailService_InvalidRecipient(t *testing.T) {
	svc, err := NewEmailService(&fakeSES{}, "noreply@example.com")
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}

	_, err = svc.SendWelcomeEmail(context.Background(), "not-an-address", "X")
	apiErr := apierr.AsError(err)
	if apiErr == nil || apiErr.Type != apierr.TypeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestEmailService_ProviderFailureIsExternalService(t *testing.T) {
	client := &fakeSES{failErr: errors.New("throttled")}
	svc, err := NewEmailService(client, "noreply@example.com")
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}

	_, err = svc.SendWelcomeEmail(context.Background(), "alice@example.com", "Alice")
	apiErr := apierr.AsError(err)
	if apiErr == nil || apiErr.Type != apierr.TypeExternalService {
		t.Fatalf("expected external service error, got %v", err)
	}
	if strings.Contains(apiErr.Message, "throttled") {
		t.Errorf("client message leaks provider detail: %q", apiErr.Message)
	}
	if !strings.Contains(err.Error(), "throttled") {
		t.Errorf("wrapped chain lost the provider cause: %v", err)
	}
}

func TestNewEmailService_RequiresSender(t *testing.T) {
	if _, err := NewEmailService(&fakeSES{}, "  "); err == nil {
		t.Error("expected error for empty sender")
	}
}
