package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"padelmanager/internal/models"
)

type fakeSender struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSender) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestEmailServiceDisabled(t *testing.T) {
	svc, err := NewEmailService("eu-west-1", "", "", "", false)
	if err != nil {
		t.Fatalf("NewEmailService() error: %v", err)
	}
	if svc.IsEnabled() {
		t.Fatal("IsEnabled() = true without a sender address")
	}
	if err := svc.NotifyLowCredit(context.Background(), models.Student{ID: 1, Email: "anna@example.com"}); err != nil {
		t.Errorf("NotifyLowCredit() on disabled service = %v, want nil", err)
	}
}

func TestNotifyLowCredit(t *testing.T) {
	tests := []struct {
		name        string
		remaining   int
		wantSubject string
	}{
		{"none left", 0, "no prepaid lessons left"},
		{"one left", 1, "1 prepaid lesson left"},
		{"few left", 2, "2 prepaid lessons left"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			svc := newEmailService(sender, "club@example.com", "Padel Club", "http://localhost:8080", false)

			student := models.Student{ID: 7, FirstName: "Anna", Email: "anna@example.com", LessonsRemaining: tt.remaining}
			if err := svc.NotifyLowCredit(context.Background(), student); err != nil {
				t.Fatalf("NotifyLowCredit() error: %v", err)
			}
			if len(sender.inputs) != 1 {
				t.Fatalf("sent %d emails, want 1", len(sender.inputs))
			}
			in := sender.inputs[0]
			if got := aws.ToString(in.FromEmailAddress); got != "Padel Club <club@example.com>" {
				t.Errorf("From = %q", got)
			}
			if got := in.Destination.ToAddresses; len(got) != 1 || got[0] != "anna@example.com" {
				t.Errorf("To = %v", got)
			}
			subject := aws.ToString(in.Content.Simple.Subject.Data)
			if !strings.Contains(subject, tt.wantSubject) {
				t.Errorf("Subject = %q, want it to contain %q", subject, tt.wantSubject)
			}
			if html := aws.ToString(in.Content.Simple.Body.Html.Data); !strings.Contains(html, "Hi Anna") {
				t.Errorf("HTML body does not greet the student")
			}
		})
	}
}

func TestNotifyLowCreditSendFailure(t *testing.T) {
	sendErr := errors.New("throttled")
	svc := newEmailService(&fakeSender{err: sendErr}, "club@example.com", "", "", false)

	err := svc.NotifyLowCredit(context.Background(), models.Student{ID: 1, FirstName: "Anna", Email: "anna@example.com"})
	if !errors.Is(err, sendErr) {
		t.Errorf("NotifyLowCredit() error = %v, want wrapped send error", err)
	}
}
