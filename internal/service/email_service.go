package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"padelmanager/internal/models"
)

// EmailSender delivers one message. *sesv2.Client satisfies it.
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends low credit reminders to students via Amazon SES
type EmailService struct {
	client     EmailSender
	fromEmail  string
	fromName   string
	appName    string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that logs and skips every send.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From: %s <%s>", fromName, fromEmail)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug), nil
}

func newEmailService(client EmailSender, fromEmail, fromName, appBaseURL string, debug bool) *EmailService {
	appName := fromName
	if appName == "" {
		appName = "PadelManager"
	}
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appName:    appName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

var lowCreditHTML = template.Must(template.New("low_credit").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2e7d32; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Lesson credits running low</h1>
		</div>
		<div class="content">
			<p>Hi {{.FirstName}},</p>
			{{if eq .Remaining 0}}<p>You have used all your prepaid padel lessons.</p>
			{{else if eq .Remaining 1}}<p>You have <strong>1</strong> prepaid padel lesson left.</p>
			{{else}}<p>You have <strong>{{.Remaining}}</strong> prepaid padel lessons left.</p>{{end}}
			<p>Get in touch with your instructor to top up your lesson credits.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from {{.AppName}}. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`))

type lowCreditData struct {
	FirstName string
	Remaining int
	AppName   string
}

// NotifyLowCredit emails a student whose balance ran low
func (s *EmailService) NotifyLowCredit(ctx context.Context, student models.Student) error {
	if !s.enabled {
		if s.debug {
			log.Printf("[DEBUG] Skipping low credit email (service disabled): student %d", student.ID)
		}
		return nil
	}
	if student.Email == "" {
		return nil
	}

	data := lowCreditData{
		FirstName: student.FirstName,
		Remaining: student.LessonsRemaining,
		AppName:   s.appName,
	}
	var html bytes.Buffer
	if err := lowCreditHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render low credit email: %w", err)
	}

	subject := fmt.Sprintf("%s: %s", s.appName, remainingText(student.LessonsRemaining))
	text := fmt.Sprintf(`Hi %s,

%s.

Get in touch with your instructor to top up your lesson credits.

---
This is an automated email from %s. Please do not reply.
`, student.FirstName, remainingText(student.LessonsRemaining), s.appName)

	return s.sendEmail(ctx, student.Email, subject, html.String(), text)
}

func remainingText(n int) string {
	switch n {
	case 0:
		return "no prepaid lessons left"
	case 1:
		return "1 prepaid lesson left"
	default:
		return fmt.Sprintf("%d prepaid lessons left", n)
	}
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] Sending email: from=%s, to=%s, subject=%s", fromAddress, toEmail, subject)
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
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
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

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}
	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
