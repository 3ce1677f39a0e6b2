package outreach

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SendGridAPI is the slice of the SendGrid client used by SendGridMailer.
type SendGridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends email through SendGrid's v3 mail API.
type SendGridMailer struct {
	api       SendGridAPI
	fromEmail string
	fromName  string
}

// NewSendGridMailer creates a mailer for apiKey.
func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return NewSendGridMailerWithAPI(sendgrid.NewSendClient(apiKey), fromEmail, fromName)
}

// NewSendGridMailerWithAPI creates a mailer over an existing client.
func NewSendGridMailerWithAPI(api SendGridAPI, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{api: api, fromEmail: fromEmail, fromName: fromName}
}

// SendEmail implements Mailer.
func (m *SendGridMailer) SendEmail(ctx context.Context, msg Email) error {
	const op = "outreach: sendgrid"

	fromName := m.fromName
	if msg.FromName != "" {
		fromName = msg.FromName
	}
	html := msg.HTML
	if html == "" {
		html = msg.Plain
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(fromName, m.fromEmail),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Plain,
		html,
	)

	resp, err := m.api.SendWithContext(ctx, message)
	if err != nil {
		return model.WrapError(model.KindUpstreamCall, op, "send failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.NewError(model.KindUpstreamCall, op, "send rejected").
			WithStatus(resp.StatusCode).WithDetail(resp.Body)
	}
	return nil
}

// SESAPI is the slice of the SES v2 client used by SESMailer.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends email through Amazon SES.
type SESMailer struct {
	api       SESAPI
	fromEmail string
	fromName  string
}

// NewSESMailer creates a mailer over an SES client.
func NewSESMailer(api SESAPI, fromEmail, fromName string) *SESMailer {
	return &SESMailer{api: api, fromEmail: fromEmail, fromName: fromName}
}

// SendEmail implements Mailer.
func (m *SESMailer) SendEmail(ctx context.Context, msg Email) error {
	fromName := m.fromName
	if msg.FromName != "" {
		fromName = msg.FromName
	}
	from := m.fromEmail
	if strings.TrimSpace(fromName) != "" {
		from = fmt.Sprintf("%s <%s>", fromName, m.fromEmail)
	}

	body := &sestypes.Body{
		Text: &sestypes.Content{Data: aws.String(msg.Plain), Charset: aws.String("UTF-8")},
	}
	if msg.HTML != "" {
		body.Html = &sestypes.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}

	_, err := m.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &sestypes.Destination{ToAddresses: []string{msg.To}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	})
	if err != nil {
		return model.WrapError(model.KindUpstreamCall, "outreach: ses", "send failed", err)
	}
	return nil
}
