package outreach

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, msg Email) error {
	return m.Called(ctx, msg).Error(0)
}

type mockSMS struct{ mock.Mock }

func (m *mockSMS) SendSMS(ctx context.Context, to, body string) error {
	return m.Called(ctx, to, body).Error(0)
}

func testMessage() model.ChannelMessage {
	return model.ChannelMessage{Subject: "subj", RichBody: "<p>rich</p>", PlainBody: "plain", ShortBody: "short"}
}

func TestSend_Email(t *testing.T) {
	mm := new(mockMailer)
	mm.On("SendEmail", mock.Anything, Email{
		To: "owner@acme.example", ToName: "Acme", Subject: "subj",
		Plain: "plain", HTML: "<p>rich</p>", FromName: "Sam",
	}).Return(nil).Once()

	d := NewDispatcher(mm, nil, WithSenderName("Sam"))
	out, err := d.Send(context.Background(), model.ChannelEmail,
		model.LeadRecord{BusinessName: "Acme", TargetEmail: "owner@acme.example"}, testMessage())

	require.NoError(t, err)
	assert.True(t, out.Sent)
	assert.Equal(t, model.ChannelEmail, out.Channel)
	assert.Empty(t, out.Error)
	mm.AssertExpectations(t)
}

func TestSend_SMSNormalizesRecipient(t *testing.T) {
	ms := new(mockSMS)
	ms.On("SendSMS", mock.Anything, "+15551234567", "short").Return(nil).Once()

	d := NewDispatcher(nil, ms)
	out, err := d.Send(context.Background(), model.ChannelSMS,
		model.LeadRecord{TargetPhone: "(555) 123 4567"}, testMessage())

	require.NoError(t, err)
	assert.True(t, out.Sent)
	ms.AssertExpectations(t)
}

func TestSend_ChannelUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		d       *Dispatcher
		ch      model.Channel
		lead    model.LeadRecord
		wantMsg string
	}{
		{
			name:    "sms_unconfigured",
			d:       NewDispatcher(new(mockMailer), nil),
			ch:      model.ChannelSMS,
			lead:    model.LeadRecord{TargetPhone: "555-123-4567"},
			wantMsg: "sms backend not configured",
		},
		{
			name:    "sms_unconfigured_with_reason",
			d:       NewDispatcher(nil, nil, WithUnavailableReason(model.ChannelSMS, "missing twilio.auth_token")),
			ch:      model.ChannelSMS,
			lead:    model.LeadRecord{TargetPhone: "555-123-4567"},
			wantMsg: "missing twilio.auth_token",
		},
		{
			name:    "email_unconfigured",
			d:       NewDispatcher(nil, new(mockSMS)),
			ch:      model.ChannelEmail,
			lead:    model.LeadRecord{TargetEmail: "a@b.com"},
			wantMsg: "email backend not configured",
		},
		{
			name:    "no_recipient_email",
			d:       NewDispatcher(new(mockMailer), nil),
			ch:      model.ChannelEmail,
			lead:    model.LeadRecord{TargetEmail: "N/A"},
			wantMsg: "no usable email",
		},
		{
			name:    "no_recipient_phone",
			d:       NewDispatcher(nil, new(mockSMS)),
			ch:      model.ChannelSMS,
			lead:    model.LeadRecord{TargetPhone: "unknown"},
			wantMsg: "no usable phone",
		},
		{
			name:    "unknown_channel",
			d:       NewDispatcher(new(mockMailer), new(mockSMS)),
			ch:      model.Channel("fax"),
			wantMsg: "unknown channel",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.d.Send(context.Background(), tt.ch, tt.lead, testMessage())
			require.Error(t, err)
			assert.Equal(t, model.KindChannelUnavailable, model.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.False(t, out.Sent)
			assert.Equal(t, err.Error(), out.Error)
		})
	}
}

func TestSend_CollaboratorFailureIsUpstream(t *testing.T) {
	mm := new(mockMailer)
	mm.On("SendEmail", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	out, err := NewDispatcher(mm, nil).Send(context.Background(), model.ChannelEmail,
		model.LeadRecord{TargetEmail: "a@b.com"}, testMessage())
	require.Error(t, err)
	assert.False(t, out.Sent)
	assert.Equal(t, model.KindUpstreamCall, model.KindOf(err))
}

func TestAvailable(t *testing.T) {
	d := NewDispatcher(new(mockMailer), nil)
	assert.True(t, d.Available(model.ChannelEmail))
	assert.False(t, d.Available(model.ChannelSMS))
}

func TestFromConfig_MissingCredentialsDisableChannels(t *testing.T) {
	cfg := &config.Config{}
	cfg.Outreach.MailBackend = "sendgrid"
	cfg.Outreach.SMSBackend = "twilio"
	cfg.Twilio.AccountSID = "AC123"

	d, err := FromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, d.Available(model.ChannelEmail))
	assert.False(t, d.Available(model.ChannelSMS))

	_, err = d.Send(context.Background(), model.ChannelSMS, model.LeadRecord{TargetPhone: "5551234567"}, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twilio.auth_token")
	assert.Contains(t, err.Error(), "twilio.from_number")
	assert.NotContains(t, err.Error(), "twilio.account_sid")
}

func TestFromConfig_Configured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sender.Email = "sam@example.com"
	cfg.SendGrid.Key = "SG.key"
	cfg.Twilio.AccountSID = "AC123"
	cfg.Twilio.AuthToken = "tok"
	cfg.Twilio.FromNumber = "+15550000000"

	d, err := FromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, d.Available(model.ChannelEmail))
	assert.True(t, d.Available(model.ChannelSMS))
}

func TestFromConfig_UnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Outreach.SMSBackend = "pigeon"
	_, err := FromConfig(context.Background(), cfg)
	assert.Error(t, err)
}
