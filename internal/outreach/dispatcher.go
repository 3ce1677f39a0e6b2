// Package outreach delivers composed messages over the lead's channel.
package outreach

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/contact"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// Email is one outbound email.
type Email struct {
	To       string
	ToName   string
	Subject  string
	Plain    string
	HTML     string
	FromName string
}

// Mailer sends email. Implementations return *model.Error on failure.
type Mailer interface {
	SendEmail(ctx context.Context, msg Email) error
}

// SMSSender sends a text message to an E.164 number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Dispatcher routes a message to the mail or SMS collaborator. A nil
// collaborator marks its channel unavailable.
type Dispatcher struct {
	mailer     Mailer
	sms        SMSSender
	senderName string
	// reasons explain why a channel has no collaborator.
	reasons map[model.Channel]string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSenderName sets the display name on outgoing email.
func WithSenderName(name string) DispatcherOption {
	return func(d *Dispatcher) { d.senderName = name }
}

// WithUnavailableReason records why ch has no collaborator.
func WithUnavailableReason(ch model.Channel, reason string) DispatcherOption {
	return func(d *Dispatcher) { d.reasons[ch] = reason }
}

// NewDispatcher creates a dispatcher from the given collaborators.
func NewDispatcher(mailer Mailer, sms SMSSender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{mailer: mailer, sms: sms, reasons: map[model.Channel]string{}}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Available reports whether ch has a configured collaborator.
func (d *Dispatcher) Available(ch model.Channel) bool {
	switch ch {
	case model.ChannelEmail:
		return d.mailer != nil
	case model.ChannelSMS:
		return d.sms != nil
	}
	return false
}

// Send delivers msg to lead over ch. The outcome is always populated; the
// error is a *model.Error of kind KindChannelUnavailable when the channel
// cannot be used, or the collaborator's error when delivery failed.
func (d *Dispatcher) Send(ctx context.Context, ch model.Channel, lead model.LeadRecord, msg model.ChannelMessage) (model.OutreachOutcome, error) {
	out := model.OutreachOutcome{Channel: ch}

	var err error
	switch ch {
	case model.ChannelEmail:
		err = d.sendEmail(ctx, lead, msg)
	case model.ChannelSMS:
		err = d.sendSMS(ctx, lead, msg)
	default:
		err = model.NewError(model.KindChannelUnavailable, "outreach", "unknown channel "+string(ch))
	}

	if err != nil {
		out.Error = err.Error()
		zap.L().Warn("outreach: send failed",
			zap.String("channel", string(ch)),
			zap.String("business", lead.BusinessName),
			zap.String("kind", string(model.KindOf(err))),
			zap.Error(err),
		)
		return out, err
	}

	out.Sent = true
	zap.L().Info("outreach: sent",
		zap.String("channel", string(ch)),
		zap.String("business", lead.BusinessName),
	)
	return out, nil
}

func (d *Dispatcher) unavailable(ch model.Channel, fallback string) *model.Error {
	msg := fallback
	if r, ok := d.reasons[ch]; ok && r != "" {
		msg = r
	}
	return model.NewError(model.KindChannelUnavailable, "outreach: "+string(ch), msg)
}

func (d *Dispatcher) sendEmail(ctx context.Context, lead model.LeadRecord, msg model.ChannelMessage) error {
	if d.mailer == nil {
		return d.unavailable(model.ChannelEmail, "email backend not configured")
	}
	if !contact.IsUsableEmail(lead.TargetEmail) {
		return model.NewError(model.KindChannelUnavailable, "outreach: email", "lead has no usable email address")
	}
	return asUpstream("outreach: email", d.mailer.SendEmail(ctx, Email{
		To:       lead.TargetEmail,
		ToName:   lead.BusinessName,
		Subject:  msg.Subject,
		Plain:    msg.PlainBody,
		HTML:     msg.RichBody,
		FromName: d.senderName,
	}))
}

func (d *Dispatcher) sendSMS(ctx context.Context, lead model.LeadRecord, msg model.ChannelMessage) error {
	if d.sms == nil {
		return d.unavailable(model.ChannelSMS, "sms backend not configured")
	}
	if !contact.IsUsablePhone(lead.TargetPhone) {
		return model.NewError(model.KindChannelUnavailable, "outreach: sms", "lead has no usable phone number")
	}
	body := msg.ShortBody
	if body == "" {
		body = msg.PlainBody
	}
	return asUpstream("outreach: sms", d.sms.SendSMS(ctx, contact.NormalizePhone(lead.TargetPhone), body))
}

// asUpstream classifies unclassified collaborator errors as upstream failures.
func asUpstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *model.Error
	if errors.As(err, &me) {
		return err
	}
	return model.WrapError(model.KindUpstreamCall, op, "send failed", err)
}
