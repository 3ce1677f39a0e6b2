package outreach

import (
	"context"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// FromConfig builds a Dispatcher from the configured mail and SMS backends.
// A backend with missing credentials leaves its channel unavailable rather
// than failing.
func FromConfig(ctx context.Context, cfg *config.Config) (*Dispatcher, error) {
	var opts []DispatcherOption
	opts = append(opts, WithSenderName(cfg.Sender.Name))

	mailer, reason, err := mailerFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if mailer == nil {
		opts = append(opts, WithUnavailableReason(model.ChannelEmail, reason))
		zap.L().Info("outreach: email channel disabled", zap.String("reason", reason))
	}

	sms, reason, err := smsFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sms == nil {
		opts = append(opts, WithUnavailableReason(model.ChannelSMS, reason))
		zap.L().Info("outreach: sms channel disabled", zap.String("reason", reason))
	}

	return NewDispatcher(mailer, sms, opts...), nil
}

func mailerFromConfig(ctx context.Context, cfg *config.Config) (Mailer, string, error) {
	if strings.TrimSpace(cfg.Sender.Email) == "" {
		return nil, "sender.email not set", nil
	}
	switch strings.ToLower(cfg.Outreach.MailBackend) {
	case "", "sendgrid":
		if cfg.SendGrid.Key == "" {
			return nil, "sendgrid.key not set", nil
		}
		return NewSendGridMailer(cfg.SendGrid.Key, cfg.Sender.Email, cfg.Sender.Name), "", nil
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SES.Region))
		if err != nil {
			return nil, "", eris.Wrap(err, "outreach: load aws config for ses")
		}
		return NewSESMailer(sesv2.NewFromConfig(awsCfg), cfg.Sender.Email, cfg.Sender.Name), "", nil
	case "none":
		return nil, "mail backend disabled", nil
	default:
		return nil, "", eris.Errorf("outreach: unknown mail backend %q", cfg.Outreach.MailBackend)
	}
}

func smsFromConfig(ctx context.Context, cfg *config.Config) (SMSSender, string, error) {
	switch strings.ToLower(cfg.Outreach.SMSBackend) {
	case "", "twilio":
		t := cfg.Twilio
		var missing []string
		if t.AccountSID == "" {
			missing = append(missing, "twilio.account_sid")
		}
		if t.AuthToken == "" {
			missing = append(missing, "twilio.auth_token")
		}
		if t.FromNumber == "" {
			missing = append(missing, "twilio.from_number")
		}
		if len(missing) > 0 {
			return nil, "sms backend not configured: missing " + strings.Join(missing, ", "), nil
		}
		return NewTwilioSender(t.AccountSID, t.AuthToken, t.FromNumber, t.BaseURL), "", nil
	case "sns":
		if cfg.SNS.Region == "" {
			return nil, "sms backend not configured: missing sns.region", nil
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SNS.Region))
		if err != nil {
			return nil, "", eris.Wrap(err, "outreach: load aws config for sns")
		}
		return NewSNSSender(sns.NewFromConfig(awsCfg), cfg.SNS.SenderID), "", nil
	case "none":
		return nil, "sms backend disabled", nil
	default:
		return nil, "", eris.Errorf("outreach: unknown sms backend %q", cfg.Outreach.SMSBackend)
	}
}
