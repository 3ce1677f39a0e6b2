package outreach

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SNSAPI is the slice of the SNS client used by SNSSender.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender sends transactional SMS through Amazon SNS.
type SNSSender struct {
	api      SNSAPI
	senderID string
}

// NewSNSSender creates a sender. senderID is optional.
func NewSNSSender(api SNSAPI, senderID string) *SNSSender {
	return &SNSSender{api: api, senderID: senderID}
}

// SendSMS implements SMSSender.
func (s *SNSSender) SendSMS(ctx context.Context, to, body string) error {
	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType: aws.String("String"), StringValue: aws.String(s.senderID),
		}
	}

	_, err := s.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return model.WrapError(model.KindUpstreamCall, "outreach: sns", "publish failed", err)
	}
	return nil
}
