package outreach

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender posts messages to Twilio's Messages resource with basic auth.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	http       *http.Client
}

// NewTwilioSender creates a sender. An empty baseURL uses Twilio's API host.
func NewTwilioSender(accountSID, authToken, from, baseURL string) *TwilioSender {
	if baseURL == "" {
		baseURL = defaultTwilioBaseURL
	}
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

// SendSMS implements SMSSender.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	const op = "outreach: twilio"

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return model.WrapError(model.KindUpstreamCall, op, "create request", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return model.WrapError(model.KindUpstreamCall, op, "send failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.NewError(model.KindUpstreamCall, op, "send rejected").
			WithStatus(resp.StatusCode).WithDetail(formatTwilioError(respBody))
	}
	return nil
}

type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// formatTwilioError prefers Twilio's structured error message over the raw body.
func formatTwilioError(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("code %d: %s", parsed.Code, parsed.Message)
		}
		return parsed.Message
	}
	return trimmed
}
