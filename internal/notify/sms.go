package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPSMSSender posts messages to a JSON SMS gateway.
type HTTPSMSSender struct {
	client *resty.Client
	url    string
	sender string
}

type smsRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// NewHTTPSMSSender targets url, authenticating with apiKey as a bearer token.
func NewHTTPSMSSender(url, apiKey, sender string) *HTTPSMSSender {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Accept", "application/json")
	return &HTTPSMSSender{client: client, url: url, sender: sender}
}

func (s *HTTPSMSSender) SendSMS(ctx context.Context, to, text string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(smsRequest{To: to, From: s.sender, Message: text}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
