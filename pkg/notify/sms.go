package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"account-service/pkg/utils"
)

// GatewaySender posts SMS messages as JSON to an HTTP gateway.
type GatewaySender struct {
	url    string
	apiKey string
	from   string
	client *http.Client
}

func NewGatewaySender(config utils.SMSConfig, client *http.Client) *GatewaySender {
	if client == nil {
		client = http.DefaultClient
	}
	return &GatewaySender{
		url:    config.GatewayURL,
		apiKey: config.APIKey,
		from:   config.From,
		client: client,
	}
}

type smsPayload struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Text string `json:"text"`
}

func (s *GatewaySender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(smsPayload{From: s.from, To: msg.To, Text: body(msg)})
	if err != nil {
		return fmt.Errorf("encode sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}
