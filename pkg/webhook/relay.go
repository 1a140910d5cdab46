package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"account-service/pkg/utils"

	"go.uber.org/zap"
)

// Forwarder POSTs the exact received bytes to the upstream payment-event handler.
type Forwarder struct {
	url    string
	client *http.Client
}

func NewForwarder(url string, client *http.Client) *Forwarder {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Forwarder{url: url, client: client}
}

// UpstreamError reports a non-2xx answer from the upstream handler.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream webhook handler returned status %d", e.StatusCode)
}

func (f *Forwarder) Forward(ctx context.Context, payload []byte, contentType, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("forward webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{StatusCode: resp.StatusCode}
	}

	return nil
}

// Relay verifies an incoming event and hands it to the upstream handler.
// Either step is skipped when it is not configured.
type Relay struct {
	verifier  *Verifier
	forwarder *Forwarder
	log       *zap.Logger
}

func NewRelay(verifier *Verifier, forwarder *Forwarder, log *zap.Logger) *Relay {
	return &Relay{verifier: verifier, forwarder: forwarder, log: log.With(zap.String("component", "webhook"))}
}

// NewRelayFromConfig builds the verifier and forwarder from WEBHOOK_* settings.
func NewRelayFromConfig(config utils.WebhookConfig, log *zap.Logger) *Relay {
	var verifier *Verifier
	if config.Secret != "" {
		verifier = NewVerifier(config.Secret, config.Tolerance)
	} else {
		log.Warn("WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	var forwarder *Forwarder
	if config.ForwardURL != "" {
		forwarder = NewForwarder(config.ForwardURL, nil)
	}

	return NewRelay(verifier, forwarder, log)
}

func (r *Relay) Handle(ctx context.Context, payload []byte, contentType, signature string) error {
	if r.verifier != nil {
		if err := r.verifier.Verify(payload, signature); err != nil {
			return err
		}
	}

	if r.forwarder == nil {
		r.log.Info("Webhook accepted without upstream", zap.Int("bytes", len(payload)))
		return nil
	}

	return r.forwarder.Forward(ctx, payload, contentType, signature)
}

// IsSignatureError reports whether err came from signature verification.
func IsSignatureError(err error) bool {
	return errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrMalformedHeader) ||
		errors.Is(err, ErrBadSignature) ||
		errors.Is(err, ErrStaleTimestamp)
}
