// Package notify delivers one-time codes to users over email and SMS.
package notify

import (
	"context"
	"fmt"
	"time"

	"account-service/pkg/utils"

	"go.uber.org/zap"
)

type Purpose string

const (
	PurposeActivation Purpose = "activation"
	PurposeRecovery   Purpose = "recovery"
)

// Message is one OTP delivery.
type Message struct {
	To        string
	Purpose   Purpose
	Code      string
	ExpiresAt time.Time
}

// Sender delivers a Message over a single channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier is what the auth flows depend on. Delivery is synchronous: an error means the code was not sent.
type Notifier interface {
	SendEmailOTP(ctx context.Context, msg Message) error
	SendSMSOTP(ctx context.Context, msg Message) error
}

type Dispatcher struct {
	email   Sender
	sms     Sender
	timeout time.Duration
	log     *zap.Logger
}

func NewDispatcher(email, sms Sender, timeout time.Duration, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		email:   email,
		sms:     sms,
		timeout: timeout,
		log:     log.With(zap.String("component", "notify")),
	}
}

// NewFromConfig picks SMTP and the HTTP SMS gateway when configured and falls back to logging.
func NewFromConfig(config *utils.Config, log *zap.Logger) *Dispatcher {
	reveal := config.App.Debug || config.App.ExposeOTP

	var email Sender = NewLogSender("email", reveal, log)
	if config.Email.Host != "" {
		email = NewSMTPSender(config.Email)
	}

	var sms Sender = NewLogSender("sms", reveal, log)
	if config.SMS.GatewayURL != "" {
		sms = NewGatewaySender(config.SMS, nil)
	}

	return NewDispatcher(email, sms, config.OTP.NotifyTimeout, log)
}

func (d *Dispatcher) SendEmailOTP(ctx context.Context, msg Message) error {
	return d.send(ctx, "email", d.email, msg)
}

func (d *Dispatcher) SendSMSOTP(ctx context.Context, msg Message) error {
	return d.send(ctx, "sms", d.sms, msg)
}

func (d *Dispatcher) send(ctx context.Context, channel string, sender Sender, msg Message) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := sender.Send(ctx, msg); err != nil {
		d.log.Error("Failed to deliver OTP",
			zap.Error(err),
			zap.String("channel", channel),
			zap.String("purpose", string(msg.Purpose)),
		)
		return fmt.Errorf("send %s otp via %s: %w", msg.Purpose, channel, err)
	}

	d.log.Info("OTP delivered",
		zap.String("channel", channel),
		zap.String("purpose", string(msg.Purpose)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func subject(p Purpose) string {
	if p == PurposeRecovery {
		return "Your password recovery code"
	}
	return "Verify your account"
}

func body(msg Message) string {
	return fmt.Sprintf("Your %s code is %s. It expires at %s.",
		msg.Purpose, msg.Code, msg.ExpiresAt.UTC().Format("15:04:05 MST"))
}
