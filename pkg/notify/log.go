package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSender records OTPs in the log instead of delivering them. Used when a channel is not configured.
// The code itself is only written when reveal is set.
type LogSender struct {
	channel string
	reveal  bool
	log     *zap.Logger
}

func NewLogSender(channel string, reveal bool, log *zap.Logger) *LogSender {
	return &LogSender{channel: channel, reveal: reveal, log: log.With(zap.String("sender", channel))}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if !s.reveal {
		s.log.Warn("OTP delivery skipped, channel not configured",
			zap.String("to", msg.To),
			zap.String("purpose", string(msg.Purpose)),
		)
		return nil
	}

	s.log.Info("OTP generated (delivery not configured)",
		zap.String("to", msg.To),
		zap.String("purpose", string(msg.Purpose)),
		zap.String("otp_code", msg.Code),
		zap.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}
