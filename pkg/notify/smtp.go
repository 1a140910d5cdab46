package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"account-service/pkg/utils"
)

type SMTPSender struct {
	addr string
	host string
	auth smtp.Auth
	from string
	// send is smtp.SendMail, swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(config utils.EmailConfig) *SMTPSender {
	var auth smtp.Auth
	if config.User != "" {
		auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}

	return &SMTPSender{
		addr: net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		host: config.Host,
		auth: auth,
		from: config.From,
		send: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if strings.ContainsAny(msg.To, "\r\n") {
		return fmt.Errorf("invalid recipient address")
	}

	raw := buildMail(s.from, msg)

	done := make(chan error, 1)
	go func() {
		done <- s.send(s.addr, s.auth, s.from, []string{msg.To}, raw)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMail(from string, msg Message) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + msg.To + "\r\n")
	sb.WriteString("Subject: " + subject(msg.Purpose) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body(msg) + "\r\n")
	return []byte(sb.String())
}
