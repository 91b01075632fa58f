package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// SMTPSender delivers plain-text mail through an SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
	log  *logrus.Logger
}

func NewSMTPSender(host, port, username, password, from string, log *logrus.Logger) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{addr: net.JoinHostPort(host, port), auth: auth, from: from, log: log}
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body + "\n\nLending Team")
	if err := e.Send(s.addr, s.auth); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	s.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Debug("email sent")
	return nil
}

// LogSender stands in for SMTP in local setups.
type LogSender struct{ log *logrus.Logger }

func NewLogSender(log *logrus.Logger) *LogSender { return &LogSender{log: log} }

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info(body)
	return nil
}
