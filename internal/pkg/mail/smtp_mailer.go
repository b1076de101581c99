// Package mail sends the transactional emails that mirror high-value
// notifications (accepted offers, completed sales).
package mail

import (
	"fmt"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"

	"github.com/marketmate/marketmate/internal/pkg/env"
)

const defaultSender = "no-reply@marketmate.local"

// Send delivers one plain-text email over the SMTP relay named by the SMTP_*
// environment. Returns an error without retrying; callers decide whether a
// lost mail matters.
func Send(to, subject, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	if host == "" {
		return fmt.Errorf("mail: SMTP_HOST not configured")
	}
	addr := host + ":" + env.GetEnv("SMTP_PORT", "587")

	sender := env.GetEnv("SMTP_SENDER", defaultSender)

	var auth smtp.Auth
	if user := env.GetEnv("SMTP_USERNAME", ""); user != "" {
		auth = smtp.PlainAuth("", user, env.GetEnv("SMTP_PASSWORD", ""), host)
	}

	msg := []byte("From: " + sender + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
		body)

	if err := smtp.SendMail(addr, auth, sender, []string{to}, msg); err != nil {
		return fmt.Errorf("mail: send to %s via %s: %w", to, addr, err)
	}
	log.Debugf("[Mail] Sent %q to %s", subject, to)
	return nil
}
