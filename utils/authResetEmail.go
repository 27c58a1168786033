package utils

import (
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Mailer delivers password reset codes.
type Mailer interface {
	SendResetCode(email, code string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, pass string) *SMTPMailer {
	return &SMTPMailer{dialer: gomail.NewDialer(host, port, user, pass), from: user}
}

func (m *SMTPMailer) SendResetCode(email, code string) error {
	return m.dialer.DialAndSend(resetCodeMessage(m.from, email, code))
}

func resetCodeMessage(from, to, code string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Password Reset Code")
	m.SetBody("text/plain", "Your password reset code is: "+code)
	m.AddAlternative("text/html", `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
	<h1>Password Reset Code</h1>
	<p>Your password reset code is:</p>
	<p><strong>`+code+`</strong></p>
	<p>If you did not request a password reset, please ignore this email.</p>
</body>
</html>`)
	return m
}

// LogMailer writes the code to the log instead of sending it. Used when no
// SMTP relay is configured.
type LogMailer struct{}

func (LogMailer) SendResetCode(email, code string) error {
	log.Debug().Str("email", email).Str("code", code).Msg("password reset code (mail disabled)")
	return nil
}
