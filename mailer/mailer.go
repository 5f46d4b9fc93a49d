package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"

	"b0ase/config"

	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	from   string
	dialer sender
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{from: from, dialer: d}
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.from, "B0ASE"))
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	return s.dialer.DialAndSend(m)
}

// Nop accepts and discards mail.
type Nop struct{}

func (Nop) Send(context.Context, Message) error { return nil }

func ClientInviteEmail(to, siteURL, code string) Message {
	link := fmt.Sprintf("%s/set-password?code=%s", siteURL, code)
	return Message{
		To:      to,
		Subject: "You're invited to B0ASE",
		HTML: fmt.Sprintf(`<p>Hi,</p><p>You have been invited to the B0ASE client area.</p>`+
			`<p><a href="%s">Set your password</a> to get started.</p>`, html.EscapeString(link)),
	}
}

func ApprovalEmail(to, name, siteURL string) Message {
	return Message{
		To:      to,
		Subject: "Your project request has been approved!",
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Congratulations! Your project request has been approved. `+
			`You can now access your client dashboard at <a href="%s">%s</a>.</p>`+
			`<p>We'll be in touch soon with next steps.</p><p>Best,<br>The B0ASE Team</p>`,
			html.EscapeString(name), html.EscapeString(siteURL), html.EscapeString(siteURL)),
	}
}

func ProjectInvitationEmail(to, projectName, inviter, siteURL string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s invited you to %s", inviter, projectName),
		HTML: fmt.Sprintf(`<p>%s invited you to join <b>%s</b>.</p>`+
			`<p>Review the invitation on your <a href="%s/profile">profile</a>.</p>`,
			html.EscapeString(inviter), html.EscapeString(projectName), html.EscapeString(siteURL)),
	}
}
