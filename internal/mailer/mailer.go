package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>Your repair shop account is ready.</p>
<p>Share your referral code <strong>{{.Code}}</strong> with friends when they sign up.</p>`))

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	From   string
	Dialer Dialer
}

func New(host string, port int, user, password, from string) *Mailer {
	return &Mailer{
		From:   from,
		Dialer: gomail.NewDialer(host, port, user, password),
	}
}

func (m *Mailer) SendWelcome(ctx context.Context, to, name, referralCode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, struct{ Name, Code string }{name, referralCode}); err != nil {
		return fmt.Errorf("render welcome mail: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Welcome to the repair shop")
	msg.SetBody("text/html", body.String())

	if err := m.Dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send welcome mail to %s: %w", to, err)
	}
	return nil
}

// Nop is used when SMTP is not configured.
type Nop struct{}

func (Nop) SendWelcome(context.Context, string, string, string) error { return nil }
