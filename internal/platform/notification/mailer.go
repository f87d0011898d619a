package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"
)

const resetTpl = `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
    <h2>Réinitialisation de votre mot de passe</h2>
    <p>Bonjour {{.Prenom}},</p>
    <p>Une demande de réinitialisation de mot de passe a été effectuée pour votre compte Dewini.
       Si vous n'êtes pas à l'origine de cette demande, ignorez ce message.</p>
    <p><a href="{{.ResetURL}}" style="padding: 10px 15px; background-color: #007bff; color: white; text-decoration: none; border-radius: 5px;">Réinitialiser le mot de passe</a></p>
    <p>Ce lien expire dans 24 heures.</p>
    <p>L'équipe Dewini</p>
</body>
</html>
`

// Mailer sends transactional mail to users.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, prenom, resetURL string) error
}

// SMTPMailer delivers mail over SMTP.
type SMTPMailer struct {
	client *mail.Client
	from   string
	tpl    *template.Template
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	tpl, err := template.New("reset").Parse(resetTpl)
	if err != nil {
		return nil, fmt.Errorf("parse reset template: %w", err)
	}
	return &SMTPMailer{client: c, from: cfg.From, tpl: tpl}, nil
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, prenom, resetURL string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(email); err != nil {
		return err
	}
	msg.Subject("Réinitialisation de votre mot de passe Dewini")

	var body bytes.Buffer
	if err := m.tpl.Execute(&body, struct {
		Prenom   string
		ResetURL string
	}{Prenom: prenom, ResetURL: resetURL}); err != nil {
		return err
	}
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	log.Info().Str("email", email).Msg("password reset mail sent")
	return nil
}

// LogMailer logs the reset link instead of sending mail. Used in development
// when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, email, _, resetURL string) error {
	log.Info().Str("email", email).Str("reset_url", resetURL).
		Msg("smtp not configured, reset link logged")
	return nil
}
