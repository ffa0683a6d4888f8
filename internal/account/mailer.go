package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resendlabs/resend-go"
)

// Mailer delivers password reset links
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// ResendMailer sends mail through the Resend API
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	if from == "" {
		from = "Cruciflix <noreply@cruciflix.app>"
	}
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) SendPasswordReset(_ context.Context, to, link string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: "Redefinição de senha - Cruciflix",
		Html: fmt.Sprintf(`<p>Recebemos um pedido para redefinir sua senha.</p>
<p><a href="%s">Clique aqui para escolher uma nova senha</a>. O link expira em uma hora.</p>
<p>Se você não fez este pedido, ignore este e-mail.</p>`, link),
	}
	if _, err := m.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send reset email via Resend: %w", err)
	}
	return nil
}

// LogMailer writes reset links to the log instead of sending them
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.logger.Info("password reset requested", "email", to, "link", link)
	return nil
}
