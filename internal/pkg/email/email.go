package email

import (
	"fmt"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/nexoraai/nexora_server/config"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	cfg  *config.EmailConfig
	send sendFunc
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg, send: smtp.SendMail}
}

// Enabled reports whether SMTP is configured; callers skip mail otherwise.
func (s *Service) Enabled() bool {
	return s != nil && s.cfg != nil && s.cfg.SMTPHost != "" && s.cfg.From != ""
}

// SendWelcome greets a new account and states the trial length.
func (s *Service) SendWelcome(to, name string, trialDays int) error {
	if name == "" {
		name = to
	}
	subject := "Bem-vindo à Nexora"
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #7c3aed;">Olá, %s!</h2>
        <p>Sua conta Nexora foi criada e o seu teste gratuito de %d dias já começou.</p>
        <p>Cadastre sua marca, escreva um briefing e receba legenda e imagem prontas para publicar.</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">Mensagem automática, não responda.</p>
    </div>
</body>
</html>
`, name, trialDays)

	return s.sendHTML(to, subject, body)
}

// SendReceipt confirms a paid plan activation.
func (s *Service) SendReceipt(to, planTitle string, amount float64, currency string, endsAt time.Time) error {
	subject := "Pagamento confirmado - " + planTitle
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #7c3aed;">Pagamento aprovado</h2>
        <p>Recebemos %s %.2f referente ao plano <strong>%s</strong>.</p>
        <p>Seu acesso Pro vale até <strong>%s</strong>.</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">Mensagem automática, não responda.</p>
    </div>
</body>
</html>
`, currency, amount, planTitle, endsAt.Format("02/01/2006"))

	return s.sendHTML(to, subject, body)
}

func (s *Service) sendHTML(to, subject, body string) error {
	headers := map[string]string{
		"From":         s.cfg.From,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msg strings.Builder
	for _, k := range keys {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, headers[k]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return s.send(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
