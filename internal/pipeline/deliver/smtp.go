package deliver

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"time"

	"pdf-relay/internal/common/config"
	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/models"
)

// SMTPTransport delivers via a plain or STARTTLS SMTP session using the
// service mailbox credentials.
type SMTPTransport struct {
	cfg    config.MailConfig
	logger logger.Logger
	now    func() time.Time

	// sendMail is swappable in tests; defaults to smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPTransport(cfg config.MailConfig, log logger.Logger) *SMTPTransport {
	return &SMTPTransport{
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
		sendMail: smtp.SendMail,
	}
}

func (t *SMTPTransport) Name() string { return "SMTP" }

func (t *SMTPTransport) Send(ctx context.Context, msg *models.OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	if !validAddress(msg.FromAddress) {
		return fmt.Errorf("invalid 'from' email address: %s", msg.FromAddress)
	}
	if !validAddress(msg.To) {
		return fmt.Errorf("invalid 'to' email address: %s", msg.To)
	}

	payload, err := buildMIME(msg, t.now())
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", t.cfg.SMTP.Host, t.cfg.SMTP.Port)

	var auth smtp.Auth
	if t.cfg.Username != "" && t.cfg.Password != "" {
		auth = smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.SMTP.Host)
	}

	if t.cfg.SMTP.UseTLS {
		err = t.sendWithTLS(addr, auth, msg.FromAddress, []string{msg.To}, payload)
	} else {
		err = t.sendMail(addr, auth, msg.FromAddress, []string{msg.To}, payload)
	}
	if err != nil {
		return err
	}

	t.logger.Info("email sent", map[string]interface{}{
		"to":          msg.To,
		"subject":     msg.Subject,
		"attachments": len(msg.Attachments),
		"provider":    t.Name(),
	})
	return nil
}

func (t *SMTPTransport) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, payload []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName:         t.cfg.SMTP.Host,
		InsecureSkipVerify: false,
	}

	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(payload); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
