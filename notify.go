package main

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/store"
)

var errSMTPNotConfigured = errors.New("smtp credentials not configured")

// notifier tells the site owner about a new message.
type notifier interface {
	Notify(ctx context.Context, m store.Message) error
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// mailNotifier emails each message to the configured inbox.
type mailNotifier struct {
	cfg      SMTPConfig
	logger   *zap.Logger
	sendMail sendMailFunc
}

func newMailNotifier(cfg SMTPConfig, logger *zap.Logger) *mailNotifier {
	return &mailNotifier{cfg: cfg, logger: logger, sendMail: smtp.SendMail}
}

func (n *mailNotifier) Notify(_ context.Context, m store.Message) error {
	if !n.cfg.Configured() {
		return errSMTPNotConfigured
	}

	msg := composeMail(n.cfg.User, n.cfg.To, m)
	auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Pass, n.cfg.Host)
	if err := n.sendMail(n.cfg.Host+":"+n.cfg.Port, auth, n.cfg.User, []string{n.cfg.To}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	n.logger.Info("contact notification sent", zap.String("message_id", m.ID))
	return nil
}

// headerSafe strips line breaks so user input cannot add headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func composeMail(from, to string, m store.Message) []byte {
	subject := "Portfolio Contact: " + headerSafe(m.Name)
	if m.Subject != "" {
		subject += " - " + headerSafe(m.Subject)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", headerSafe(m.Email))
	b.WriteString("\r\n")
	b.WriteString("New contact form submission from your portfolio:\r\n\r\n")
	fmt.Fprintf(&b, "Name: %s\r\nEmail: %s\r\n", headerSafe(m.Name), m.Email)
	if m.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	}
	fmt.Fprintf(&b, "Message:\r\n%s\r\n\r\n---\r\nSent from your portfolio contact form (id %s)\r\n", m.Body, m.ID)
	return []byte(b.String())
}
