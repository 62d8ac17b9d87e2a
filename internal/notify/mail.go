package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

// MailConfig describes the account reports are sent from.
type MailConfig struct {
	// Username and Password authenticate against the SMTP server.
	Username string
	Password string

	// Service names a well-known provider. It takes precedence over Server.
	Service string

	// Server is used when Service is empty.
	Server Server

	// Sender is the From address. It defaults to Username.
	Sender string

	// Receivers are the To addresses.
	Receivers []string
}

// SendFunc delivers a prepared message.
type SendFunc func(e *email.Email, server Server, auth smtp.Auth) error

// MailNotifier sends reports as plain text mail.
type MailNotifier struct {
	server    Server
	auth      smtp.Auth
	sender    string
	receivers []string
	send      SendFunc
	logger    *slog.Logger
}

// MailOption configures a MailNotifier.
type MailOption func(*MailNotifier)

// WithSendFunc replaces the SMTP delivery.
func WithSendFunc(fn SendFunc) MailOption {
	return func(n *MailNotifier) {
		n.send = fn
	}
}

// WithMailLogger sets the logger.
func WithMailLogger(logger *slog.Logger) MailOption {
	return func(n *MailNotifier) {
		n.logger = logger
	}
}

// NewMailNotifier resolves the SMTP server and builds a notifier.
func NewMailNotifier(cfg MailConfig, opts ...MailOption) (*MailNotifier, error) {
	server := cfg.Server
	if cfg.Service != "" {
		s, err := LookupService(cfg.Service)
		if err != nil {
			return nil, err
		}
		server = s
	}
	if server.Host == "" {
		return nil, ErrNoServer
	}
	if server.Port == 0 {
		server.Port = 465
		server.TLS = true
	}

	receivers := SplitAddresses(cfg.Receivers...)
	if len(receivers) == 0 {
		return nil, ErrNoRecipient
	}
	sender := cfg.Sender
	if sender == "" {
		sender = cfg.Username
	}

	n := &MailNotifier{
		server:    server,
		sender:    sender,
		receivers: receivers,
		send:      deliver,
		logger:    slog.Default(),
	}
	if cfg.Username != "" {
		n.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, server.Host)
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Server returns the resolved SMTP server.
func (n *MailNotifier) Server() Server {
	return n.server
}

// Send mails subject and body to every receiver.
func (n *MailNotifier) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = n.sender
	e.To = n.receivers
	e.Subject = subject
	e.Text = []byte(body)

	done := make(chan error, 1)
	go func() {
		done <- n.send(e, n.server, n.auth)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail via %s: %w", n.server.Addr(), err)
		}
		n.logger.Debug("mail sent", "server", n.server.Addr(), "receivers", len(n.receivers))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func deliver(e *email.Email, server Server, auth smtp.Auth) error {
	tlsConfig := &tls.Config{ServerName: server.Host, MinVersion: tls.VersionTLS12}
	switch {
	case server.TLS:
		return e.SendWithTLS(server.Addr(), auth, tlsConfig)
	case server.Port == 587:
		return e.SendWithStartTLS(server.Addr(), auth, tlsConfig)
	default:
		err := e.Send(server.Addr(), auth)
		if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
			return e.Send(server.Addr(), nil)
		}
		return err
	}
}

// SplitAddresses flattens comma separated address lists and drops blanks.
func SplitAddresses(lists ...string) []string {
	var out []string
	for _, list := range lists {
		for _, addr := range strings.Split(list, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				out = append(out, addr)
			}
		}
	}
	return out
}
