// Package notify delivers best-effort email notifications. Failures are
// logged and never propagated to the caller.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers a single message
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPNotifier sends plain-text mail through an SMTP relay
type SMTPNotifier struct {
	client *mail.Client
	from   string
}

// NewSMTPNotifier creates a notifier for host:port. STARTTLS is used when the
// relay offers it. Auth is skipped when username is empty.
func NewSMTPNotifier(host string, port int, username, password, from string) (*SMTPNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(30 * time.Second),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &SMTPNotifier{client: client, from: from}, nil
}

// message builds the MIME message; headers are RFC 2047 encoded
func (n *SMTPNotifier) message(msg Message) (*mail.Msg, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("message has no recipient")
	}

	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", n.from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	m, err := n.message(msg)
	if err != nil {
		return err
	}
	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogNotifier writes messages to the log instead of sending them
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.Info("notification", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Dispatcher sends messages in the background. A nil Dispatcher drops
// everything, which keeps callers free of nil checks.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		logger:   logger,
		timeout:  30 * time.Second,
	}
}

// Dispatch sends msg on its own goroutine and logs a warning on failure
func (d *Dispatcher) Dispatch(msg Message) {
	if d == nil || d.notifier == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.Send(ctx, msg); err != nil {
			d.logger.Warn("notification failed", "to", msg.To, "subject", msg.Subject, "error", err)
		}
	}()
}

// Wait blocks until all in-flight messages are done
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
