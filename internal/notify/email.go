package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/jamesprial/pi-monitor/internal/config"
	monerrors "github.com/jamesprial/pi-monitor/internal/errors"
)

const defaultDialTimeout = 30 * time.Second

// DialFunc opens the connection to the SMTP server.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Compile-time interface check.
var _ Notifier = (*EmailNotifier)(nil)

// EmailNotifier sends alert letters over SMTP.
type EmailNotifier struct {
	cfg      config.EmailConfig
	dial     DialFunc
	hostInfo HostInfoFunc
	tls      *tls.Config
	logger   zerolog.Logger
}

// EmailOption customises an EmailNotifier.
type EmailOption func(*EmailNotifier)

// WithDialer replaces the network dialer.
func WithDialer(d DialFunc) EmailOption {
	return func(n *EmailNotifier) { n.dial = d }
}

// WithHostInfo replaces the source of the host footer. nil drops the footer.
func WithHostInfo(f HostInfoFunc) EmailOption {
	return func(n *EmailNotifier) { n.hostInfo = f }
}

// WithTLSConfig sets the TLS configuration used for STARTTLS.
func WithTLSConfig(c *tls.Config) EmailOption {
	return func(n *EmailNotifier) { n.tls = c }
}

// WithLogger sets the logger used for delivery events.
func WithLogger(l zerolog.Logger) EmailOption {
	return func(n *EmailNotifier) { n.logger = l }
}

// NewEmailNotifier returns a notifier for cfg.
func NewEmailNotifier(cfg config.EmailConfig, opts ...EmailOption) *EmailNotifier {
	dialer := &net.Dialer{Timeout: defaultDialTimeout}
	n := &EmailNotifier{
		cfg:      cfg,
		dial:     dialer.DialContext,
		hostInfo: host.InfoWithContext,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.tls == nil {
		n.tls = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}
	return n
}

// Notify sends msg to every configured receiver in a single letter. An empty
// message or an empty receiver list sends nothing. Delivery failures are
// returned as *errors.NotificationError and are not retried.
func (n *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.Empty() {
		return nil
	}
	if len(n.cfg.Receivers) == 0 {
		n.logger.Warn().Int("lines", len(msg.Lines)).Msg("No email receivers configured, alert not sent")
		return nil
	}
	if msg.Subject == "" {
		msg.Subject = n.cfg.Subject
	}

	letter := n.letter(ctx, msg)
	if err := n.send(ctx, letter); err != nil {
		return &monerrors.NotificationError{Transport: "smtp", Addr: n.cfg.Addr(), Err: err}
	}

	n.logger.Info().
		Str("subject", msg.Subject).
		Strs("receivers", n.cfg.Receivers).
		Int("lines", len(msg.Lines)).
		Msg("Alert email sent")
	return nil
}

// letter builds the full message: headers, a blank line, then the HTML body.
func (n *EmailNotifier) letter(ctx context.Context, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.cfg.Receivers, ", "))
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.Sender)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html\r\n")
	fmt.Fprintf(&b, "Subject: %s\r\n\r\n", sanitizeHeader(msg.Subject))
	b.WriteString(msg.HTML(HostFooter(ctx, n.hostInfo)))
	return []byte(b.String())
}

func (n *EmailNotifier) send(ctx context.Context, letter []byte) error {
	conn, err := n.dial(ctx, "tcp", n.cfg.Addr())
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("greeting: %w", err)
	}
	defer c.Close()

	if n.cfg.StartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("server does not offer STARTTLS")
		}
		if err := c.StartTLS(n.tls); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if n.cfg.Username != "" {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(n.cfg.Sender); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range n.cfg.Receivers {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(letter); err != nil {
		_ = w.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}
	return c.Quit()
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
