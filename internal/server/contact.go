package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nikhilchitrapu/portfolio/internal/config"
	"github.com/nikhilchitrapu/portfolio/internal/content"
	"github.com/pkg/errors"
)

// ContactMessage is a submitted contact form.
type ContactMessage struct {
	Name    string
	Email   string
	Message string
}

// Mailer delivers contact form messages.
type Mailer interface {
	Send(ctx context.Context, msg ContactMessage) error
}

// DefaultSMTPTimeout bounds a whole SMTP exchange, dial included.
const DefaultSMTPTimeout = 10 * time.Second

// SMTPMailer sends contact messages through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	Host    string
	Port    string
	User    string
	Pass    string
	To      string
	Timeout time.Duration
}

// NewSMTPMailer returns nil when no SMTP credentials are configured.
func NewSMTPMailer(cfg config.Config) *SMTPMailer {
	if !cfg.ContactEnabled() {
		return nil
	}
	return &SMTPMailer{
		Host:    cfg.SMTP.Host,
		Port:    cfg.SMTP.Port,
		User:    cfg.SMTP.User,
		Pass:    cfg.SMTP.Pass,
		To:      cfg.ContactRecipient(),
		Timeout: DefaultSMTPTimeout,
	}
}

// Send composes and sends msg. The exchange is abandoned when ctx is done
// or Timeout passes, so a stalled relay cannot hold the request.
func (m *SMTPMailer) Send(ctx context.Context, msg ContactMessage) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultSMTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(m.Host, m.Port)
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to dial %s", addr)
	}
	deadline, _ := ctx.Deadline()
	if err = conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return errors.Wrap(err, "failed to set SMTP deadline")
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "failed to start SMTP session")
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(&tls.Config{ServerName: m.Host}); err != nil {
			return errors.Wrap(err, "failed to start TLS")
		}
	}
	if m.User != "" {
		if ok, _ := client.Extension("AUTH"); !ok {
			return errors.New("SMTP server does not support AUTH")
		}
		if err = client.Auth(smtp.PlainAuth("", m.User, m.Pass, m.Host)); err != nil {
			return errors.Wrap(err, "SMTP authentication failed")
		}
	}

	if err = client.Mail(m.User); err != nil {
		return errors.Wrap(err, "SMTP MAIL FROM rejected")
	}
	if err = client.Rcpt(m.To); err != nil {
		return errors.Wrap(err, "SMTP RCPT TO rejected")
	}
	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "SMTP DATA rejected")
	}
	if _, err = w.Write(m.compose(msg)); err != nil {
		return errors.Wrap(err, "failed to write contact email")
	}
	if err = w.Close(); err != nil {
		return errors.Wrap(err, "failed to send contact email")
	}
	return client.Quit()
}

func (m *SMTPMailer) compose(msg ContactMessage) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", msg.Name)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, msg.Message)

	return []byte("To: " + m.To + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + m.User + "\r\n" +
		"Reply-To: " + msg.Email + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

// validate rejects empty fields and header injection through name or email.
func (msg ContactMessage) validate() error {
	if strings.TrimSpace(msg.Name) == "" || strings.TrimSpace(msg.Message) == "" {
		return errors.New("name and message are required")
	}
	if strings.ContainsAny(msg.Name+msg.Email, "\r\n") {
		return errors.New("invalid characters in name or email")
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return errors.Wrap(err, "invalid email address")
	}
	return nil
}

// handleContact answers with a fragment; errors use 200 too so htmx swaps them in.
func (s *Server) handleContact(c *gin.Context) {
	labels := s.labelsFor(content.Language(c.PostForm("lang")))

	if s.mailer == nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"Message": labels.ContactError})
		return
	}

	msg := ContactMessage{
		Name:    strings.TrimSpace(c.PostForm("fullName")),
		Email:   strings.TrimSpace(c.PostForm("email")),
		Message: strings.TrimSpace(c.PostForm("message")),
	}
	if err := msg.validate(); err != nil {
		s.log.Warnf("Rejected contact form: %v", err)
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"Message": labels.ContactError})
		return
	}

	if err := s.mailer.Send(c.Request.Context(), msg); err != nil {
		s.log.Errorf("Error sending email: %v", err)
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"Message": labels.ContactError})
		return
	}

	s.log.Infof("Contact message sent from %s", s.hashForLog(c.ClientIP()))
	c.HTML(http.StatusOK, "contact-success.html", gin.H{"Message": labels.ContactSuccess})
}

func (s *Server) labelsFor(lang content.Language) content.Labels {
	entry, err := s.store.Get(lang)
	if err != nil {
		entry, err = s.store.Get(s.defaultLanguage)
		if err != nil {
			return content.Labels{}
		}
	}
	return entry.Labels
}
