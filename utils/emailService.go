package utils

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"pharmacoach/config"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type EmailMessage struct {
	To      string
	Name    string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages. Implementations must not block the caller.
type Mailer interface {
	Send(msg EmailMessage)
}

// NewMailer picks SendGrid when an API key is configured and the console mailer otherwise.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SendgridAPIKey != "" {
		return NewSendgridMailer(cfg)
	}
	return NewConsoleMailer(cfg, false)
}

type sendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendgridMailer(cfg *config.Config) Mailer {
	return &sendgridMailer{
		key:        cfg.SendgridAPIKey,
		from:       sgmail.NewEmail(cfg.EmailSenderName, cfg.EmailSender),
		subjPrefix: "[" + cfg.AppName + "] ",
	}
}

func (m *sendgridMailer) Send(msg EmailMessage) {
	go m.send(msg)
}

func (m *sendgridMailer) send(msg EmailMessage) {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.Name, msg.To))

	mail := sgmail.NewV3Mail()
	mail.SetFrom(m.from)
	mail.AddPersonalizations(p)
	mail.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(mail)

	res, err := sendgrid.API(req)
	if err != nil {
		slog.Error("sending email", "to", msg.To, "subject", msg.Subject, "err", err)
	} else if res.StatusCode >= http.StatusBadRequest {
		slog.Error("sending email", "to", msg.To, "status", res.StatusCode, "body", res.Body)
	}
}

// ConsoleMailer logs messages instead of sending them and keeps a copy of each.
type ConsoleMailer struct {
	from       string
	subjPrefix string
	sync       bool

	mu   sync.Mutex
	sent []EmailMessage
}

// NewConsoleMailer builds a console mailer; synchronous mailers deliver before Send returns.
func NewConsoleMailer(cfg *config.Config, synchronous bool) *ConsoleMailer {
	return &ConsoleMailer{
		from:       cfg.EmailSender,
		subjPrefix: "[" + cfg.AppName + "] ",
		sync:       synchronous,
	}
}

func (m *ConsoleMailer) Send(msg EmailMessage) {
	if m.sync {
		m.deliver(msg)
		return
	}
	go m.deliver(msg)
}

func (m *ConsoleMailer) deliver(msg EmailMessage) {
	slog.Info("--- email ---", "from", m.from, "to", msg.To, "subject", m.subjPrefix+msg.Subject, "body", msg.Text)
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
}

// Sent returns the messages delivered so far.
func (m *ConsoleMailer) Sent() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmailMessage(nil), m.sent...)
}

// EmailService renders the application's transactional emails.
type EmailService struct {
	mailer  Mailer
	appName string
}

func NewEmailService(mailer Mailer, appName string) *EmailService {
	return &EmailService{mailer: mailer, appName: appName}
}

func (s *EmailService) template(title string, paragraphs ...string) (string, string) {
	var text, body strings.Builder
	for _, p := range paragraphs {
		text.WriteString(p)
		text.WriteString("\n\n")
		fmt.Fprintf(&body, "<p>%s</p>\n", html.EscapeString(p))
	}
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
	<div style="max-width: 560px; margin: auto; background: #ffffff; border-radius: 8px; padding: 30px;">
		<h2 style="color: #1e3a8a; margin-top: 0;">%s</h2>
		%s
		<p style="font-size: 12px; color: #666666;">%s</p>
	</div>
</body>
</html>`, html.EscapeString(title), body.String(), html.EscapeString(s.appName))
	return text.String(), page
}

func (s *EmailService) send(to, name, subject, title string, paragraphs ...string) {
	text, page := s.template(title, paragraphs...)
	s.mailer.Send(EmailMessage{To: to, Name: name, Subject: subject, Text: text, HTML: page})
}

// SendRegistrationEmail confirms a registration awaiting approval.
func (s *EmailService) SendRegistrationEmail(email, name string) {
	s.send(email, name, "Registration received", "Welcome aboard!",
		fmt.Sprintf("Dear %s,", name),
		"Your registration has been received. An administrator will review it shortly and you will be able to log in once it is approved.",
	)
}

func (s *EmailService) SendApprovalEmail(email, name string) {
	s.send(email, name, "Your account is approved", "Account approved",
		fmt.Sprintf("Dear %s,", name),
		"Your account has been approved. You can now log in and start practising.",
	)
}

func (s *EmailService) SendRejectionEmail(email, name string) {
	s.send(email, name, "Your registration was not approved", "Registration update",
		fmt.Sprintf("Dear %s,", name),
		"Unfortunately your registration was not approved. Please contact us if you think this is a mistake.",
	)
}

func (s *EmailService) SendEnrollmentEmail(email, name, courseTitle string, expiresAt time.Time) {
	s.send(email, name, "Course access granted: "+courseTitle, "New course unlocked",
		fmt.Sprintf("Dear %s,", name),
		fmt.Sprintf("You now have access to %s until %s.", courseTitle, expiresAt.Format("02 Jan 2006")),
	)
}

func (s *EmailService) SendExpiryReminder(email, name, courseTitle string, expiresAt time.Time) {
	s.send(email, name, "Course access expiring: "+courseTitle, "Access expiring soon",
		fmt.Sprintf("Dear %s,", name),
		fmt.Sprintf("Your access to %s ends on %s. Renew before then to keep your tests and classes.", courseTitle, expiresAt.Format("02 Jan 2006 15:04 MST")),
	)
}
