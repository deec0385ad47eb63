package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/vidscribe/backend/config"
	"github.com/vidscribe/backend/internal/models"
)

// Mailer sends reviewer notifications over SMTP.
type Mailer struct {
	cfg     config.EmailConfig
	baseURL string
	logger  *zap.Logger

	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a mailer. baseURL is the public review UI address used to
// build edit deep links.
func New(cfg config.EmailConfig, baseURL string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		send:    smtp.SendMail,
	}
}

// EditLink returns the deep link to the review-edit page for the video.
func (m *Mailer) EditLink(videoID string) string {
	return fmt.Sprintf("%s/posts/%s/edit", m.baseURL, videoID)
}

// SendDraftNotification emails the configured reviewer that a draft is
// ready, with the draft body and an edit link.
func (m *Mailer) SendDraftNotification(_ context.Context, post *models.Post) error {
	if m.cfg.Recipient == "" {
		m.logger.Warn("no notification recipient configured, skipping email",
			zap.String("video_id", post.VideoID))
		return nil
	}

	subject := "LinkedIn Post Draft for: " + post.VideoTitle
	body := m.buildHTML(post)
	msg := m.buildMessage(m.cfg.Recipient, subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}

	if err := m.send(addr, auth, m.cfg.FromAddress, []string{m.cfg.Recipient}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Info("draft notification sent",
		zap.String("video_id", post.VideoID),
		zap.String("recipient", m.cfg.Recipient),
	)
	return nil
}

func (m *Mailer) buildHTML(post *models.Post) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<h2>New LinkedIn post draft is ready for review</h2>")
	fmt.Fprintf(&b, "<p><strong>Video:</strong> <a href=%q>%s</a></p>", post.VideoURL, post.VideoTitle)
	fmt.Fprintf(&b, "<h3>%s</h3>", post.Title)
	fmt.Fprintf(&b, "<pre style=\"white-space:pre-wrap;font-family:inherit\">%s</pre>", post.Content)
	fmt.Fprintf(&b, "<p><a href=%q>Review and edit this draft</a></p>", m.EditLink(post.VideoID))
	b.WriteString("</body></html>")
	return b.String()
}

func (m *Mailer) buildMessage(to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromAddress)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
