package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smanilla/mindtrack/internal/models"
	"github.com/smanilla/mindtrack/internal/summary"

	"go.uber.org/zap"
)

// ErrMailUnavailable SendTest was called without an enabled, configured transport.
var ErrMailUnavailable = errors.New("mail transport not available")

// Message one outgoing plain-text email
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
}

// Mailer mail transport. Send returns the message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// EmailNotifier sends the red-alert email. A nil mailer means the transport
// is not configured.
type EmailNotifier struct {
	enabled bool
	mailer  Mailer
	from    string
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func NewEmailNotifier(enabled bool, mailer Mailer, from string, timeout time.Duration, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		enabled: enabled,
		mailer:  mailer,
		from:    from,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Enabled reports the feature flag.
func (n *EmailNotifier) Enabled() bool { return n.enabled }

// Configured reports whether a transport is present.
func (n *EmailNotifier) Configured() bool { return n.mailer != nil }

// SendAlert sends one message addressed to every recipient. It never returns
// an error; every outcome is described by the result.
func (n *EmailNotifier) SendAlert(ctx context.Context, recipients []models.ResolvedContact, patient *models.User, advice string, answers []string) models.EmailResult {
	if !n.enabled {
		return models.EmailResult{Sent: false, Reason: models.ReasonMailDisabled}
	}
	if n.mailer == nil {
		return models.EmailResult{Sent: false, Reason: models.ReasonMailNotConfigured}
	}
	if len(recipients) == 0 {
		n.logger.Info("No email recipients found for red alert")
		return models.EmailResult{Sent: false, Reason: models.ReasonNoRecipients}
	}

	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		to = append(to, r.Email)
	}

	name, email := patientIdentity(patient)
	msg := Message{
		From:    n.from,
		To:      to,
		Subject: fmt.Sprintf("🚨 MindTrack Red Alert: %s Needs Immediate Attention", name),
		Text:    alertEmailBody(name, email, advice, answers, recipients),
	}

	sendCtx, cancel := n.withTimeout(ctx)
	defer cancel()

	id, err := n.mailer.Send(sendCtx, msg)
	if err != nil {
		n.logger.Error("Failed to send red alert emails",
			zap.Int("recipient_count", len(to)),
			zap.Error(err),
		)
		return models.EmailResult{Sent: false, Reason: models.ReasonSendFailed, Error: err.Error()}
	}

	n.logger.Info("Red alert emails sent",
		zap.Int("recipient_count", len(to)),
		zap.String("message_id", id),
	)
	return models.EmailResult{Sent: true, Recipients: to, Count: len(to), MessageID: id}
}

// SendTest sends a short diagnostic message to one address.
func (n *EmailNotifier) SendTest(ctx context.Context, to, smtpHost string, smtpPort int) (string, error) {
	if !n.enabled || n.mailer == nil {
		return "", ErrMailUnavailable
	}

	sendCtx, cancel := n.withTimeout(ctx)
	defer cancel()

	text := "This is a test email from MindTrack.\n\n" +
		"If you received this email, your SMTP configuration is working correctly!\n\n" +
		"Configuration Details:\n" +
		fmt.Sprintf("- SMTP Host: %s\n- SMTP Port: %d\n- From: %s\n\n", smtpHost, smtpPort, n.from) +
		"Time: " + n.now().UTC().Format(time.RFC3339) + "\n"

	return n.mailer.Send(sendCtx, Message{
		From:    n.from,
		To:      []string{to},
		Subject: "🧪 MindTrack Email Test",
		Text:    text,
	})
}

func (n *EmailNotifier) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if n.timeout > 0 {
		return context.WithTimeout(ctx, n.timeout)
	}
	return context.WithCancel(ctx)
}

func patientIdentity(p *models.User) (name, email string) {
	name, email = "a patient", "N/A"
	if p == nil {
		return
	}
	if p.Name != "" {
		name = p.Name
	}
	if p.Email != "" {
		email = p.Email
	}
	return
}

func alertEmailBody(name, email, advice string, answers []string, recipients []models.ResolvedContact) string {
	if strings.TrimSpace(advice) == "" {
		advice = "A crisis situation has been detected based on patient responses."
	}

	var b strings.Builder
	b.WriteString("RED ALERT - IMMEDIATE ATTENTION REQUIRED\n\n")
	fmt.Fprintf(&b, "A potential crisis has been detected for %s (%s).\n\n", name, email)
	b.WriteString("This is an automated alert from the MindTrack mental health monitoring system.\n\n")
	b.WriteString("PATIENT INFORMATION:\n")
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\n\n", name, email)
	b.WriteString("CRISIS SUMMARY:\n")
	b.WriteString(advice)
	b.WriteString("\n\nRECENT ASSESSMENT RESPONSES:\n")
	b.WriteString(summary.Transcript(answers))
	b.WriteString("\n\nACTION REQUIRED:\n")
	fmt.Fprintf(&b, "Please reach out to %s immediately to provide support and assess their safety.\n\n", name)
	b.WriteString("If this is a life-threatening emergency, please contact emergency services immediately:\n")
	b.WriteString("- Emergency Services: 911 (US) or your local emergency number\n")
	b.WriteString("- Crisis Text Line: Text HOME to 741741 (US/Canada/UK)\n")
	b.WriteString("- 988 Suicide & Crisis Lifeline: Call or text 988 (US)\n\n")
	b.WriteString("This alert has been sent to:\n")
	for i, r := range recipients {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s%s: %s", r.Name, recipientLabel(r), r.Email)
	}
	b.WriteString("\n\n---\nThis is an automated message from MindTrack. Please do not reply to this email.")
	return b.String()
}

func recipientLabel(r models.ResolvedContact) string {
	switch r.Type {
	case models.ContactDoctor:
		return " (Doctor)"
	case models.ContactEmergencyContact:
		return " (" + defaultString(r.Relationship, "Emergency Contact") + ")"
	}
	return ""
}
