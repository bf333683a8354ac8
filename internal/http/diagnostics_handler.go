package httpapi

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/smanilla/mindtrack/internal/config"
	"github.com/smanilla/mindtrack/internal/models"
	"github.com/smanilla/mindtrack/internal/notifier"

	"go.uber.org/zap"
)

// DiagnosticsHandler operator endpoints for checking alert channel setup
type DiagnosticsHandler struct {
	cfg      *config.Config
	resolver *notifier.Resolver
	email    *notifier.EmailNotifier
	voice    *notifier.VoiceNotifier
	maxBody  int64
	logger   *zap.Logger
}

func NewDiagnosticsHandler(cfg *config.Config, resolver *notifier.Resolver, email *notifier.EmailNotifier, voice *notifier.VoiceNotifier, logger *zap.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		cfg:      cfg,
		resolver: resolver,
		email:    email,
		voice:    voice,
		maxBody:  cfg.HTTP.MaxBodyBytes,
		logger:   logger,
	}
}

type configCheck struct {
	EnableVoiceCalls        bool                     `json:"enableVoiceCalls"`
	TwilioClientInitialized bool                     `json:"twilioClientInitialized"`
	EnableAlertEmails       bool                     `json:"enableAlertEmails"`
	TransporterInitialized  bool                     `json:"transporterInitialized"`
	EnvironmentVariables    map[string]string        `json:"environmentVariables"`
	Issues                  []string                 `json:"issues"`
	UserPhoneNumbers        []models.ResolvedContact `json:"userPhoneNumbers"`
	PhoneNumberCount        int                      `json:"phoneNumberCount"`
	UserEmailAddresses      []models.ResolvedContact `json:"userEmailAddresses"`
	EmailAddressCount       int                      `json:"emailAddressCount"`
}

// ConfigCheck GET /config-check
func (h *DiagnosticsHandler) ConfigCheck(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	v := h.cfg.Voice
	m := h.cfg.Mail

	out := configCheck{
		EnableVoiceCalls:        h.voice.Enabled(),
		TwilioClientInitialized: h.voice.Configured(),
		EnableAlertEmails:       h.email.Enabled(),
		TransporterInitialized:  h.email.Configured(),
		EnvironmentVariables: map[string]string{
			"ENABLE_VOICE_CALLS":        strconv.FormatBool(v.Enabled),
			"TWILIO_ACCOUNT_SID":        hidden(v.AccountSID),
			"TWILIO_AUTH_TOKEN":         hidden(v.AuthToken),
			"TWILIO_PHONE_NUMBER":       orNotSet(v.FromNumber),
			"API_URL":                   orNotSet(h.cfg.HTTP.PublicBaseURL),
			"RED_ALERT_VOICE_AUDIO_URL": presence(v.AudioURL),
			"TWIML_BIN_URL":             presence(v.TwimlBinURL),
			"ENABLE_ALERT_EMAILS":       strconv.FormatBool(m.Enabled),
			"SMTP_HOST":                 orNotSet(m.Host),
			"SMTP_USER":                 orNotSet(m.User),
			"SMTP_PASS":                 hidden(m.Password),
			"SMTP_PORT":                 strconv.Itoa(m.Port),
			"MAIL_FROM":                 orNotSet(m.From),
		},
		Issues: []string{},
	}

	if !v.Enabled {
		out.Issues = append(out.Issues, `ENABLE_VOICE_CALLS is not set to "true"`)
	}
	if v.AccountSID == "" {
		out.Issues = append(out.Issues, "TWILIO_ACCOUNT_SID is not set")
	}
	if v.AuthToken == "" {
		out.Issues = append(out.Issues, "TWILIO_AUTH_TOKEN is not set")
	}
	if v.FromNumber == "" {
		out.Issues = append(out.Issues, "TWILIO_PHONE_NUMBER is not set")
	}
	if !h.voice.Configured() {
		out.Issues = append(out.Issues, "Twilio client is not initialized (check credentials)")
	}
	if h.cfg.HTTP.PublicBaseURL == "" && v.TwimlBinURL == "" {
		out.Issues = append(out.Issues, "API_URL is not set (needed for TwiML endpoint)")
	}
	if !m.Enabled {
		out.Issues = append(out.Issues, `ENABLE_ALERT_EMAILS is not set to "true"`)
	}
	if m.Host == "" {
		out.Issues = append(out.Issues, "SMTP_HOST is not set (required for email alerts)")
	}
	if m.User == "" {
		out.Issues = append(out.Issues, "SMTP_USER is not set (required for email alerts)")
	}
	if m.Password == "" {
		out.Issues = append(out.Issues, "SMTP_PASS is not set (required for email alerts)")
	}
	if !h.email.Configured() {
		out.Issues = append(out.Issues, "Email transporter is not initialized (check SMTP configuration)")
	}

	contacts := h.resolver.Resolve(r.Context(), user, nil)
	out.UserPhoneNumbers = contacts.Phones
	out.PhoneNumberCount = len(contacts.Phones)
	out.UserEmailAddresses = contacts.Emails
	out.EmailAddressCount = len(contacts.Emails)
	if len(contacts.Phones) == 0 {
		out.Issues = append(out.Issues, "No phone numbers found (no doctor phone or emergency contacts)")
	}
	if len(contacts.Emails) == 0 {
		out.Issues = append(out.Issues, "No email addresses found (no doctor email or emergency contact emails)")
	}

	writeJSON(w, http.StatusOK, out)
}

type testEmailBody struct {
	TestEmail string `json:"testEmail"`
}

// TestEmail POST /test-email
func (h *DiagnosticsHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	if !h.email.Enabled() {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Email alerts are disabled",
			"message": "Set ENABLE_ALERT_EMAILS=true to enable email alerts",
		})
		return
	}
	if !h.email.Configured() {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Email transporter not initialized",
			"message": "Check SMTP configuration (SMTP_HOST, SMTP_USER, SMTP_PASS)",
			"config": map[string]string{
				"SMTP_HOST": orNotSet(h.cfg.Mail.Host),
				"SMTP_USER": orNotSet(h.cfg.Mail.User),
				"SMTP_PASS": presence(h.cfg.Mail.Password),
				"SMTP_PORT": strconv.Itoa(h.cfg.Mail.Port),
			},
		})
		return
	}

	var body testEmailBody
	if err := readBodyJSON(r, h.maxBody, &body); err != nil || !strings.Contains(body.TestEmail, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Invalid email address",
			"message": "Please provide a valid test email address",
		})
		return
	}

	id, err := h.email.SendTest(r.Context(), body.TestEmail, h.cfg.Mail.Host, h.cfg.Mail.Port)
	if err != nil {
		h.logger.Error("Test email failed", zap.String("to", body.TestEmail), zap.Error(err))
		msg, suggestions := classifySMTPError(err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success":     false,
			"error":       msg,
			"details":     map[string]string{"message": err.Error()},
			"suggestions": suggestions,
		})
		return
	}

	h.logger.Info("Test email sent", zap.String("to", body.TestEmail), zap.String("message_id", id))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Test email sent successfully",
		"messageId": id,
		"to":        body.TestEmail,
	})
}

func classifySMTPError(err error) (string, []string) {
	var netErr net.Error
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "535") || strings.Contains(text, "auth"):
		return "SMTP authentication failed", []string{
			"Use an app password rather than the account password",
			"Check that SMTP_USER matches the account the app password belongs to",
			"Make sure there are no extra spaces or characters in SMTP_PASS",
		}
	case errors.As(err, &netErr) || strings.Contains(text, "dial"):
		return "Could not connect to SMTP server", []string{
			"Verify SMTP_HOST and SMTP_PORT",
			"Check whether the port is blocked by a firewall",
		}
	}
	return "Failed to send test email", []string{}
}

func orNotSet(v string) string {
	if v == "" {
		return "NOT SET"
	}
	return v
}

func presence(v string) string {
	if v == "" {
		return "NOT SET"
	}
	return "SET"
}

func hidden(v string) string {
	if v == "" {
		return "NOT SET"
	}
	return "SET (hidden)"
}
