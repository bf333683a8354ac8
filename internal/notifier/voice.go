package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/smanilla/mindtrack/internal/client"
	"github.com/smanilla/mindtrack/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	VoiceMessagePath = "/api/ai-assessment/voice-message"
	CallStatusPath   = "/api/ai-assessment/call-status"
)

// CallStatusEvents status callback events registered on every call.
var CallStatusEvents = []string{"initiated", "ringing", "answered", "completed", "busy", "no-answer", "failed", "canceled"}

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// CallPlacer telephony backend
type CallPlacer interface {
	CreateCall(ctx context.Context, req client.CallRequest) (*client.Call, error)
	Lookup(ctx context.Context, phone string) (*client.LookupResult, error)
}

// CallRecorder stores the provider's initial status for a placed call.
type CallRecorder interface {
	RecordPlaced(ctx context.Context, sid, to, status string) error
}

// VoiceOptions settings for NewVoiceNotifier
type VoiceOptions struct {
	Enabled            bool
	FromNumber         string
	PublicBaseURL      string
	TwimlBinURL        string
	DefaultCountryCode string
	RingTimeout        int
	RequestTimeout     time.Duration
	LookupEnabled      bool
	PreflightEnabled   bool
	PreflightTimeout   time.Duration
	Details            models.TelephonyDetails
}

type twilioFailure struct {
	reason  string
	message string
}

// twilioFailures provider error codes with a known meaning
var twilioFailures = map[int]twilioFailure{
	21211: {models.ReasonInvalidPhoneNumber, "Invalid phone number format"},
	21212: {models.ReasonInvalidCallerID, "Invalid caller ID (Twilio phone number)"},
	21408: {models.ReasonGeoPermissionDenied, "International calling not enabled for this country. Check Twilio Geo Permissions."},
	21608: {models.ReasonUnsubscribedNumber, "Number has unsubscribed from calls"},
	21610: {models.ReasonInvalidPhoneNumber, "Phone number is invalid or unreachable"},
}

// VoiceNotifier places red-alert calls. A nil placer means Twilio is not configured.
type VoiceNotifier struct {
	opts        VoiceOptions
	placer      CallPlacer
	recorder    CallRecorder
	scriptCheck *resty.Client
	logger      *zap.Logger
}

func NewVoiceNotifier(opts VoiceOptions, placer CallPlacer, recorder CallRecorder, logger *zap.Logger) *VoiceNotifier {
	if opts.RingTimeout <= 0 {
		opts.RingTimeout = 30
	}
	if opts.PreflightTimeout <= 0 {
		opts.PreflightTimeout = 5 * time.Second
	}
	if opts.DefaultCountryCode == "" {
		opts.DefaultCountryCode = "+1"
	}
	return &VoiceNotifier{
		opts:        opts,
		placer:      placer,
		recorder:    recorder,
		scriptCheck: resty.New().SetTimeout(opts.PreflightTimeout),
		logger:      logger,
	}
}

// Enabled reports the feature flag.
func (n *VoiceNotifier) Enabled() bool { return n.opts.Enabled }

// Configured reports whether a telephony client is present.
func (n *VoiceNotifier) Configured() bool { return n.placer != nil }

// Details which credentials are present, for diagnostics.
func (n *VoiceNotifier) Details() models.TelephonyDetails { return n.opts.Details }

// NormalizeE164 strips formatting and prefixes countryCode when no "+" is present.
// ok is false when the number does not look like a phone number.
func NormalizeE164(phone, countryCode string) (string, bool) {
	p := NormalizePhone(phone)
	if p == "" || !phonePattern.MatchString(p) {
		return "", false
	}
	if !strings.HasPrefix(p, "+") {
		p = countryCode + p
	}
	return p, true
}

// ScriptURL the voice script URL handed to the provider for patientName.
func (n *VoiceNotifier) ScriptURL(patientName string) string {
	if n.opts.TwimlBinURL != "" {
		return n.opts.TwimlBinURL
	}
	return n.opts.PublicBaseURL + VoiceMessagePath + "?patientName=" + url.QueryEscape(patientName)
}

// CallContact places one call. It never returns an error; failures are
// described by Reason/Error on the result.
func (n *VoiceNotifier) CallContact(ctx context.Context, phone, patientName string) models.CallResult {
	res := models.CallResult{Phone: phone}

	if !n.opts.Enabled || n.placer == nil {
		res.Reason = models.ReasonVoiceCallsDisabled
		return res
	}

	to, ok := NormalizeE164(phone, n.opts.DefaultCountryCode)
	if !ok {
		res.Reason = models.ReasonInvalidPhone
		return res
	}

	if n.opts.LookupEnabled {
		res.NumberValidation = n.lookup(ctx, to)
	}

	if n.opts.PublicBaseURL == "" && n.opts.TwimlBinURL == "" {
		res.Reason = models.ReasonAPIURLNotConfigured
		res.Error = "API_URL environment variable is required"
		return res
	}

	if n.opts.PreflightEnabled && n.opts.TwimlBinURL == "" {
		if err := n.preflight(ctx); err != nil {
			n.logger.Error("Voice script endpoint not accessible", zap.Error(err))
			res.Reason = models.ReasonTwimlInaccessible
			res.Error = "TwiML endpoint not accessible: " + err.Error()
			return res
		}
	}

	req := client.CallRequest{
		To:                   to,
		From:                 n.opts.FromNumber,
		URL:                  n.ScriptURL(patientName),
		Method:               http.MethodGet,
		StatusCallbackMethod: http.MethodPost,
		StatusCallbackEvents: CallStatusEvents,
		Timeout:              n.opts.RingTimeout,
		Record:               false,
	}
	if n.opts.PublicBaseURL != "" {
		req.StatusCallback = n.opts.PublicBaseURL + CallStatusPath
	}

	callCtx, cancel := n.withTimeout(ctx, n.opts.RequestTimeout)
	defer cancel()

	call, err := n.placer.CreateCall(callCtx, req)
	if err != nil {
		n.mapCallError(&res, err)
		n.logger.Error("Red alert call failed",
			zap.String("to", to),
			zap.String("reason", res.Reason),
			zap.Error(err),
		)
		return res
	}

	res.Sent = true
	res.CallSid = call.SID
	res.Status = call.Status
	if n.recorder != nil {
		if err := n.recorder.RecordPlaced(ctx, call.SID, to, call.Status); err != nil {
			n.logger.Warn("Failed to record placed call", zap.String("call_sid", call.SID), zap.Error(err))
		}
	}
	return res
}

func (n *VoiceNotifier) mapCallError(res *models.CallResult, err error) {
	var twErr *client.TwilioError
	if errors.As(err, &twErr) {
		if f, ok := twilioFailures[twErr.Code]; ok {
			res.Reason = f.reason
			res.Error = f.message
			res.Code = twErr.Code
			return
		}
		res.Code = twErr.Code
	}
	res.Reason = models.ReasonCallFailed
	res.Error = err.Error()
}

// lookup is advisory: failures are recorded and logged, never fatal.
func (n *VoiceNotifier) lookup(ctx context.Context, to string) *models.NumberValidation {
	lookupCtx, cancel := n.withTimeout(ctx, n.opts.RequestTimeout)
	defer cancel()

	info, err := n.placer.Lookup(lookupCtx, to)
	if err != nil {
		n.logger.Warn("Number lookup failed, continuing", zap.String("to", to), zap.Error(err))
		return &models.NumberValidation{Error: err.Error()}
	}

	nv := &models.NumberValidation{CountryCode: info.CountryCode}
	if info.Carrier != nil {
		nv.Carrier = info.Carrier.Name
		nv.Type = info.Carrier.Type
		if nv.Type != "mobile" && nv.Type != "voip" {
			n.logger.Warn("Number type may have lower call success rate",
				zap.String("to", to),
				zap.String("type", nv.Type),
			)
		}
	}
	return nv
}

// preflight checks that the self-hosted voice script answers. Transport
// failures are fatal for the call; non-200 statuses only warn.
func (n *VoiceNotifier) preflight(ctx context.Context) error {
	resp, err := n.scriptCheck.R().
		SetContext(ctx).
		SetQueryParam("patientName", "Test").
		Get(n.opts.PublicBaseURL + VoiceMessagePath)
	if err != nil {
		return fmt.Errorf("preflight GET: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		n.logger.Warn("Voice script endpoint returned non-200, call may fail",
			zap.Int("status_code", resp.StatusCode()),
		)
	}
	return nil
}

func (n *VoiceNotifier) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
