package notifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smanilla/mindtrack/internal/client"
	"github.com/smanilla/mindtrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testVoiceOptions() VoiceOptions {
	return VoiceOptions{
		Enabled:            true,
		FromNumber:         "+15550000000",
		PublicBaseURL:      "https://api.example.com",
		DefaultCountryCode: "+1",
		RingTimeout:        30,
		RequestTimeout:     time.Second,
	}
}

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"555-123-4567", "+15551234567", true},
		{"+44 20 7946 0958", "+442079460958", true},
		{"(555) 123 4567", "+15551234567", true},
		{"0123456", "", false},
		{"call me", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeE164(tt.in, "+1")
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestVoiceNotifier_ScriptURL(t *testing.T) {
	n := NewVoiceNotifier(testVoiceOptions(), &fakePlacer{}, nil, zap.NewNop())
	assert.Equal(t, "https://api.example.com/api/ai-assessment/voice-message?patientName=Jane+Doe", n.ScriptURL("Jane Doe"))

	opts := testVoiceOptions()
	opts.TwimlBinURL = "https://handler.twilio.com/twiml/EH123"
	n = NewVoiceNotifier(opts, &fakePlacer{}, nil, zap.NewNop())
	assert.Equal(t, "https://handler.twilio.com/twiml/EH123", n.ScriptURL("Jane Doe"))
}

func TestVoiceNotifier_CallContact(t *testing.T) {
	placer := &fakePlacer{}
	recorder := &fakeRecorder{}
	n := NewVoiceNotifier(testVoiceOptions(), placer, recorder, zap.NewNop())

	res := n.CallContact(context.Background(), "555-123-4567", "Jane Doe")

	assert.True(t, res.Sent)
	assert.Equal(t, "CA001", res.CallSid)
	assert.Equal(t, "queued", res.Status)
	assert.Nil(t, res.NumberValidation)

	req, ok := placer.requestFor("+15551234567")
	require.True(t, ok)
	assert.Equal(t, "+15550000000", req.From)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "https://api.example.com/api/ai-assessment/voice-message?patientName=Jane+Doe", req.URL)
	assert.Equal(t, "https://api.example.com/api/ai-assessment/call-status", req.StatusCallback)
	assert.Equal(t, http.MethodPost, req.StatusCallbackMethod)
	assert.Equal(t, CallStatusEvents, req.StatusCallbackEvents)
	assert.Equal(t, 30, req.Timeout)
	assert.False(t, req.Record)

	require.Len(t, recorder.placed, 1)
	assert.Equal(t, placedCall{sid: "CA001", to: "+15551234567", status: "queued"}, recorder.placed[0])
}

func TestVoiceNotifier_CallContactStates(t *testing.T) {
	disabled := testVoiceOptions()
	disabled.Enabled = false
	noURL := testVoiceOptions()
	noURL.PublicBaseURL = ""

	tests := []struct {
		name   string
		n      *VoiceNotifier
		phone  string
		reason string
	}{
		{"disabled", NewVoiceNotifier(disabled, &fakePlacer{}, nil, zap.NewNop()), "+15551234567", models.ReasonVoiceCallsDisabled},
		{"no client", NewVoiceNotifier(testVoiceOptions(), nil, nil, zap.NewNop()), "+15551234567", models.ReasonVoiceCallsDisabled},
		{"invalid number", NewVoiceNotifier(testVoiceOptions(), &fakePlacer{}, nil, zap.NewNop()), "not a phone", models.ReasonInvalidPhone},
		{"no public url", NewVoiceNotifier(noURL, &fakePlacer{}, nil, zap.NewNop()), "+15551234567", models.ReasonAPIURLNotConfigured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.n.CallContact(context.Background(), tt.phone, "Jane")
			assert.False(t, res.Sent)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestVoiceNotifier_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
		code   int
		msg    string
	}{
		{"geo permissions", &client.TwilioError{Code: 21408, Status: 400}, models.ReasonGeoPermissionDenied, 21408, "Geo Permissions"},
		{"invalid number", &client.TwilioError{Code: 21211, Status: 400}, models.ReasonInvalidPhoneNumber, 21211, "Invalid phone number format"},
		{"caller id", &client.TwilioError{Code: 21212, Status: 400}, models.ReasonInvalidCallerID, 21212, "Invalid caller ID"},
		{"unsubscribed", &client.TwilioError{Code: 21608, Status: 400}, models.ReasonUnsubscribedNumber, 21608, "unsubscribed"},
		{"unreachable", &client.TwilioError{Code: 21610, Status: 400}, models.ReasonInvalidPhoneNumber, 21610, "invalid or unreachable"},
		{"other provider error", &client.TwilioError{Code: 20003, Status: 401, Message: "Authenticate"}, models.ReasonCallFailed, 20003, "Authenticate"},
		{"transport error", errors.New("connection reset"), models.ReasonCallFailed, 0, "connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			placer := &fakePlacer{callErrs: map[string]error{"+15551234567": tt.err}}
			recorder := &fakeRecorder{}
			n := NewVoiceNotifier(testVoiceOptions(), placer, recorder, zap.NewNop())

			res := n.CallContact(context.Background(), "+15551234567", "Jane")

			assert.False(t, res.Sent)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.code, res.Code)
			assert.Contains(t, res.Error, tt.msg)
			assert.Empty(t, recorder.placed)
		})
	}
}

func TestVoiceNotifier_LookupIsAdvisory(t *testing.T) {
	opts := testVoiceOptions()
	opts.LookupEnabled = true

	placer := &fakePlacer{lookupErr: errors.New("lookup unavailable")}
	res := NewVoiceNotifier(opts, placer, nil, zap.NewNop()).CallContact(context.Background(), "+15551234567", "Jane")
	assert.True(t, res.Sent)
	require.NotNil(t, res.NumberValidation)
	assert.Contains(t, res.NumberValidation.Error, "lookup unavailable")

	placer = &fakePlacer{lookup: &client.LookupResult{CountryCode: "US"}}
	placer.lookup.Carrier = &struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}{Name: "Acme Telecom", Type: "landline"}
	res = NewVoiceNotifier(opts, placer, nil, zap.NewNop()).CallContact(context.Background(), "+15551234567", "Jane")
	assert.True(t, res.Sent)
	assert.Equal(t, &models.NumberValidation{CountryCode: "US", Carrier: "Acme Telecom", Type: "landline"}, res.NumberValidation)
	assert.Equal(t, 1, placer.lookups)
}

func TestVoiceNotifier_Preflight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, VoiceMessagePath, r.URL.Path)
		assert.Equal(t, "Test", r.URL.Query().Get("patientName"))
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	opts := testVoiceOptions()
	opts.PublicBaseURL = srv.URL
	opts.PreflightEnabled = true
	opts.PreflightTimeout = time.Second

	// non-200 only warns
	placer := &fakePlacer{}
	res := NewVoiceNotifier(opts, placer, nil, zap.NewNop()).CallContact(context.Background(), "+15551234567", "Jane")
	assert.True(t, res.Sent)

	srv.Close()
	placer = &fakePlacer{}
	res = NewVoiceNotifier(opts, placer, nil, zap.NewNop()).CallContact(context.Background(), "+15551234567", "Jane")
	assert.False(t, res.Sent)
	assert.Equal(t, models.ReasonTwimlInaccessible, res.Reason)
	assert.Contains(t, res.Error, "TwiML endpoint not accessible")
	assert.Empty(t, placer.requests)
}

func TestVoiceNotifier_TwimlBinSkipsPreflight(t *testing.T) {
	opts := testVoiceOptions()
	opts.PublicBaseURL = ""
	opts.TwimlBinURL = "https://handler.twilio.com/twiml/EH123"
	opts.PreflightEnabled = true

	placer := &fakePlacer{}
	res := NewVoiceNotifier(opts, placer, nil, zap.NewNop()).CallContact(context.Background(), "+15551234567", "Jane")

	assert.True(t, res.Sent)
	req, ok := placer.requestFor("+15551234567")
	require.True(t, ok)
	assert.Equal(t, "https://handler.twilio.com/twiml/EH123", req.URL)
	assert.Empty(t, req.StatusCallback)
}

func TestVoiceNotifier_HungProviderTimesOut(t *testing.T) {
	opts := testVoiceOptions()
	opts.RequestTimeout = 50 * time.Millisecond
	recorder := &fakeRecorder{}
	n := NewVoiceNotifier(opts, &fakePlacer{block: true}, recorder, zap.NewNop())

	start := time.Now()
	res := n.CallContact(context.Background(), "+15551234567", "Jane")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, res.Sent)
	assert.Equal(t, models.ReasonCallFailed, res.Reason)
	assert.Contains(t, res.Error, context.DeadlineExceeded.Error())
	assert.Empty(t, recorder.placed)
}
