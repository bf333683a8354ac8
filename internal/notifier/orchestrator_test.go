package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smanilla/mindtrack/internal/client"
	"github.com/smanilla/mindtrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOrchestrator(mailer Mailer, voiceOpts VoiceOptions, placer CallPlacer, outcomes Outcomes) *Orchestrator {
	logger := zap.NewNop()
	return NewOrchestrator(
		NewResolver(testDoctors(), logger),
		NewEmailNotifier(true, mailer, "alerts@example.com", time.Second, logger),
		NewVoiceNotifier(voiceOpts, placer, nil, logger),
		2,
		outcomes,
		logger,
	)
}

func TestOrchestrator_EmailFailureDoesNotBlockCalls(t *testing.T) {
	placer := &fakePlacer{}
	outcomes := &fakeOutcomes{}
	o := newTestOrchestrator(&fakeMailer{err: errors.New("smtp down")}, testVoiceOptions(), placer, outcomes)

	res := o.Notify(context.Background(), AlertRequest{Patient: testPatient(), Advice: "advice", Answers: []string{"a"}})

	assert.False(t, res.Emails.Sent)
	assert.Equal(t, models.ReasonSendFailed, res.Emails.Reason)

	assert.True(t, res.VoiceCalls.Sent)
	require.Len(t, res.VoiceCalls.Calls, 2)
	assert.Equal(t, "+15551234567", res.VoiceCalls.Calls[0].Phone)
	assert.Equal(t, "Dr Who", res.VoiceCalls.Calls[0].Name)
	assert.Equal(t, models.ContactDoctor, res.VoiceCalls.Calls[0].Type)
	assert.Equal(t, "+15559876543", res.VoiceCalls.Calls[1].Phone)
	assert.Equal(t, models.ContactEmergencyContact, res.VoiceCalls.Calls[1].Type)
	assert.Equal(t, "Friend", res.VoiceCalls.Calls[1].Relationship)
	for _, c := range res.VoiceCalls.Calls {
		assert.True(t, c.Sent)
		assert.NotEmpty(t, c.CallSid)
	}

	assert.Len(t, outcomes.emails, 1)
	assert.Len(t, outcomes.calls, 2)
}

func TestOrchestrator_AnyCallSucceeding(t *testing.T) {
	placer := &fakePlacer{callErrs: map[string]error{
		"+15551234567": &client.TwilioError{Code: 21408, Status: 400},
	}}
	o := newTestOrchestrator(&fakeMailer{id: "<m1>"}, testVoiceOptions(), placer, nil)

	res := o.Notify(context.Background(), AlertRequest{Patient: testPatient(), Advice: "advice"})

	assert.True(t, res.Emails.Sent)
	assert.Equal(t, 2, res.Emails.Count)
	assert.True(t, res.VoiceCalls.Sent)
	require.Len(t, res.VoiceCalls.Calls, 2)
	assert.False(t, res.VoiceCalls.Calls[0].Sent)
	assert.Equal(t, models.ReasonGeoPermissionDenied, res.VoiceCalls.Calls[0].Reason)
	assert.True(t, res.VoiceCalls.Calls[1].Sent)
}

func TestOrchestrator_NoContacts(t *testing.T) {
	o := newTestOrchestrator(&fakeMailer{}, testVoiceOptions(), &fakePlacer{}, nil)

	res := o.Notify(context.Background(), AlertRequest{Patient: &models.User{ID: "p9", Name: "Solo"}})

	assert.Equal(t, models.ReasonNoRecipients, res.Emails.Reason)
	assert.False(t, res.VoiceCalls.Sent)
	assert.Equal(t, models.ReasonNoPhoneNumbers, res.VoiceCalls.Reason)
	assert.NotNil(t, res.VoiceCalls.Calls)
	assert.Empty(t, res.VoiceCalls.Calls)
}

func TestOrchestrator_VoiceUnavailable(t *testing.T) {
	disabled := testVoiceOptions()
	disabled.Enabled = false
	res := newTestOrchestrator(&fakeMailer{}, disabled, &fakePlacer{}, nil).
		Notify(context.Background(), AlertRequest{Patient: testPatient()})
	assert.Equal(t, models.ReasonVoiceCallsDisabled, res.VoiceCalls.Reason)
	assert.Nil(t, res.VoiceCalls.Details)

	unconfigured := testVoiceOptions()
	unconfigured.Details = models.TelephonyDetails{HasAccountSID: true}
	res = newTestOrchestrator(&fakeMailer{}, unconfigured, nil, nil).
		Notify(context.Background(), AlertRequest{Patient: testPatient()})
	assert.Equal(t, models.ReasonTwilioNotConfigured, res.VoiceCalls.Reason)
	require.NotNil(t, res.VoiceCalls.Details)
	assert.Equal(t, models.TelephonyDetails{HasAccountSID: true}, *res.VoiceCalls.Details)
	assert.Empty(t, res.VoiceCalls.Calls)
}

func TestOrchestrator_PanickingMailerIsContained(t *testing.T) {
	placer := &fakePlacer{}
	o := newTestOrchestrator(&fakeMailer{panic: "boom"}, testVoiceOptions(), placer, nil)

	res := o.Notify(context.Background(), AlertRequest{Patient: testPatient()})

	assert.False(t, res.Emails.Sent)
	assert.Equal(t, models.ReasonSendFailed, res.Emails.Reason)
	assert.Equal(t, "boom", res.Emails.Error)
	assert.True(t, res.VoiceCalls.Sent)
}
