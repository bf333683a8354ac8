package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smanilla/mindtrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRecipients() []models.ResolvedContact {
	return []models.ResolvedContact{
		{Email: "doc@example.com", Name: "Dr Who", Type: models.ContactDoctor},
		{Email: "sam@example.com", Name: "Sam", Type: models.ContactEmergencyContact, Relationship: "Brother"},
		{Email: "extra@example.com", Name: "Extra Contact", Type: models.ContactExtra},
	}
}

func TestEmailNotifier_SendAlertStates(t *testing.T) {
	patient := testPatient()
	answers := []string{"bad day", "I want to die"}

	tests := []struct {
		name       string
		notifier   *EmailNotifier
		recipients []models.ResolvedContact
		want       string
	}{
		{"disabled", NewEmailNotifier(false, &fakeMailer{}, "alerts@example.com", time.Second, zap.NewNop()), testRecipients(), models.ReasonMailDisabled},
		{"no transport", NewEmailNotifier(true, nil, "alerts@example.com", time.Second, zap.NewNop()), testRecipients(), models.ReasonMailNotConfigured},
		{"no recipients", NewEmailNotifier(true, &fakeMailer{}, "alerts@example.com", time.Second, zap.NewNop()), nil, models.ReasonNoRecipients},
		{"send failure", NewEmailNotifier(true, &fakeMailer{err: errors.New("535 auth failed")}, "alerts@example.com", time.Second, zap.NewNop()), testRecipients(), models.ReasonSendFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.notifier.SendAlert(context.Background(), tt.recipients, patient, "advice", answers)
			assert.False(t, res.Sent)
			assert.Equal(t, tt.want, res.Reason)
		})
	}
}

func TestEmailNotifier_SendAlertFailureCarriesError(t *testing.T) {
	n := NewEmailNotifier(true, &fakeMailer{err: errors.New("535 auth failed")}, "alerts@example.com", time.Second, zap.NewNop())

	res := n.SendAlert(context.Background(), testRecipients(), testPatient(), "advice", nil)
	assert.Equal(t, models.ReasonSendFailed, res.Reason)
	assert.Contains(t, res.Error, "535 auth failed")
}

func TestEmailNotifier_SendAlert(t *testing.T) {
	mailer := &fakeMailer{id: "<abc@mindtrack>"}
	n := NewEmailNotifier(true, mailer, "alerts@example.com", time.Second, zap.NewNop())

	res := n.SendAlert(context.Background(), testRecipients(), testPatient(), "Reach out today.", []string{"bad day", "I want to die"})

	assert.True(t, res.Sent)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, []string{"doc@example.com", "sam@example.com", "extra@example.com"}, res.Recipients)
	assert.Equal(t, "<abc@mindtrack>", res.MessageID)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "alerts@example.com", msg.From)
	assert.Equal(t, res.Recipients, msg.To)
	assert.Equal(t, "🚨 MindTrack Red Alert: Jane Doe Needs Immediate Attention", msg.Subject)
	assert.Contains(t, msg.Text, "A potential crisis has been detected for Jane Doe (jane@example.com).")
	assert.Contains(t, msg.Text, "CRISIS SUMMARY:\nReach out today.")
	assert.Contains(t, msg.Text, "A2: I want to die")
	assert.Contains(t, msg.Text, "- Dr Who (Doctor): doc@example.com")
	assert.Contains(t, msg.Text, "- Sam (Brother): sam@example.com")
	assert.Contains(t, msg.Text, "- Extra Contact: extra@example.com")
}

func TestEmailNotifier_BlankAdviceUsesDefault(t *testing.T) {
	mailer := &fakeMailer{}
	n := NewEmailNotifier(true, mailer, "alerts@example.com", 0, zap.NewNop())

	res := n.SendAlert(context.Background(), testRecipients()[:1], nil, "  ", nil)
	require.True(t, res.Sent)
	assert.Contains(t, mailer.sent[0].Subject, "a patient")
	assert.Contains(t, mailer.sent[0].Text, "A crisis situation has been detected based on patient responses.")
	assert.Contains(t, mailer.sent[0].Text, "(N/A)")
}

func TestEmailNotifier_SendTest(t *testing.T) {
	_, err := NewEmailNotifier(false, &fakeMailer{}, "a@example.com", time.Second, zap.NewNop()).
		SendTest(context.Background(), "to@example.com", "smtp.example.com", 587)
	assert.ErrorIs(t, err, ErrMailUnavailable)

	mailer := &fakeMailer{id: "<t1>"}
	n := NewEmailNotifier(true, mailer, "alerts@example.com", time.Second, zap.NewNop())
	id, err := n.SendTest(context.Background(), "to@example.com", "smtp.example.com", 587)
	require.NoError(t, err)
	assert.Equal(t, "<t1>", id)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"to@example.com"}, mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Text, "- SMTP Host: smtp.example.com\n- SMTP Port: 587")
}

func TestEmailNotifier_HungTransportTimesOut(t *testing.T) {
	n := NewEmailNotifier(true, &fakeMailer{block: true}, "alerts@example.com", 50*time.Millisecond, zap.NewNop())

	start := time.Now()
	res := n.SendAlert(context.Background(), testRecipients(), testPatient(), "advice", nil)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, res.Sent)
	assert.Equal(t, models.ReasonSendFailed, res.Reason)
	assert.Contains(t, res.Error, context.DeadlineExceeded.Error())
}
