package notifier

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/smanilla/mindtrack/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AlertRequest input of one red alert
type AlertRequest struct {
	Patient     *models.User
	Advice      string
	Answers     []string
	ExtraEmails []string
}

// Outcomes receives per-channel results; implemented by the metrics package.
type Outcomes interface {
	ObserveEmail(res models.EmailResult)
	ObserveCall(res models.CallResult)
}

// Orchestrator fans a red alert out to email and voice concurrently. Each
// branch converts its own failures (including panics) into result values.
type Orchestrator struct {
	resolver        *Resolver
	email           *EmailNotifier
	voice           *VoiceNotifier
	callConcurrency int
	outcomes        Outcomes
	logger          *zap.Logger
}

func NewOrchestrator(resolver *Resolver, email *EmailNotifier, voice *VoiceNotifier, callConcurrency int, outcomes Outcomes, logger *zap.Logger) *Orchestrator {
	if callConcurrency <= 0 {
		callConcurrency = 1
	}
	return &Orchestrator{
		resolver:        resolver,
		email:           email,
		voice:           voice,
		callConcurrency: callConcurrency,
		outcomes:        outcomes,
		logger:          logger,
	}
}

// Notify never fails; every channel outcome is in the returned result.
func (o *Orchestrator) Notify(ctx context.Context, req AlertRequest) models.NotificationResult {
	contacts := o.resolver.Resolve(ctx, req.Patient, req.ExtraEmails)
	o.logger.Info("Red alert notifications start",
		zap.String("patient_id", patientID(req.Patient)),
		zap.Int("phone_count", len(contacts.Phones)),
		zap.Int("email_count", len(contacts.Emails)),
		zap.Bool("mail_enabled", o.email.Enabled()),
		zap.Bool("voice_enabled", o.voice.Enabled()),
	)

	result := models.NotificationResult{
		VoiceCalls: models.VoiceCallsResult{Calls: []models.CallResult{}},
	}

	var g errgroup.Group
	g.Go(func() error {
		result.Emails = o.settleEmail(func() models.EmailResult {
			return o.email.SendAlert(ctx, contacts.Emails, req.Patient, req.Advice, req.Answers)
		})
		if o.outcomes != nil {
			o.outcomes.ObserveEmail(result.Emails)
		}
		return nil
	})
	g.Go(func() error {
		result.VoiceCalls = o.callAll(ctx, contacts.Phones, patientName(req.Patient))
		return nil
	})
	_ = g.Wait()

	o.logger.Info("Red alert notifications end",
		zap.String("patient_id", patientID(req.Patient)),
		zap.Bool("emails_sent", result.Emails.Sent),
		zap.String("emails_reason", result.Emails.Reason),
		zap.Bool("calls_sent", result.VoiceCalls.Sent),
		zap.String("calls_reason", result.VoiceCalls.Reason),
		zap.Int("calls_attempted", len(result.VoiceCalls.Calls)),
	)
	return result
}

func (o *Orchestrator) callAll(ctx context.Context, phones []models.ResolvedContact, name string) models.VoiceCallsResult {
	res := models.VoiceCallsResult{Calls: []models.CallResult{}}

	switch {
	case len(phones) == 0:
		res.Reason = models.ReasonNoPhoneNumbers
		return res
	case !o.voice.Enabled():
		res.Reason = models.ReasonVoiceCallsDisabled
		return res
	case !o.voice.Configured():
		res.Reason = models.ReasonTwilioNotConfigured
		details := o.voice.Details()
		res.Details = &details
		return res
	}

	calls := make([]models.CallResult, len(phones))
	var g errgroup.Group
	g.SetLimit(o.callConcurrency)
	for i, contact := range phones {
		i, contact := i, contact
		g.Go(func() error {
			r := o.settleCall(contact.Phone, func() models.CallResult {
				return o.voice.CallContact(ctx, contact.Phone, name)
			})
			r.Phone = contact.Phone
			r.Name = contact.Name
			r.Type = contact.Type
			r.Relationship = contact.Relationship
			calls[i] = r
			if o.outcomes != nil {
				o.outcomes.ObserveCall(r)
			}
			return nil
		})
	}
	_ = g.Wait()

	res.Calls = calls
	for _, c := range calls {
		if c.Sent {
			res.Sent = true
			break
		}
	}
	return res
}

func (o *Orchestrator) settleEmail(fn func() models.EmailResult) (res models.EmailResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Email branch panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			res = models.EmailResult{Sent: false, Reason: models.ReasonSendFailed, Error: fmt.Sprint(r)}
		}
	}()
	return fn()
}

func (o *Orchestrator) settleCall(phone string, fn func() models.CallResult) (res models.CallResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Voice call panicked", zap.String("phone", phone), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			res = models.CallResult{Phone: phone, Sent: false, Reason: models.ReasonCallFailed, Error: fmt.Sprint(r)}
		}
	}()
	return fn()
}

func patientID(p *models.User) string {
	if p == nil {
		return ""
	}
	return p.ID
}

func patientName(p *models.User) string {
	name, _ := patientIdentity(p)
	return name
}
