package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smanilla/mindtrack/internal/evaluator"
	"github.com/smanilla/mindtrack/internal/events"
	"github.com/smanilla/mindtrack/internal/metrics"
	"github.com/smanilla/mindtrack/internal/models"
	"github.com/smanilla/mindtrack/internal/notifier"
	"github.com/smanilla/mindtrack/internal/repository"
	"github.com/smanilla/mindtrack/internal/summary"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidAnswers the submission does not carry one answer per question.
	ErrInvalidAnswers = fmt.Errorf("please provide %d answers", summary.QuestionCount)
	// ErrPatientNotFound the requested patient does not exist.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrNotAssigned the caller is not the patient's assigned doctor.
	ErrNotAssigned = errors.New("patient is not assigned to this doctor")
)

// doctorHistoryLimit caps the doctor view of a patient's history.
const doctorHistoryLimit = 100

// Summarizer produces the two summaries; it never fails.
type Summarizer interface {
	Summarize(ctx context.Context, answers []string) summary.Result
}

// Notifier fans a red alert out to every channel; it never fails.
type Notifier interface {
	Notify(ctx context.Context, req notifier.AlertRequest) models.NotificationResult
}

// SubmitRequest one check-in from an authenticated user
type SubmitRequest struct {
	UserID   string
	Answers  []string
	Contacts []string
}

// SubmitResult response of a stored submission. Notifications is only set
// when the submission was flagged as a crisis.
type SubmitResult struct {
	ID                 string                     `json:"id"`
	Summary            string                     `json:"summary"`
	DescriptiveSummary string                     `json:"descriptiveSummary"`
	AdviceSummary      string                     `json:"adviceSummary"`
	Crisis             bool                       `json:"crisis"`
	Notifications      *models.NotificationResult `json:"notifications,omitempty"`
	CreatedAt          time.Time                  `json:"createdAt"`
}

// AssessmentService runs a submission through classify, summarize, persist
// and, for crises, notify.
type AssessmentService struct {
	assessments   repository.AssessmentsRepository
	users         repository.UsersRepository
	summarizer    Summarizer
	notifier      Notifier
	events        events.Publisher
	metrics       *metrics.Collector
	notifyTimeout time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

func NewAssessmentService(
	assessments repository.AssessmentsRepository,
	users repository.UsersRepository,
	summarizer Summarizer,
	notifier Notifier,
	publisher events.Publisher,
	collector *metrics.Collector,
	notifyTimeout time.Duration,
	logger *zap.Logger,
) *AssessmentService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &AssessmentService{
		assessments:   assessments,
		users:         users,
		summarizer:    summarizer,
		notifier:      notifier,
		events:        publisher,
		metrics:       collector,
		notifyTimeout: notifyTimeout,
		now:           time.Now,
		logger:        logger,
	}
}

// Submit validates, classifies, summarizes and stores one check-in. Only
// validation and persistence failures are returned; notification problems
// are reported inside the result.
func (s *AssessmentService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if len(req.Answers) != summary.QuestionCount {
		return nil, ErrInvalidAnswers
	}

	crisis := evaluator.IsCrisis(evaluator.JoinAnswers(req.Answers))
	sum := s.summarizer.Summarize(ctx, req.Answers)
	s.metrics.ObserveSummaryTier(sum.Tier)

	a := &models.Assessment{
		ID:                 uuid.NewString(),
		UserID:             req.UserID,
		Answers:            append([]string(nil), req.Answers...),
		Summary:            models.LegacySummary(sum.Descriptive, sum.Advice),
		DescriptiveSummary: sum.Descriptive,
		AdviceSummary:      sum.Advice,
		Crisis:             crisis,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.assessments.CreateAssessment(ctx, a); err != nil {
		return nil, fmt.Errorf("persist assessment: %w", err)
	}
	s.metrics.ObserveAssessment(crisis)

	s.logger.Info("Assessment stored",
		zap.String("assessment_id", a.ID),
		zap.String("user_id", a.UserID),
		zap.Bool("crisis", crisis),
		zap.String("summary_tier", sum.Tier),
	)

	res := &SubmitResult{
		ID:                 a.ID,
		Summary:            a.Summary,
		DescriptiveSummary: a.DescriptiveSummary,
		AdviceSummary:      a.AdviceSummary,
		Crisis:             a.Crisis,
		CreatedAt:          a.CreatedAt,
	}
	if !crisis {
		return res, nil
	}

	notifications, patient := s.alert(ctx, a, req.Contacts)
	res.Notifications = &notifications
	s.publish(ctx, a, patient, &notifications)
	return res, nil
}

// alert runs the notification fan-out detached from the request's
// cancellation so a client disconnect cannot abort calls in flight.
func (s *AssessmentService) alert(ctx context.Context, a *models.Assessment, extra []string) (models.NotificationResult, *models.User) {
	s.logger.Warn("RED ALERT: crisis detected in assessment",
		zap.String("assessment_id", a.ID),
		zap.String("user_id", a.UserID),
	)

	notifyCtx := context.WithoutCancel(ctx)
	if s.notifyTimeout > 0 {
		var cancel context.CancelFunc
		notifyCtx, cancel = context.WithTimeout(notifyCtx, s.notifyTimeout)
		defer cancel()
	}

	patient, err := s.users.GetUser(notifyCtx, a.UserID)
	if err != nil {
		s.logger.Error("Failed to load patient for red alert, notifying without contacts",
			zap.String("user_id", a.UserID),
			zap.Error(err),
		)
		patient = &models.User{ID: a.UserID}
	}

	result := s.notifier.Notify(notifyCtx, notifier.AlertRequest{
		Patient:     patient,
		Advice:      a.AdviceSummary,
		Answers:     a.Answers,
		ExtraEmails: extra,
	})
	return result, patient
}

func (s *AssessmentService) publish(ctx context.Context, a *models.Assessment, patient *models.User, n *models.NotificationResult) {
	ev := events.RedAlertEvent{
		AssessmentID:  a.ID,
		UserID:        a.UserID,
		PatientName:   patient.Name,
		Notifications: n,
		CreatedAt:     a.CreatedAt,
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.Warn("Failed to publish red alert event",
			zap.String("assessment_id", a.ID),
			zap.Error(err),
		)
	}
}

// ListMine returns the user's assessments, newest first.
func (s *AssessmentService) ListMine(ctx context.Context, userID string) ([]*models.Assessment, error) {
	return s.assessments.ListAssessmentsByUser(ctx, userID, 0)
}

// ListForDoctor returns a patient's recent assessments when doctor is the
// patient's assigned doctor.
func (s *AssessmentService) ListForDoctor(ctx context.Context, doctor *models.User, patientID string) ([]*models.Assessment, error) {
	patient, err := s.users.GetUser(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if doctor == nil || patient.DoctorID != doctor.ID {
		return nil, ErrNotAssigned
	}
	return s.assessments.ListAssessmentsByUser(ctx, patientID, doctorHistoryLimit)
}
