package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/smanilla/mindtrack/internal/models"
	"github.com/smanilla/mindtrack/internal/service"
	"github.com/smanilla/mindtrack/internal/summary"

	"go.uber.org/zap"
)

// AssessmentHandler check-in endpoints of the authenticated user
type AssessmentHandler struct {
	svc     *service.AssessmentService
	maxBody int64
	logger  *zap.Logger
}

func NewAssessmentHandler(svc *service.AssessmentService, maxBody int64, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{svc: svc, maxBody: maxBody, logger: logger}
}

type submitBody struct {
	Answers  []string `json:"answers"`
	Contacts []string `json:"contacts"`
}

// assessmentItem one entry of the caller's history
type assessmentItem struct {
	ID                 string    `json:"id"`
	Summary            string    `json:"summary"`
	DescriptiveSummary string    `json:"descriptiveSummary"`
	Crisis             bool      `json:"crisis"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Start GET /start
func (h *AssessmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"questions": summary.QuestionList()})
}

// Submit POST /submit
func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var body submitBody
	if err := readBodyJSON(r, h.maxBody, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Please provide 10 answers.")
		return
	}

	res, err := h.svc.Submit(r.Context(), service.SubmitRequest{
		UserID:   user.ID,
		Answers:  body.Answers,
		Contacts: body.Contacts,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidAnswers) {
			writeError(w, http.StatusBadRequest, "Please provide 10 answers.")
			return
		}
		h.logger.Error("Assessment submit failed", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to process assessment")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Mine GET /mine
func (h *AssessmentHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	items, err := h.svc.ListMine(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Assessment list failed", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch assessments")
		return
	}

	out := make([]assessmentItem, 0, len(items))
	for _, a := range items {
		out = append(out, toItem(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// Export GET /mine/export
func (h *AssessmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	items, err := h.svc.ListMine(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Assessment export failed", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch assessments")
		return
	}

	data, err := GenerateAssessmentExport(items)
	if err != nil {
		h.logger.Error("Failed to generate assessment export", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=mindtrack-assessments.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func toItem(a *models.Assessment) assessmentItem {
	return assessmentItem{
		ID:                 a.ID,
		Summary:            a.Summary,
		DescriptiveSummary: a.DescriptiveSummary,
		Crisis:             a.Crisis,
		CreatedAt:          a.CreatedAt,
	}
}
