package httpapi

import (
	"errors"
	"net/http"

	"github.com/smanilla/mindtrack/internal/models"
	"github.com/smanilla/mindtrack/internal/service"

	"go.uber.org/zap"
)

// DoctorHandler read access of doctors to their assigned patients
type DoctorHandler struct {
	svc    *service.AssessmentService
	logger *zap.Logger
}

func NewDoctorHandler(svc *service.AssessmentService, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{svc: svc, logger: logger}
}

// PatientAssessments GET /api/doctor/patients/{patientId}/assessments
func (h *DoctorHandler) PatientAssessments(w http.ResponseWriter, r *http.Request, patientID string) {
	user := userFromContext(r.Context())
	if user.Role != models.RoleDoctor {
		writeError(w, http.StatusForbidden, "Doctor access required")
		return
	}

	items, err := h.svc.ListForDoctor(r.Context(), user, patientID)
	switch {
	case errors.Is(err, service.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	case errors.Is(err, service.ErrNotAssigned):
		writeError(w, http.StatusForbidden, "Patient is not assigned to you")
		return
	case err != nil:
		h.logger.Error("Doctor assessment list failed",
			zap.String("doctor_id", user.ID),
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to fetch assessments")
		return
	}
	writeJSON(w, http.StatusOK, items)
}
