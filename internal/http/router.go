package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	assessmentPrefix = "/api/ai-assessment"
	doctorPrefix     = "/api/doctor/patients/"
)

// Router http.ServeMux with per-route method checks
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler registers an http.Handler (metrics exporter).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			methodNotAllowed(w)
			return
		}
		h(w, req)
	}
}

// RegisterAssessmentRoutes mounts the check-in API. voice-message and
// call-status are public: the telephony provider cannot authenticate.
func (r *Router) RegisterAssessmentRoutes(auth *Auth, a *AssessmentHandler, v *VoiceHandler, d *DiagnosticsHandler) {
	r.Handle(assessmentPrefix+"/start", only(http.MethodGet, auth.Require(a.Start)))
	r.Handle(assessmentPrefix+"/submit", only(http.MethodPost, auth.Require(a.Submit)))
	r.Handle(assessmentPrefix+"/mine", only(http.MethodGet, auth.Require(a.Mine)))
	r.Handle(assessmentPrefix+"/mine/export", only(http.MethodGet, auth.Require(a.Export)))

	r.Handle(assessmentPrefix+"/voice-message", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		v.VoiceMessage(w, req)
	})
	r.Handle(assessmentPrefix+"/call-status", only(http.MethodPost, v.CallStatus))
	r.Handle(assessmentPrefix+"/calls/", only(http.MethodGet, auth.Require(func(w http.ResponseWriter, req *http.Request) {
		sid := strings.TrimPrefix(req.URL.Path, assessmentPrefix+"/calls/")
		if sid == "" || strings.Contains(sid, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		v.GetCall(w, req, sid)
	})))

	r.Handle(assessmentPrefix+"/config-check", only(http.MethodGet, auth.Require(d.ConfigCheck)))
	r.Handle(assessmentPrefix+"/test-email", only(http.MethodPost, auth.Require(d.TestEmail)))
}

// RegisterDoctorRoutes mounts /api/doctor/patients/{patientId}/assessments.
func (r *Router) RegisterDoctorRoutes(auth *Auth, h *DoctorHandler) {
	r.Handle(doctorPrefix, only(http.MethodGet, auth.Require(func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, doctorPrefix)
		patientID, tail, ok := strings.Cut(rest, "/")
		if !ok || patientID == "" || tail != "assessments" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.PatientAssessments(w, req, patientID)
	})))
}

// RegisterOpsRoutes mounts /healthz and /metrics.
func (r *Router) RegisterOpsRoutes(metrics http.Handler) {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.HandleHandler("/metrics", metrics)
	}
}
