package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/smanilla/mindtrack/internal/notifier"
	"github.com/smanilla/mindtrack/internal/store"

	"go.uber.org/zap"
)

const callStatusSaveTimeout = 5 * time.Second

// VoiceHandler endpoints called by the telephony provider, plus the
// operator lookup of tracked calls.
type VoiceHandler struct {
	script notifier.VoiceScript
	calls  *store.CallStatusStore
	logger *zap.Logger
}

func NewVoiceHandler(script notifier.VoiceScript, calls *store.CallStatusStore, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{script: script, calls: calls, logger: logger}
}

// VoiceMessage GET|POST /voice-message?patientName=
func (h *VoiceHandler) VoiceMessage(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("patientName")
	body, err := h.script.Render(name)
	if err != nil {
		h.logger.Error("Failed to render voice script", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// CallStatus POST /call-status. The provider gets its 200 before the update
// is logged and stored.
func (h *VoiceHandler) CallStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Malformed call status callback", zap.Error(err))
	}
	st := callStatusFromForm(r)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))

	ctx := context.WithoutCancel(r.Context())
	go h.record(ctx, st)
}

func (h *VoiceHandler) record(ctx context.Context, st store.CallStatus) {
	fields := []zap.Field{
		zap.String("call_sid", st.CallSid),
		zap.String("status", st.Status),
		zap.Int("sequence", st.SequenceNumber),
		zap.String("to", st.To),
		zap.String("duration", st.Duration),
	}
	switch st.Status {
	case "no-answer", "busy", "failed", "canceled":
		h.logger.Warn("Red alert call did not connect", append(fields,
			zap.String("error_code", st.ErrorCode),
			zap.String("error_message", st.ErrorMessage),
		)...)
	default:
		h.logger.Info("Red alert call status", fields...)
	}

	if st.CallSid == "" || h.calls == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, callStatusSaveTimeout)
	defer cancel()
	if _, applied, err := h.calls.Save(ctx, st); err != nil {
		h.logger.Error("Failed to store call status", zap.String("call_sid", st.CallSid), zap.Error(err))
	} else if !applied {
		h.logger.Debug("Ignored out-of-order call status", zap.String("call_sid", st.CallSid), zap.Int("sequence", st.SequenceNumber))
	}
}

// GetCall GET /calls/{sid}
func (h *VoiceHandler) GetCall(w http.ResponseWriter, r *http.Request, sid string) {
	if h.calls == nil {
		writeError(w, http.StatusNotFound, "Call not found")
		return
	}
	st, err := h.calls.Get(r.Context(), sid)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			writeError(w, http.StatusNotFound, "Call not found")
			return
		}
		h.logger.Error("Failed to load call status", zap.String("call_sid", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load call status")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func callStatusFromForm(r *http.Request) store.CallStatus {
	f := r.PostForm
	seq, err := strconv.Atoi(strings.TrimSpace(f.Get("SequenceNumber")))
	if err != nil {
		seq = 0
	}
	status := f.Get("CallStatus")
	if status == "" {
		status = "unknown"
	}
	return store.CallStatus{
		CallSid:        f.Get("CallSid"),
		Status:         status,
		To:             f.Get("To"),
		From:           f.Get("From"),
		Direction:      f.Get("Direction"),
		Duration:       f.Get("CallDuration"),
		SequenceNumber: seq,
		ErrorCode:      f.Get("ErrorCode"),
		ErrorMessage:   f.Get("ErrorMessage"),
	}
}
