// Package api wires the HTTP surface: the relay endpoint, the optional
// login/logout pair and operational endpoints.
package api

import (
	"encoding/json"
	"net/http"

	"pdf-relay/internal/common/config"
	stderrors "pdf-relay/internal/common/errors"
	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/pipeline"
	"pdf-relay/internal/session"
)

type Handler struct {
	cfg      *config.Config
	pipe     *pipeline.Pipeline
	sessions session.Store
	logger   logger.Logger
}

func NewHandler(cfg *config.Config, pipe *pipeline.Pipeline, sessions session.Store, log logger.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		pipe:     pipe,
		sessions: sessions,
		logger:   log,
	}
}

// SendPDF runs the submission pipeline. Success answers with the plain
// confirmation body; failures answer with a JSON envelope carrying only the
// generic client-safe message.
func (h *Handler) SendPDF(w http.ResponseWriter, r *http.Request) {
	if err := h.pipe.Process(r.Context(), r); err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Email sent successfully"))
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, stderrors.HTTPStatus(err), map[string]interface{}{
		"success": false,
		"error":   stderrors.ClientMessage(err),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Warn("write response", nil)
	}
}
