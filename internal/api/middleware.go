package api

import (
	"net/http"
	"time"

	stderrors "pdf-relay/internal/common/errors"
	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/session"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request through the structured logger.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request", map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sw.status,
				"duration": time.Since(start).Round(time.Millisecond).String(),
			})
		})
	}
}

// SessionGate rejects requests without a live session when auth is enabled.
func (h *Handler) SessionGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.cfg.Auth.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			h.writeError(w, stderrors.NewUnauthorizedError("missing session cookie"))
			return
		}
		token, ok := verifyToken(cookie.Value, h.cfg.Auth.SessionSecret)
		if !ok {
			h.writeError(w, stderrors.NewUnauthorizedError("invalid session cookie"))
			return
		}
		if _, err := h.sessions.Get(r.Context(), token); err != nil {
			if err == session.ErrNotFound {
				h.writeError(w, stderrors.NewUnauthorizedError("session expired"))
				return
			}
			h.writeError(w, stderrors.NewInternalError(err))
			return
		}

		next.ServeHTTP(w, r)
	})
}
