package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	stderrors "pdf-relay/internal/common/errors"
	"pdf-relay/internal/common/validation"
	"pdf-relay/internal/models"
)

const sessionCookie = "relay_session"

const loginSchema = `{
	"type": "object",
	"properties": {
		"username": {"type": "string", "minLength": 1},
		"password": {"type": "string", "minLength": 1}
	},
	"required": ["username", "password"],
	"additionalProperties": false
}`

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the static credential pair, creates a session and sets the
// signed session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.writeError(w, stderrors.NewValidationFailedError("invalid request body"))
		return
	}

	if msgs, err := validation.CheckJSON(loginSchema, raw); err != nil || len(msgs) > 0 {
		h.writeError(w, stderrors.NewValidationFailedError("username and password are required"))
		return
	}

	var req loginRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.writeError(w, stderrors.NewValidationFailedError("invalid request body"))
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.Auth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.Auth.Password)) == 1
	if !userOK || !passOK {
		h.writeError(w, stderrors.NewUnauthorizedError("invalid credentials"))
		return
	}

	now := time.Now()
	sess := &models.Session{
		Token:     uuid.NewString(),
		Username:  req.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(h.cfg.Auth.SessionTTL) * time.Minute),
	}
	if err := h.sessions.Put(r.Context(), sess); err != nil {
		h.logger.WithError(err).Error("store session", nil)
		h.writeError(w, stderrors.NewInternalError(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signToken(sess.Token, h.cfg.Auth.SessionSecret),
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Logout destroys the session behind the cookie, if any.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookie)
	if err == nil {
		if token, ok := verifyToken(cookie.Value, h.cfg.Auth.SessionSecret); ok {
			if err := h.sessions.Delete(r.Context(), token); err != nil {
				h.logger.WithError(err).Error("destroy session", nil)
				h.writeError(w, stderrors.NewInternalError(err))
				return
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// signToken appends an HMAC-SHA256 signature so a stolen store token cannot
// be replayed without the session secret.
func signToken(token, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return token + "." + hex.EncodeToString(mac.Sum(nil))
}

// verifyToken checks the cookie signature and returns the bare token.
func verifyToken(value, secret string) (string, bool) {
	idx := strings.LastIndex(value, ".")
	if idx <= 0 {
		return "", false
	}
	token, sig := value[:idx], value[idx+1:]

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}
	return token, true
}
