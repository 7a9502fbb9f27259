package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-relay/internal/common/config"
	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/models"
	"pdf-relay/internal/pipeline"
	"pdf-relay/internal/pipeline/assemble"
	"pdf-relay/internal/pipeline/compose"
	"pdf-relay/internal/pipeline/ingress"
	"pdf-relay/internal/session"
)

type fakeTransport struct {
	calls int
	err   error
}

func (f *fakeTransport) Name() string { return "FAKE" }

func (f *fakeTransport) Send(_ context.Context, _ *models.OutboundMessage) error {
	f.calls++
	return f.err
}

type harness struct {
	router    http.Handler
	transport *fakeTransport
	cfg       *config.Config
}

func newHarness(t *testing.T, authEnabled bool, transportErr error) *harness {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.MaxUploadBytes = 1 << 20
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Auth.Enabled = authEnabled
	cfg.Auth.Username = "admin"
	cfg.Auth.Password = "secret"
	cfg.Auth.SessionSecret = "test-session-secret"
	cfg.Auth.SessionTTL = 60

	log := logger.NewTestLogger(t)
	transport := &fakeTransport{err: transportErr}
	opts := assemble.Options{Mode: assemble.ModeGenerate}

	pipe := pipeline.New(pipeline.Options{
		Parser:          ingress.NewParser(cfg.Server.MaxUploadBytes, log),
		Assembler:       assemble.New(opts, log),
		Composer:        compose.NewComposer("service@example.com", "office@example.com", log),
		Transport:       transport,
		AssembleOptions: opts,
		Logger:          log,
	})

	h := NewHandler(cfg, pipe, session.NewMemoryStore(), log)
	return &harness{
		router:    NewRouter(h, log),
		transport: transport,
		cfg:       cfg,
	}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"username":"admin","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, false, nil)
	rec := h.do(httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSendPDFWithoutAuth(t *testing.T) {
	h := newHarness(t, false, nil)

	body, contentType := multipartBody(t, map[string]string{"driver_name": "Jordan"})
	req := httptest.NewRequest("POST", "/send-pdf", body)
	req.Header.Set("Content-Type", contentType)

	rec := h.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email sent successfully", rec.Body.String())
	assert.Equal(t, 1, h.transport.calls)
}

func TestSendPDFTransportFailure(t *testing.T) {
	h := newHarness(t, false, errors.New("connection refused"))

	body, contentType := multipartBody(t, map[string]string{"driver_name": "Jordan"})
	req := httptest.NewRequest("POST", "/send-pdf", body)
	req.Header.Set("Content-Type", contentType)

	rec := h.do(req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Failed to send email", resp["error"])
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestSendPDFInvalidBody(t *testing.T) {
	h := newHarness(t, false, nil)

	req := httptest.NewRequest("POST", "/send-pdf", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	rec := h.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, h.transport.calls)
}

func TestSessionGateBlocksAnonymous(t *testing.T) {
	h := newHarness(t, true, nil)

	body, contentType := multipartBody(t, map[string]string{"driver_name": "Jordan"})
	req := httptest.NewRequest("POST", "/send-pdf", body)
	req.Header.Set("Content-Type", contentType)

	rec := h.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, h.transport.calls)
}

func TestLoginAndSend(t *testing.T) {
	h := newHarness(t, true, nil)
	cookie := h.login(t)

	body, contentType := multipartBody(t, map[string]string{"driver_name": "Jordan"})
	req := httptest.NewRequest("POST", "/send-pdf", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)

	rec := h.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.transport.calls)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t, true, nil)

	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := h.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	h := newHarness(t, true, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing password", `{"username":"admin"}`},
		{"extra field", `{"username":"admin","password":"secret","role":"root"}`},
		{"empty username", `{"username":"","password":"secret"}`},
		{"not json", `username=admin`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := h.do(req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTamperedCookieRejected(t *testing.T) {
	h := newHarness(t, true, nil)
	cookie := h.login(t)
	cookie.Value = cookie.Value[:len(cookie.Value)-2] + "xx"

	body, contentType := multipartBody(t, map[string]string{"driver_name": "Jordan"})
	req := httptest.NewRequest("POST", "/send-pdf", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)

	rec := h.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, h.transport.calls)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	h := newHarness(t, true, nil)
	cookie := h.login(t)

	logoutReq := httptest.NewRequest("POST", "/logout", nil)
	logoutReq.AddCookie(cookie)
	rec := h.do(logoutReq)
	require.Equal(t, http.StatusOK, rec.Code)

	body, contentType := multipartBody(t, map[string]string{"driver_name": "Jordan"})
	req := httptest.NewRequest("POST", "/send-pdf", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)

	rec = h.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignAndVerifyToken(t *testing.T) {
	signed := signToken("token-123", "secret")

	token, ok := verifyToken(signed, "secret")
	assert.True(t, ok)
	assert.Equal(t, "token-123", token)

	_, ok = verifyToken(signed, "other-secret")
	assert.False(t, ok)

	_, ok = verifyToken("no-signature", "secret")
	assert.False(t, ok)
}
