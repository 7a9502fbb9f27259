// test/e2e/e2e_test.go
//
// End-to-end checks against a running relay instance. Skipped unless
// RELAY_E2E_BASE_URL points at one, e.g.
//
//	RELAY_E2E_BASE_URL=http://localhost:3000 go test ./test/e2e/...
//
// The target instance decides whether mail actually leaves the box; these
// tests only assert the HTTP contract.
package e2e

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("RELAY_E2E_BASE_URL")
	if url == "" {
		t.Skip("RELAY_E2E_BASE_URL not set, skipping e2e tests")
	}
	return strings.TrimRight(url, "/")
}

func httpClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 30 * time.Second}
}

func TestHealthz(t *testing.T) {
	resp, err := httpClient(t).Get(baseURL(t) + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	resp, err := httpClient(t).Get(baseURL(t) + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitForm(t *testing.T) {
	url := baseURL(t)
	client := httpClient(t)

	// When the instance runs with auth enabled, log in first.
	if user := os.Getenv("RELAY_E2E_LOGIN_USER"); user != "" {
		creds, err := json.Marshal(map[string]string{
			"username": user,
			"password": os.Getenv("RELAY_E2E_LOGIN_PASS"),
		})
		require.NoError(t, err)

		resp, err := client.Post(url+"/login", "application/json", bytes.NewReader(creds))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("driver_name", "E2E Test"))
	require.NoError(t, w.WriteField("vehicle", "AKE-E2E"))
	require.NoError(t, w.Close())

	resp, err := client.Post(url+"/send-pdf", w.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
