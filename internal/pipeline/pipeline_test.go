package pipeline

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "pdf-relay/internal/common/errors"
	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/models"
	"pdf-relay/internal/pipeline/assemble"
	"pdf-relay/internal/pipeline/compose"
	"pdf-relay/internal/pipeline/ingress"
)

type fakeTransport struct {
	calls int
	last  *models.OutboundMessage
	err   error
}

func (f *fakeTransport) Name() string { return "FAKE" }

func (f *fakeTransport) Send(_ context.Context, msg *models.OutboundMessage) error {
	f.calls++
	f.last = msg
	return f.err
}

func newTestPipeline(t *testing.T, opts assemble.Options, transport *fakeTransport, spoolDir string) *Pipeline {
	t.Helper()
	log := logger.NewTestLogger(t)
	return New(Options{
		Parser:          ingress.NewParser(1<<20, log),
		Assembler:       assemble.New(opts, log),
		Composer:        compose.NewComposer("service@example.com", "office@example.com", log),
		Transport:       transport,
		AssembleOptions: opts,
		SpoolDir:        spoolDir,
		Logger:          log,
	})
}

func formRequest(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestProcessGenerateModeSendsMail(t *testing.T) {
	transport := &fakeTransport{}
	spool := t.TempDir()
	pipe := newTestPipeline(t, assemble.Options{Mode: assemble.ModeGenerate}, transport, spool)

	body, contentType := formRequest(t, map[string]string{"driver_name": "Jordan", "vehicle": "AKE-42"})
	req := httptest.NewRequest("POST", "/send-pdf", body)
	req.Header.Set("Content-Type", contentType)

	err := pipe.Process(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, 1, transport.calls)
	require.Len(t, transport.last.Attachments, 1)
	assert.Equal(t, "form.pdf", transport.last.Attachments[0].Filename)
	assert.True(t, bytes.HasPrefix(transport.last.Attachments[0].Data, []byte("%PDF")),
		"attachment must carry the document read back from the spool")
	assert.Equal(t, "Jordan", transport.last.Subject)

	entries, err := os.ReadDir(spool)
	require.NoError(t, err)
	assert.Empty(t, entries, "spooled file must be removed after delivery")
}

func TestProcessDecorateModeRejectsMissingPDF(t *testing.T) {
	transport := &fakeTransport{}
	pipe := newTestPipeline(t, assemble.Options{
		Mode:       assemble.ModeDecorate,
		Decoration: assemble.DecorationText,
		HeaderText: "Trip Report",
	}, transport, "")

	body, contentType := formRequest(t, map[string]string{"driver_name": "Jordan"})
	req := httptest.NewRequest("POST", "/send-pdf", body)
	req.Header.Set("Content-Type", contentType)

	err := pipe.Process(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeValidationFailed, stderrors.CodeOf(err))
	assert.Equal(t, 0, transport.calls, "nothing must be sent for an invalid submission")
}

func TestProcessTransportFailure(t *testing.T) {
	transport := &fakeTransport{err: errors.New("connection refused")}
	spool := t.TempDir()
	pipe := newTestPipeline(t, assemble.Options{Mode: assemble.ModeGenerate}, transport, spool)

	body, contentType := formRequest(t, map[string]string{"vehicle": "AKE-42"})
	req := httptest.NewRequest("POST", "/send-pdf", body)
	req.Header.Set("Content-Type", contentType)

	err := pipe.Process(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeTransportFailed, stderrors.CodeOf(err))

	entries, err := os.ReadDir(spool)
	require.NoError(t, err)
	assert.Empty(t, entries, "spooled file must be removed on the failure path too")
}

func TestProcessUnwritableSpoolDir(t *testing.T) {
	transport := &fakeTransport{}
	pipe := newTestPipeline(t, assemble.Options{Mode: assemble.ModeGenerate}, transport,
		filepath.Join(t.TempDir(), "missing"))

	body, contentType := formRequest(t, map[string]string{"vehicle": "AKE-42"})
	req := httptest.NewRequest("POST", "/send-pdf", body)
	req.Header.Set("Content-Type", contentType)

	err := pipe.Process(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeInternal, stderrors.CodeOf(err))
	assert.Equal(t, 0, transport.calls)
}

func TestProcessRejectsNonMultipart(t *testing.T) {
	transport := &fakeTransport{}
	pipe := newTestPipeline(t, assemble.Options{Mode: assemble.ModeGenerate}, transport, "")

	req := httptest.NewRequest("POST", "/send-pdf", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	err := pipe.Process(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeValidationFailed, stderrors.CodeOf(err))
	assert.Equal(t, 0, transport.calls)
}
