// Package assemble produces the RenderedDocument for a submission. The two
// modes are mutually exclusive per deployment: generate builds a fresh PDF
// from form fields, decorate overlays header/footer content onto an uploaded
// one.
package assemble

import (
	"context"

	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/models"
	"pdf-relay/internal/pipeline/ingress"
)

const (
	ModeGenerate = "generate"
	ModeDecorate = "decorate"

	DecorationText  = "text"
	DecorationImage = "image"
	DecorationBoth  = "both"

	HeaderAsset = "header.jpg"
	FooterAsset = "footer.jpg"
)

// Assembler renders the PDF attachment for one submission.
type Assembler interface {
	Assemble(ctx context.Context, sub *models.Submission) (*models.RenderedDocument, error)
}

// Options selects the assembler variant for this deployment.
type Options struct {
	Mode       string
	Decoration string
	HeaderText string
	FooterText string
}

// Requirements reports what ingress must verify before assembly runs.
func (o Options) Requirements() ingress.Requirements {
	req := ingress.Requirements{}
	if o.Mode != ModeDecorate {
		return req
	}
	req.RequirePDF = true
	if o.Decoration == DecorationImage || o.Decoration == DecorationBoth {
		req.RequiredAssets = []string{HeaderAsset, FooterAsset}
	}
	return req
}

// New returns the assembler for the configured mode.
func New(opts Options, log logger.Logger) Assembler {
	if opts.Mode == ModeDecorate {
		return NewDecorator(opts, log)
	}
	return NewGenerator(log)
}
