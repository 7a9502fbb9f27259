package assemble

import (
	"bytes"
	"context"

	"github.com/go-pdf/fpdf"

	stderrors "pdf-relay/internal/common/errors"
	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/models"
)

const generatedTitle = "Form Submission Details"

// Generator synthesizes a new PDF: a title, then one "key: value" line per
// field in submission order. Overflow pagination is left to the renderer.
type Generator struct {
	logger logger.Logger
}

func NewGenerator(log logger.Logger) *Generator {
	return &Generator{logger: log}
}

func (g *Generator) Assemble(ctx context.Context, sub *models.Submission) (*models.RenderedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, stderrors.NewInternalError(err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "BU", 18)
	pdf.CellFormat(0, 10, generatedTitle, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	for _, f := range sub.Fields() {
		pdf.MultiCell(0, 7, f.Name+": "+f.Value, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, stderrors.NewInternalError(err)
	}

	doc := &models.RenderedDocument{
		Filename:  "form.pdf",
		PageCount: pdf.PageCount(),
		Data:      buf.Bytes(),
	}

	g.logger.Info("generated document", map[string]interface{}{
		"fields": len(sub.Fields()),
		"pages":  doc.PageCount,
		"bytes":  len(doc.Data),
	})

	return doc, nil
}
