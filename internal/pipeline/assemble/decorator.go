package assemble

import (
	"bytes"
	"context"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	stderrors "pdf-relay/internal/common/errors"
	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/models"
)

// Overlay placement descriptors. pdfcpu anchors stamps against each page's
// own media box, so pages of different sizes each get correctly positioned
// overlays. Relative scale 1.0 stretches images to full page width.
const (
	headerTextDesc  = "pos:tc, off:0 -20, scale:1 abs, rot:0"
	footerTextDesc  = "pos:bc, off:0 20, scale:1 abs, rot:0"
	headerImageDesc = "pos:tc, scale:1.0 rel, rot:0"
	footerImageDesc = "pos:bc, scale:1.0 rel, rot:0"
)

// Decorator loads the caller-supplied PDF and stamps every page with the
// configured header/footer text and/or the uploaded header/footer images.
type Decorator struct {
	opts   Options
	logger logger.Logger
}

func NewDecorator(opts Options, log logger.Logger) *Decorator {
	return &Decorator{opts: opts, logger: log}
}

// newWriteConfiguration disables object streams so the write timestamps land
// in fixed-width plaintext fields. Identical inputs then decorate to outputs
// of equal byte length.
func newWriteConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	return conf
}

func (d *Decorator) Assemble(ctx context.Context, sub *models.Submission) (*models.RenderedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, stderrors.NewInternalError(err)
	}

	pdfPart := sub.PDF()
	if pdfPart == nil {
		// Ingress validates presence; this guards direct callers.
		return nil, stderrors.NewValidationFailedError("no PDF file part in submission")
	}

	conf := newWriteConfiguration()

	rs := bytes.NewReader(pdfPart.Data)
	if err := api.Validate(rs, conf); err != nil {
		return nil, stderrors.NewDocumentLoadFailedError(err)
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, stderrors.NewInternalError(err)
	}
	pageCount, err := api.PageCount(rs, conf)
	if err != nil {
		return nil, stderrors.NewDocumentLoadFailedError(err)
	}

	overlays, err := d.buildOverlays(sub)
	if err != nil {
		return nil, err
	}

	current := pdfPart.Data
	for _, wm := range overlays {
		var out bytes.Buffer
		if err := api.AddWatermarks(bytes.NewReader(current), &out, nil, wm, conf); err != nil {
			return nil, stderrors.NewInternalError(err)
		}
		current = out.Bytes()
	}

	doc := &models.RenderedDocument{
		Filename:  pdfPart.Filename,
		PageCount: pageCount,
		Data:      current,
	}

	d.logger.Info("decorated document", map[string]interface{}{
		"filename":   doc.Filename,
		"pages":      doc.PageCount,
		"overlays":   len(overlays),
		"decoration": d.opts.Decoration,
	})

	return doc, nil
}

// buildOverlays assembles the stamp list for the configured decoration. Asset
// presence was validated in ingress; a missing asset here is still reported
// as ASSET_MISSING rather than a nil dereference.
func (d *Decorator) buildOverlays(sub *models.Submission) ([]*model.Watermark, error) {
	var overlays []*model.Watermark

	withText := d.opts.Decoration == DecorationText || d.opts.Decoration == DecorationBoth
	withImages := d.opts.Decoration == DecorationImage || d.opts.Decoration == DecorationBoth

	if withText {
		if d.opts.HeaderText != "" {
			wm, err := api.TextWatermark(d.opts.HeaderText, headerTextDesc, true, false, types.POINTS)
			if err != nil {
				return nil, stderrors.NewInternalError(err)
			}
			overlays = append(overlays, wm)
		}
		if d.opts.FooterText != "" {
			wm, err := api.TextWatermark(d.opts.FooterText, footerTextDesc, true, false, types.POINTS)
			if err != nil {
				return nil, stderrors.NewInternalError(err)
			}
			overlays = append(overlays, wm)
		}
	}

	if withImages {
		for _, asset := range []struct {
			name string
			desc string
		}{
			{HeaderAsset, headerImageDesc},
			{FooterAsset, footerImageDesc},
		} {
			part := sub.ImageNamed(asset.name)
			if part == nil {
				return nil, stderrors.NewAssetMissingError(asset.name)
			}
			wm, err := api.ImageWatermarkForReader(bytes.NewReader(part.Data), asset.desc, true, false, types.POINTS)
			if err != nil {
				return nil, stderrors.NewInternalError(err)
			}
			overlays = append(overlays, wm)
		}
	}

	return overlays, nil
}
