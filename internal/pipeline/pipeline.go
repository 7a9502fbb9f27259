// Package pipeline runs the submission-to-delivery flow: ingress, document
// assembly, message composition, delivery. Strictly sequential per request;
// Failed is terminal and nothing is retried.
package pipeline

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	stderrors "pdf-relay/internal/common/errors"
	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/common/metrics"
	"pdf-relay/internal/common/observability"
	"pdf-relay/internal/models"
	"pdf-relay/internal/pipeline/assemble"
	"pdf-relay/internal/pipeline/compose"
	"pdf-relay/internal/pipeline/deliver"
	"pdf-relay/internal/pipeline/ingress"
)

// State tracks a request through the pipeline.
type State string

const (
	StateReceived  State = "received"
	StateValidated State = "validated"
	StateAssembled State = "assembled"
	StateComposed  State = "composed"
	StateSent      State = "sent"
	StateFailed    State = "failed"
)

type Pipeline struct {
	parser    *ingress.Parser
	assembler assemble.Assembler
	composer  *compose.Composer
	transport deliver.Transport

	reqs         ingress.Requirements
	assetFilter  map[string]bool
	spoolDir     string
	obs          *observability.Observability
	logger       logger.Logger
}

type Options struct {
	Parser    *ingress.Parser
	Assembler assemble.Assembler
	Composer  *compose.Composer
	Transport deliver.Transport

	AssembleOptions assemble.Options
	// SpoolDir, when set, writes the rendered document to a temp file and
	// delivers the attachment from that file. The file is removed on every
	// exit path.
	SpoolDir      string
	Observability *observability.Observability
	Logger        logger.Logger
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		parser:      opts.Parser,
		assembler:   opts.Assembler,
		composer:    opts.Composer,
		transport:   opts.Transport,
		reqs:        opts.AssembleOptions.Requirements(),
		assetFilter: map[string]bool{},
		spoolDir:    opts.SpoolDir,
		obs:         opts.Observability,
		logger:      opts.Logger,
	}
	// Decoration assets are consumed by the overlay, not re-attached.
	// Keyed lowercase to match the case-insensitive asset lookup.
	for _, asset := range p.reqs.RequiredAssets {
		p.assetFilter[strings.ToLower(asset)] = true
	}
	return p
}

// Process runs one request through the pipeline and returns the error to map
// to an HTTP response, or nil on success.
func (p *Pipeline) Process(ctx context.Context, r *http.Request) error {
	start := time.Now()
	metrics.SubmissionsReceived.Inc()

	state, err := p.run(ctx, r)

	status := string(StateSent)
	if err != nil {
		status = string(StateFailed)
		code := stderrors.CodeOf(err)
		metrics.SubmissionsFailed.WithLabelValues(string(code)).Inc()
		p.logger.WithError(err).Error("pipeline failed", map[string]interface{}{
			"state":     string(state),
			"errorCode": string(code),
		})
	} else {
		metrics.SubmissionsCompleted.Inc()
	}

	if p.obs != nil {
		p.obs.RecordSubmission(ctx, status)
		p.obs.RecordDuration(ctx, time.Since(start), status)
	}
	return err
}

func (p *Pipeline) run(ctx context.Context, r *http.Request) (State, error) {
	state := StateReceived

	sub, err := p.timedParse(r)
	if err != nil {
		return state, err
	}

	if err := ingress.ValidateSubmission(sub, p.reqs); err != nil {
		return state, err
	}
	state = StateValidated

	doc, err := p.timedAssemble(ctx, sub)
	if err != nil {
		return state, err
	}
	state = StateAssembled
	metrics.AttachmentBytes.Observe(float64(len(doc.Data)))

	if p.spoolDir != "" {
		spooled, err := p.spool(doc)
		if err != nil {
			return state, stderrors.NewInternalError(err)
		}
		defer os.Remove(spooled)

		// The spool file is the delivery source: the attachment that goes
		// out is what was persisted, not the in-memory buffer.
		data, err := os.ReadFile(spooled)
		if err != nil {
			return state, stderrors.NewInternalError(err)
		}
		doc.Data = data
	}

	msg := p.composer.Compose(sub, doc, p.attachableImages(sub))
	state = StateComposed

	sendStart := time.Now()
	err = p.transport.Send(ctx, msg)
	metrics.StageDuration.WithLabelValues("deliver").Observe(time.Since(sendStart).Seconds())
	if err != nil {
		return state, stderrors.NewTransportFailedError(p.transport.Name(), err)
	}

	return StateSent, nil
}

func (p *Pipeline) timedParse(r *http.Request) (*models.Submission, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("ingress").Observe(time.Since(start).Seconds())
	}()
	return p.parser.Parse(r)
}

func (p *Pipeline) timedAssemble(ctx context.Context, sub *models.Submission) (*models.RenderedDocument, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("assemble").Observe(time.Since(start).Seconds())
	}()
	return p.assembler.Assemble(ctx, sub)
}

// attachableImages returns the image parts to attach, skipping decoration
// assets the assembler already consumed.
func (p *Pipeline) attachableImages(sub *models.Submission) []models.FilePart {
	var out []models.FilePart
	for _, img := range sub.Images() {
		if p.assetFilter[strings.ToLower(img.Filename)] {
			continue
		}
		out = append(out, img)
	}
	return out
}

func (p *Pipeline) spool(doc *models.RenderedDocument) (string, error) {
	f, err := os.CreateTemp(p.spoolDir, "form_*.pdf")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(doc.Data); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
