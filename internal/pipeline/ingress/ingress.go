// Package ingress parses a multipart request into a Submission and classifies
// every uploaded part exactly once.
package ingress

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	stderrors "pdf-relay/internal/common/errors"
	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/models"
)

type Parser struct {
	maxUploadBytes int64
	logger         logger.Logger
}

func NewParser(maxUploadBytes int64, log logger.Logger) *Parser {
	return &Parser{
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

// Parse consumes the request body part by part, preserving field order.
// The body is capped at the configured limit before any parsing happens;
// crossing it surfaces as PAYLOAD_TOO_LARGE.
func (p *Parser) Parse(r *http.Request) (*models.Submission, error) {
	if r.ContentLength > p.maxUploadBytes {
		return nil, stderrors.NewPayloadTooLargeError(p.maxUploadBytes)
	}
	r.Body = http.MaxBytesReader(nil, r.Body, p.maxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, stderrors.NewValidationFailedError("request body is not multipart/form-data")
	}

	sub := models.NewSubmission()
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, p.readError(err)
		}

		if part.FileName() == "" {
			value, err := io.ReadAll(part)
			if err != nil {
				return nil, p.readError(err)
			}
			sub.SetField(part.FormName(), string(value))
			continue
		}

		data, err := io.ReadAll(part)
		if err != nil {
			return nil, p.readError(err)
		}

		mediaType := part.Header.Get("Content-Type")
		if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
			mediaType = parsed
		}

		filePart := models.FilePart{
			FieldName: part.FormName(),
			Filename:  part.FileName(),
			MediaType: mediaType,
			Size:      int64(len(data)),
			Data:      data,
			Kind:      classify(part.FileName(), mediaType, part.FormName()),
		}
		sub.Files = append(sub.Files, filePart)

		p.logger.Debug("classified file part", map[string]interface{}{
			"field":     filePart.FieldName,
			"filename":  filePart.Filename,
			"mediaType": filePart.MediaType,
			"kind":      string(filePart.Kind),
			"size":      filePart.Size,
		})
	}

	return sub, nil
}

func (p *Parser) readError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return stderrors.NewPayloadTooLargeError(p.maxUploadBytes)
	}
	return stderrors.NewValidationFailedError("malformed multipart body: " + err.Error())
}

// classify tags a part: PDF by filename suffix, image by declared media type
// or the photo field-name convention, everything else unknown and ignored
// downstream.
func classify(filename, mediaType, fieldName string) models.PartKind {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return models.PartPDF
	}
	if strings.HasPrefix(mediaType, "image/") || strings.HasPrefix(fieldName, "photo") {
		return models.PartImage
	}
	return models.PartUnknown
}
