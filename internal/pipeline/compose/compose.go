// Package compose builds the outbound message for a submission: resolved
// sender display name, fixed recipient, subject, filtered body and the
// attachment list.
package compose

import (
	"strings"

	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/models"
)

const (
	// DefaultDisplayName is used when neither company field resolves.
	DefaultDisplayName = "Unknown Company"

	// DefaultSubject is used when no driver name is present.
	DefaultSubject = "New Form Submission"
)

// bodyField pairs a display label with its form field and optional fallback.
// The order here is the order lines appear in the message body.
type bodyField struct {
	Label    string
	Primary  string
	Fallback string
}

var bodyFields = []bodyField{
	{Label: "Trip Phase", Primary: "trip_phase", Fallback: "trip_status"},
	{Label: "Vehicle", Primary: "vehicle"},
	{Label: "Odometer", Primary: "odometer"},
	{Label: "Department", Primary: "ake_department", Fallback: "other_department"},
	{Label: "Reason", Primary: "reason_of_trip"},
	{Label: "Date", Primary: "date_field"},
	{Label: "Driver Name", Primary: "driver_name"},
}

// DisplayName resolves the sender display name. "Other" redirects to the
// free-text otherCompany field; blank values fall through to the default.
func DisplayName(sub *models.Submission) string {
	company := sub.TrimmedField("company")
	if company == "Other" {
		if other := sub.TrimmedField("otherCompany"); other != "" {
			return other
		}
	}
	if company != "" {
		return company
	}
	return DefaultDisplayName
}

// Composer builds OutboundMessages against the fixed service mailbox and
// recipient from configuration.
type Composer struct {
	fromAddress string
	receiver    string
	logger      logger.Logger
}

func NewComposer(fromAddress, receiver string, log logger.Logger) *Composer {
	return &Composer{
		fromAddress: fromAddress,
		receiver:    receiver,
		logger:      log,
	}
}

// Compose assembles the message. An empty body (no fields resolved) is a
// valid outcome, not an error. Attachment order is the rendered document
// first, then the given images with their original filenames.
func (c *Composer) Compose(sub *models.Submission, doc *models.RenderedDocument, images []models.FilePart) *models.OutboundMessage {
	msg := &models.OutboundMessage{
		FromName:    DisplayName(sub),
		FromAddress: c.fromAddress,
		To:          c.receiver,
		Subject:     subject(sub),
		Body:        body(sub),
	}

	msg.Attachments = append(msg.Attachments, models.Attachment{
		Filename:    doc.Filename,
		ContentType: "application/pdf",
		Data:        doc.Data,
	})
	for _, img := range images {
		contentType := img.MediaType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		msg.Attachments = append(msg.Attachments, models.Attachment{
			Filename:    img.Filename,
			ContentType: contentType,
			Data:        img.Data,
		})
	}

	c.logger.Debug("composed message", map[string]interface{}{
		"from":        msg.From(),
		"subject":     msg.Subject,
		"bodyLines":   strings.Count(msg.Body, "\n") + 1,
		"attachments": len(msg.Attachments),
	})

	return msg
}

func subject(sub *models.Submission) string {
	if driver := sub.TrimmedField("driver_name"); driver != "" {
		return driver
	}
	return DefaultSubject
}

// body renders one "Label: value" line per resolved field, in the fixed
// label order, skipping anything blank after trimming.
func body(sub *models.Submission) string {
	var lines []string
	for _, bf := range bodyFields {
		value := sub.TrimmedField(bf.Primary)
		if value == "" && bf.Fallback != "" {
			value = sub.TrimmedField(bf.Fallback)
		}
		if value == "" {
			continue
		}
		lines = append(lines, bf.Label+": "+value)
	}
	return strings.Join(lines, "\n")
}
