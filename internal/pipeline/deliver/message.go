package deliver

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"pdf-relay/internal/common/validation"
	"pdf-relay/internal/models"
)

// buildMIME renders the message as a multipart/mixed MIME payload: one text
// part followed by base64-encoded attachments. Both transports share it so
// SMTP and SES deliveries are byte-compatible.
func buildMIME(msg *models.OutboundMessage, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader(&buf, "From", msg.From())
	writeHeader(&buf, "To", msg.To)
	writeHeader(&buf, "Subject", msg.Subject)
	writeHeader(&buf, "Date", now.Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")

	contentType := "text/plain; charset=utf-8"
	if msg.IsHTML {
		contentType = "text/html; charset=utf-8"
	}

	if len(msg.Attachments) == 0 {
		writeHeader(&buf, "Content-Type", contentType)
		writeHeader(&buf, "Content-Transfer-Encoding", "7bit")
		buf.WriteString("\r\n")
		buf.WriteString(msg.Body)
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", writer.Boundary()))
	buf.WriteString("\r\n")

	textHeaders := make(textproto.MIMEHeader)
	textHeaders.Set("Content-Type", contentType)
	textHeaders.Set("Content-Transfer-Encoding", "7bit")
	textPart, err := writer.CreatePart(textHeaders)
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	if _, err := textPart.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("write text part: %w", err)
	}

	for _, att := range msg.Attachments {
		headers := make(textproto.MIMEHeader)
		headers.Set("Content-Type", att.ContentType)
		headers.Set("Content-Transfer-Encoding", "base64")
		headers.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))

		part, err := writer.CreatePart(headers)
		if err != nil {
			return nil, fmt.Errorf("create attachment part %s: %w", att.Filename, err)
		}
		if err := writeBase64(part, att.Data); err != nil {
			return nil, fmt.Errorf("write attachment %s: %w", att.Filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

// writeBase64 wraps encoded output at 76 columns per RFC 2045.
func writeBase64(w interface{ Write([]byte) (int, error) }, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		line := encoded
		if len(line) > 76 {
			line = line[:76]
		}
		if _, err := w.Write([]byte(line + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[len(line):]
	}
	return nil
}

func validAddress(email string) bool {
	return validation.ValidEmail(strings.TrimSpace(email))
}
