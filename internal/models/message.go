package models

// RenderedDocument is the PDF payload produced by the document assembler,
// either generated from form fields or decorated from an uploaded PDF.
type RenderedDocument struct {
	Filename  string `json:"filename"`
	PageCount int    `json:"pageCount"`
	Data      []byte `json:"-"`
}

// Attachment is one file attached to the outbound message.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// OutboundMessage is the composed mail handed to the transport.
type OutboundMessage struct {
	FromName    string       `json:"fromName"`
	FromAddress string       `json:"fromAddress"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	IsHTML      bool         `json:"isHtml"`
	Attachments []Attachment `json:"attachments"`
}

// From renders the RFC 5322 From header value, quoting the display name.
func (m *OutboundMessage) From() string {
	if m.FromName == "" {
		return m.FromAddress
	}
	return "\"" + m.FromName + "\" <" + m.FromAddress + ">"
}
