package models

import "strings"

// PartKind tags an uploaded file part with its classification. Parts are
// classified exactly once, in ingress; downstream stages dispatch on the tag
// instead of re-sniffing filenames or media types.
type PartKind string

const (
	PartPDF     PartKind = "pdf"
	PartImage   PartKind = "image"
	PartUnknown PartKind = "unknown"
)

// FilePart is one uploaded file from the multipart form.
type FilePart struct {
	FieldName string   `json:"fieldName"`
	Filename  string   `json:"filename"`
	MediaType string   `json:"mediaType"`
	Size      int64    `json:"size"`
	Kind      PartKind `json:"kind"`
	Data      []byte   `json:"-"`
}

// Field is a single form field. Submissions keep fields in first-seen order
// so generate mode renders them in submission iteration order.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Submission is the parsed form for one request: fields plus classified file
// parts. Nothing outlives the request that produced it.
type Submission struct {
	fields []Field
	byName map[string]string

	Files []FilePart
}

func NewSubmission() *Submission {
	return &Submission{byName: map[string]string{}}
}

// SetField records a field value. The first write fixes the field's position;
// later writes overwrite the value in place.
func (s *Submission) SetField(name, value string) {
	if _, seen := s.byName[name]; !seen {
		s.fields = append(s.fields, Field{Name: name, Value: value})
	} else {
		for i := range s.fields {
			if s.fields[i].Name == name {
				s.fields[i].Value = value
				break
			}
		}
	}
	s.byName[name] = value
}

// Field returns the raw value and whether the field was present at all.
// Absence and empty string are distinct; both count as "not provided" for
// display purposes, which TrimmedField captures.
func (s *Submission) Field(name string) (string, bool) {
	v, ok := s.byName[name]
	return v, ok
}

// TrimmedField returns the whitespace-trimmed value, or "" when the field is
// absent or blank.
func (s *Submission) TrimmedField(name string) string {
	return strings.TrimSpace(s.byName[name])
}

// Fields returns all fields in first-seen order.
func (s *Submission) Fields() []Field {
	return s.fields
}

// PDF returns the first part classified as a PDF, or nil.
func (s *Submission) PDF() *FilePart {
	for i := range s.Files {
		if s.Files[i].Kind == PartPDF {
			return &s.Files[i]
		}
	}
	return nil
}

// Images returns the parts classified as images, in upload order.
func (s *Submission) Images() []FilePart {
	var out []FilePart
	for _, f := range s.Files {
		if f.Kind == PartImage {
			out = append(out, f)
		}
	}
	return out
}

// ImageNamed returns the image part with the given original filename, or nil.
// Decoration assets (header.jpg, footer.jpg) are looked up this way.
func (s *Submission) ImageNamed(filename string) *FilePart {
	for i := range s.Files {
		if s.Files[i].Kind == PartImage && strings.EqualFold(s.Files[i].Filename, filename) {
			return &s.Files[i]
		}
	}
	return nil
}
