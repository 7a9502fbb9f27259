// Package validation holds small input checks shared across the service.
package validation

import (
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether the address looks deliverable. Transports check
// sender and recipient before attempting a send.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// CheckJSON validates a raw JSON document against a schema and returns the
// per-field error messages, empty when the document is valid.
func CheckJSON(schema string, document []byte) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	messages := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		messages = append(messages, e.String())
	}
	return messages, nil
}
