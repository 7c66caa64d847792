package model

import "strings"

// VerificationRequest identifies one license holder to verify against the
// registry. All three fields are required; the triple never changes after
// creation.
type VerificationRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DocumentNumber string `json:"document_number"`
}

// Valid reports whether all required fields survived sanitization.
func (r VerificationRequest) Valid() bool {
	return r.FirstName != "" && r.LastName != "" && r.DocumentNumber != ""
}

// NewVerificationRequest builds a request from raw field values, applying
// the sanitization rules for registry input.
func NewVerificationRequest(firstName, lastName, documentNumber string) VerificationRequest {
	return VerificationRequest{
		FirstName:      SanitizeField(firstName),
		LastName:       SanitizeField(lastName),
		DocumentNumber: SanitizeField(documentNumber),
	}
}

// SanitizeField trims surrounding whitespace and strips control characters.
// Space, hyphen and apostrophe are kept: they occur in real names and
// document numbers.
func SanitizeField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '\'':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			// drop control characters
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
