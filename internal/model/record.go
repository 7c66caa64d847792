package model

import "time"

// CategoryRecord is one normalized report row: a single license category of
// a single verified person. One request yields zero or more records.
type CategoryRecord struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	LicenseNumber string `json:"license_number"`
	StatusText    string `json:"status_text,omitempty"`
	Category      string `json:"category"`

	// ExpiryDate is nil when the registry did not specify one. Absence is
	// meaningful and must not be replaced with a sentinel date.
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`

	// RevocationReasonText is nil when the registry reported no usable
	// revocation reasons. Distinct from an empty string.
	RevocationReasonText *string `json:"revocation_reason,omitempty"`
}

// FailureLogEntry describes one request that could not be verified. These
// go to the diagnostic sink, never into the tabular report.
type FailureLogEntry struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DocumentNumber string `json:"document_number"`
	ErrorLabel     string `json:"error_label"`
	ErrorDetails   string `json:"error_details,omitempty"`
}
