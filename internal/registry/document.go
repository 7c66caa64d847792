// Package registry talks to the remote document registry: the SOAP
// transport, the wire document model, the structured fault type, and the
// classification of rate-limit signals.
package registry

import (
	"encoding/xml"
	"time"
)

// CodeValue is the registry's coded-field pair: a machine code and its
// human-readable value. Either half may be blank.
type CodeValue struct {
	Code  string `xml:"code"`
	Value string `xml:"value"`
}

// Category is one license category entry of a document. The registry
// serializes a zero date even when no expiry is on file, so the presence
// flag, not the date value, decides whether an expiry exists.
type Category struct {
	Name                string    `xml:"name"`
	ExpiryDate          time.Time `xml:"expiryDate"`
	ExpiryDateSpecified bool      `xml:"expiryDateSpecified"`
}

// Document is one registry response: the license document for a verified
// person. LicenseNumber may be blank on partial responses.
type Document struct {
	XMLName           xml.Name    `xml:"document"`
	LicenseNumber     string      `xml:"licenseNumber"`
	Status            CodeValue   `xml:"status"`
	RevocationReasons []CodeValue `xml:"revocationReasons>reason"`
	Categories        []*Category `xml:"categories>category"`
}
