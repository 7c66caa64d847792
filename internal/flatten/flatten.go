// Package flatten turns one nested registry document into zero or more
// normalized report rows, one per license category, synthesizing the
// human-readable status and revocation-reason text from coded sub-fields.
package flatten

import (
	"strings"

	"github.com/licverify/licverify/internal/model"
	"github.com/licverify/licverify/internal/registry"
)

// Flatten expands doc into one CategoryRecord per category. A document
// without categories yields an empty slice: a valid "no categories on
// file" outcome, not an error. Nil category entries are skipped.
func Flatten(req model.VerificationRequest, doc *registry.Document) []model.CategoryRecord {
	records := make([]model.CategoryRecord, 0, len(doc.Categories))
	if len(doc.Categories) == 0 {
		return records
	}

	licenseNumber := strings.TrimSpace(doc.LicenseNumber)
	if licenseNumber == "" {
		// Partial responses omit the field; the requested number is the
		// best available identifier.
		licenseNumber = req.DocumentNumber
	}
	statusText := joinCodeValue(doc.Status)
	reasonText := joinReasons(doc.RevocationReasons)

	for _, cat := range doc.Categories {
		if cat == nil {
			continue
		}
		rec := model.CategoryRecord{
			FirstName:            req.FirstName,
			LastName:             req.LastName,
			LicenseNumber:        licenseNumber,
			StatusText:           statusText,
			Category:             cat.Name,
			RevocationReasonText: reasonText,
		}
		// The wire format always carries a date value; only the presence
		// flag says whether one is actually on file.
		if cat.ExpiryDateSpecified {
			d := cat.ExpiryDate
			rec.ExpiryDate = &d
		}
		records = append(records, rec)
	}
	return records
}

// joinCodeValue renders a coded field as "code - value", dropping either
// blank half, or everything when both are blank.
func joinCodeValue(cv registry.CodeValue) string {
	code := strings.TrimSpace(cv.Code)
	value := strings.TrimSpace(cv.Value)
	switch {
	case code == "":
		return value
	case value == "":
		return code
	default:
		return code + " - " + value
	}
}

// joinReasons joins the non-blank coded reasons with "; ". Nil means the
// registry reported no usable reasons, which callers must distinguish
// from an empty string.
func joinReasons(reasons []registry.CodeValue) *string {
	fragments := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if f := joinCodeValue(r); f != "" {
			fragments = append(fragments, f)
		}
	}
	if len(fragments) == 0 {
		return nil
	}
	joined := strings.Join(fragments, "; ")
	return &joined
}
