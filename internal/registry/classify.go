package registry

import (
	"errors"
	"net/http"
	"strings"
)

// rateLimitMarkers are textual fallbacks for transport layers that erase
// the structured status code. Matched case-insensitively against each
// cause's message.
var rateLimitMarkers = []string{
	"429",
	"too many requests",
}

// IsRateLimited reports whether err carries a rate-limit signal anywhere
// in its cause chain. The structured status code is checked first; the
// string markers are a deliberately permissive fallback.
func IsRateLimited(err error) bool {
	for _, cause := range flattenCauses(err) {
		var statusErr *HTTPStatusError
		if errors.As(cause, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		msg := strings.ToLower(cause.Error())
		for _, marker := range rateLimitMarkers {
			if strings.Contains(msg, marker) {
				return true
			}
		}
	}
	return false
}

// flattenCauses walks the full cause chain of err, including aggregate
// errors that wrap several parallel causes, into a flat list.
func flattenCauses(err error) []error {
	if err == nil {
		return nil
	}
	causes := []error{err}
	switch x := err.(type) {
	case interface{ Unwrap() error }:
		causes = append(causes, flattenCauses(x.Unwrap())...)
	case interface{ Unwrap() []error }:
		for _, sub := range x.Unwrap() {
			causes = append(causes, flattenCauses(sub)...)
		}
	}
	return causes
}
