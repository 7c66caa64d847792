package registry

import "fmt"

// FaultDetail is one detail message attached to a registry fault.
type FaultDetail struct {
	Type    string `xml:"type"`
	Code    string `xml:"code"`
	Message string `xml:"message"`
	Detail  string `xml:"detail"`
	ErrorID string `xml:"errorId"`
}

// Fault is a structured rejection returned by the registry service, as
// opposed to an unexpected transport error. It is per-request: the batch
// logs it and moves on.
type Fault struct {
	Code    string        `xml:"code"`
	Reason  string        `xml:"reason"`
	Details []FaultDetail `xml:"messages>message"`
}

func (f *Fault) Error() string {
	if f.Reason == "" {
		return fmt.Sprintf("registry fault %s", f.Code)
	}
	return fmt.Sprintf("registry fault %s: %s", f.Code, f.Reason)
}

// HTTPStatusError is a transport-level non-success status. It keeps the
// structured status code available to rate-limit classification.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, e.Status)
}
