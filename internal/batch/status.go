package batch

import "fmt"

// Severity classifies a run's worst outcome. Higher is worse; the final
// exit status reflects the maximum severity encountered.
type Severity int

const (
	SeverityOK Severity = iota
	// SeverityFault: at least one request was rejected with a structured
	// registry fault.
	SeverityFault
	// SeverityTransport: at least one request failed for a non-fault,
	// non-throttling reason.
	SeverityTransport
	// SeverityNoInput: no usable input file or client credential.
	SeverityNoInput
	// SeverityOutput: the report artifact could not be written.
	SeverityOutput
	// SeverityExhausted: sustained throttling beyond the backoff
	// ceiling aborted the run.
	SeverityExhausted
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityFault:
		return "registry faults"
	case SeverityTransport:
		return "transport failures"
	case SeverityNoInput:
		return "no usable input"
	case SeverityOutput:
		return "output write error"
	case SeverityExhausted:
		return "backoff exhausted"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ExitCode maps a severity to the process exit status.
func (s Severity) ExitCode() int { return int(s) }

// worst returns the more severe of two severities.
func worst(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// StatusError carries a non-zero run outcome out through the CLI so main
// can exit with the matching status.
type StatusError struct {
	Severity Severity
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return e.Severity.String()
	}
	return e.Message
}
