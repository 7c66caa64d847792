// Package batch drives one verification run: requests go out strictly one
// at a time in file order, results stream to the report artifact, and the
// worst failure class encountered becomes the exit status.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/licverify/licverify/internal/backoff"
	"github.com/licverify/licverify/internal/model"
	"github.com/licverify/licverify/internal/registry"
	"github.com/licverify/licverify/internal/report"
)

// Verifier is the per-request operation the orchestrator drives.
type Verifier interface {
	Verify(ctx context.Context, req model.VerificationRequest) ([]model.CategoryRecord, error)
}

// Outcome summarizes a finished (or aborted) run.
type Outcome struct {
	Severity    Severity
	Processed   int
	Failed      int
	RowsWritten int
}

// Orchestrator runs the batch sequentially. Concurrency is deliberately
// absent: one request in flight at a time is the contract with the
// registry's rate limits.
type Orchestrator struct {
	client   Verifier
	writer   *report.Writer
	log      *logrus.Logger
	failures *logrus.Logger

	minDelay time.Duration
	maxDelay time.Duration

	// test seams
	sleep   func(ctx context.Context, d time.Duration) error
	randInt func(n int) int
}

// New creates an orchestrator. failures may equal log; it receives the
// structured per-request failure entries.
func New(client Verifier, writer *report.Writer, pacing model.PacingConfig, log, failures *logrus.Logger) *Orchestrator {
	if failures == nil {
		failures = log
	}
	return &Orchestrator{
		client:   client,
		writer:   writer,
		log:      log,
		failures: failures,
		minDelay: time.Duration(pacing.MinDelayMS) * time.Millisecond,
		maxDelay: time.Duration(pacing.MaxDelayMS) * time.Millisecond,
		sleep:    sleepCtx,
		randInt:  rand.Intn,
	}
}

// Run processes the requests in order. It returns early only for the
// fatal classes (backoff exhausted, output write error, cancellation);
// per-request faults and transport failures are logged and skipped, but
// still raise the final severity.
func (o *Orchestrator) Run(ctx context.Context, requests []model.VerificationRequest) (Outcome, error) {
	outcome := Outcome{Severity: SeverityOK}

	for i, req := range requests {
		if i > 0 {
			if err := o.courtesyDelay(ctx); err != nil {
				outcome.RowsWritten = o.writer.Written()
				return outcome, err
			}
		}

		records, err := o.client.Verify(ctx, req)
		if err != nil {
			outcome.Failed++

			var exhausted *backoff.ExhaustedError
			if errors.As(err, &exhausted) {
				o.logFailure(req, "backoff exhausted", err)
				outcome.Severity = worst(outcome.Severity, SeverityExhausted)
				outcome.RowsWritten = o.writer.Written()
				return outcome, err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				outcome.RowsWritten = o.writer.Written()
				return outcome, err
			}

			var fault *registry.Fault
			if errors.As(err, &fault) {
				o.logFailure(req, "registry fault", err)
				o.reportFault(req, fault)
				outcome.Severity = worst(outcome.Severity, SeverityFault)
				continue
			}

			o.logFailure(req, "transport failure", err)
			outcome.Severity = worst(outcome.Severity, SeverityTransport)
			continue
		}

		outcome.Processed++
		if err := o.writer.WriteRecords(records); err != nil {
			o.log.WithError(err).Error("cannot write report, aborting run")
			outcome.Severity = worst(outcome.Severity, SeverityOutput)
			outcome.RowsWritten = o.writer.Written()
			return outcome, err
		}
		o.log.WithFields(logrus.Fields{
			"document_number": req.DocumentNumber,
			"categories":      len(records),
		}).Info("request verified")
	}

	outcome.RowsWritten = o.writer.Written()
	o.log.WithFields(logrus.Fields{
		"requests": len(requests),
		"failed":   outcome.Failed,
		"rows":     outcome.RowsWritten,
		"status":   outcome.Severity.String(),
	}).Info("run finished")
	return outcome, nil
}

// courtesyDelay pauses between requests for a duration drawn uniformly
// from [minDelay, maxDelay]. Independent of and additive to the backoff:
// this one tries to avoid provoking throttling in the first place.
func (o *Orchestrator) courtesyDelay(ctx context.Context) error {
	if o.maxDelay <= 0 {
		return nil
	}
	d := o.minDelay
	if span := o.maxDelay - o.minDelay; span > 0 {
		d += time.Duration(o.randInt(int(span) + 1))
	}
	return o.sleep(ctx, d)
}

func (o *Orchestrator) logFailure(req model.VerificationRequest, label string, err error) {
	entry := model.FailureLogEntry{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DocumentNumber: req.DocumentNumber,
		ErrorLabel:     label,
		ErrorDetails:   err.Error(),
	}
	o.failures.WithFields(logrus.Fields{
		"first_name":      entry.FirstName,
		"last_name":       entry.LastName,
		"document_number": entry.DocumentNumber,
		"error_label":     entry.ErrorLabel,
		"error_details":   entry.ErrorDetails,
	}).Error("request failed")
}

// reportFault prints the structured fault for the operator.
func (o *Orchestrator) reportFault(req model.VerificationRequest, fault *registry.Fault) {
	fmt.Fprintf(os.Stderr, "✗ %s %s (%s): %s\n", req.FirstName, req.LastName, req.DocumentNumber, fault.Error())
	for _, d := range fault.Details {
		fmt.Fprintf(os.Stderr, "    [%s %s] %s", d.Type, d.Code, d.Message)
		if d.Detail != "" {
			fmt.Fprintf(os.Stderr, ": %s", d.Detail)
		}
		if d.ErrorID != "" {
			fmt.Fprintf(os.Stderr, " (id %s)", d.ErrorID)
		}
		fmt.Fprintln(os.Stderr)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
