// Package verify executes single verification calls against the registry,
// retrying through the shared backoff controller when the service
// throttles and flattening successful responses into report rows.
package verify

import (
	"context"
	"fmt"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/licverify/licverify/internal/backoff"
	"github.com/licverify/licverify/internal/flatten"
	"github.com/licverify/licverify/internal/model"
	"github.com/licverify/licverify/internal/registry"
)

// Client drives verification calls for one run. It owns the transport's
// lifecycle: construct once, Close at the end of the run.
type Client struct {
	verifier registry.Verifier
	backoff  *backoff.Controller
	cache    *gocache.Cache // nil when disabled
	limiter  *rate.Limiter  // nil when disabled
	log      *logrus.Logger
}

// New builds a client around an already-connected verifier.
func New(verifier registry.Verifier, cfg *model.Config, log *logrus.Logger) *Client {
	c := &Client{
		verifier: verifier,
		backoff:  backoff.New(cfg.Backoff.InitialDelay, cfg.Backoff.DelayCeiling),
		log:      log,
	}
	if cfg.Cache.Enabled {
		c.cache = gocache.New(cfg.Cache.TTL, cfg.Cache.TTL)
	}
	if rpm := cfg.Pacing.RequestsPerMinute; rpm > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}
	return c
}

// Backoff exposes the shared backoff controller, mainly for run summaries.
func (c *Client) Backoff() *backoff.Controller { return c.backoff }

// Verify executes one verification call with rate-limit retry and returns
// the flattened report rows. Rate-limit signals wait through the shared
// backoff controller and retry the same call; every other failure
// propagates immediately. Possible failures: *registry.Fault,
// *backoff.ExhaustedError, context cancellation, or a transport error.
func (c *Client) Verify(ctx context.Context, req model.VerificationRequest) ([]model.CategoryRecord, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	key := cacheKey(req)
	if c.cache != nil {
		if cached, found := c.cache.Get(key); found {
			c.log.WithField("document_number", req.DocumentNumber).Debug("response cache hit")
			return flatten.Flatten(req, cached.(*registry.Document)), nil
		}
	}

	for {
		doc, err := c.verifier.Verify(ctx, req)
		if err == nil {
			if c.cache != nil {
				c.cache.Set(key, doc, gocache.DefaultExpiration)
			}
			return flatten.Flatten(req, doc), nil
		}
		if !registry.IsRateLimited(err) {
			return nil, err
		}

		delay := c.backoff.CurrentDelay()
		c.log.WithFields(logrus.Fields{
			"document_number": req.DocumentNumber,
			"delay":           delay.String(),
			"attempts":        c.backoff.Attempts() + 1,
		}).Warn("registry throttled the request, backing off")

		if _, werr := c.backoff.Wait(ctx); werr != nil {
			return nil, werr
		}
	}
}

// Close releases the remote connection. If the graceful close fails, the
// transport is forcibly aborted before the error is reported.
func (c *Client) Close() error {
	if err := c.verifier.Close(); err != nil {
		if a, ok := c.verifier.(interface{ Abort() }); ok {
			a.Abort()
		}
		return fmt.Errorf("close registry client: %w", err)
	}
	return nil
}

func cacheKey(req model.VerificationRequest) string {
	return strings.Join([]string{req.FirstName, req.LastName, req.DocumentNumber}, "\x1f")
}
