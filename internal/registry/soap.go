package registry

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/licverify/licverify/internal/model"
)

// Verifier is the remote procedure the rest of the system depends on.
// Implementations own their connection and release it on Close.
type Verifier interface {
	Verify(ctx context.Context, req model.VerificationRequest) (*Document, error)
	Close() error
}

// CredentialError reports an unusable client credential or endpoint
// configuration. It maps to its own exit status: the run cannot start.
type CredentialError struct {
	Reason string
	Err    error
}

func (e *CredentialError) Error() string {
	if e.Err == nil {
		return "credential: " + e.Reason
	}
	return fmt.Sprintf("credential: %s: %v", e.Reason, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

const (
	serviceNamespace = "urn:docregistry:verification:v1"
	soapAction       = serviceNamespace + "/VerifyDocument"
	maxResponseBytes = 10 << 20
)

// Client is the SOAP transport to the document registry, authenticated
// with a TLS client certificate. One Client holds one connection pool for
// the life of a run.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a client from the registry configuration, loading the
// client certificate and optional CA bundle.
func NewClient(cfg model.RegistryConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, &CredentialError{Reason: "registry endpoint not configured"}
	}
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, &CredentialError{Reason: "client certificate not configured"}
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, &CredentialError{Reason: "load client certificate", Err: err}
	}
	tlsCfg := &tls.Config{Certificates: []tls.Certificate{cert}}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, &CredentialError{Reason: "read CA bundle", Err: err}
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, &CredentialError{Reason: "no certificates in CA bundle"}
		}
		tlsCfg.RootCAs = pool
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		},
	}, nil
}

// NewClientWithHTTPClient builds a client around an existing HTTP client.
// Used by tests and by deployments that terminate TLS elsewhere.
func NewClientWithHTTPClient(endpoint string, httpClient *http.Client) *Client {
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

type requestEnvelope struct {
	XMLName xml.Name    `xml:"soap:Envelope"`
	NS      string      `xml:"xmlns:soap,attr"`
	Body    requestBody `xml:"soap:Body"`
}

type requestBody struct {
	Verify verifyDocument `xml:"verifyDocument"`
}

type verifyDocument struct {
	NS             string `xml:"xmlns,attr"`
	FirstName      string `xml:"firstName"`
	LastName       string `xml:"lastName"`
	DocumentNumber string `xml:"documentNumber"`
}

type responseEnvelope struct {
	Body struct {
		Response *struct {
			Document *Document `xml:"document"`
		} `xml:"verifyDocumentResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
	Detail      struct {
		ServiceFault *Fault `xml:"serviceFault"`
	} `xml:"detail"`
}

// Verify executes one VerifyDocument call. Failures are either a *Fault
// (structured rejection parsed from the SOAP fault detail), an
// *HTTPStatusError for non-success statuses without a parsable fault, or
// a wrapped transport error.
func (c *Client) Verify(ctx context.Context, req model.VerificationRequest) (*Document, error) {
	env := requestEnvelope{
		NS: "http://schemas.xmlsoap.org/soap/envelope/",
		Body: requestBody{Verify: verifyDocument{
			NS:             serviceNamespace,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			DocumentNumber: req.DocumentNumber,
		}},
	}
	payload, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", soapAction)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call registry: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// SOAP faults usually arrive with a 500 status; try the envelope
	// before deciding on the raw status code.
	var parsed responseEnvelope
	parseErr := xml.Unmarshal(body, &parsed)

	if parseErr == nil && parsed.Body.Fault != nil {
		return nil, faultFromSOAP(parsed.Body.Fault)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("call registry: %w", &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status})
	}
	if parseErr != nil {
		return nil, fmt.Errorf("parse response: %w", parseErr)
	}
	if parsed.Body.Response == nil || parsed.Body.Response.Document == nil {
		return nil, fmt.Errorf("parse response: missing document element")
	}
	return parsed.Body.Response.Document, nil
}

func faultFromSOAP(sf *soapFault) *Fault {
	if sf.Detail.ServiceFault != nil {
		f := *sf.Detail.ServiceFault
		if f.Code == "" {
			f.Code = sf.FaultCode
		}
		if f.Reason == "" {
			f.Reason = sf.FaultString
		}
		return &f
	}
	return &Fault{Code: strings.TrimSpace(sf.FaultCode), Reason: strings.TrimSpace(sf.FaultString)}
}

// Close releases the connection pool. The graceful path cannot fail for
// this transport, but the Verifier contract allows it to.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Abort forcibly drops the connection pool. Fallback for callers whose
// graceful Close failed.
func (c *Client) Abort() {
	c.httpClient.CloseIdleConnections()
}
