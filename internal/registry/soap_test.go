package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/licverify/licverify/internal/model"
)

const documentResponse = `<?xml version="1.0" encoding="utf-8"?>
<Envelope xmlns="http://schemas.xmlsoap.org/soap/envelope/">
  <Body>
    <verifyDocumentResponse xmlns="urn:docregistry:verification:v1">
      <document>
        <licenseNumber>LT1234567</licenseNumber>
        <status><code>V</code><value>Valid</value></status>
        <revocationReasons/>
        <categories>
          <category>
            <name>B</name>
            <expiryDate>2031-05-20T00:00:00Z</expiryDate>
            <expiryDateSpecified>true</expiryDateSpecified>
          </category>
          <category>
            <name>A</name>
            <expiryDate>0001-01-01T00:00:00Z</expiryDate>
            <expiryDateSpecified>false</expiryDateSpecified>
          </category>
        </categories>
      </document>
    </verifyDocumentResponse>
  </Body>
</Envelope>`

const faultResponse = `<?xml version="1.0" encoding="utf-8"?>
<Envelope xmlns="http://schemas.xmlsoap.org/soap/envelope/">
  <Body>
    <Fault>
      <faultcode>Client</faultcode>
      <faultstring>verification rejected</faultstring>
      <detail>
        <serviceFault>
          <code>DOC-404</code>
          <reason>document not found</reason>
          <messages>
            <message>
              <type>error</type>
              <code>E1001</code>
              <message>no record for given number</message>
              <errorId>abc-123</errorId>
            </message>
          </messages>
        </serviceFault>
      </detail>
    </Fault>
  </Body>
</Envelope>`

var testRequest = model.VerificationRequest{FirstName: "Jonas", LastName: "Petraitis", DocumentNumber: "LT1234567"}

func TestVerify_ParsesDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("SOAPAction"); got != soapAction {
			t.Errorf("Unexpected SOAPAction: %s", got)
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = fmt.Fprint(w, documentResponse)
	}))
	defer server.Close()

	client := NewClientWithHTTPClient(server.URL, server.Client())
	doc, err := client.Verify(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.LicenseNumber != "LT1234567" {
		t.Errorf("Unexpected license number: %s", doc.LicenseNumber)
	}
	if doc.Status.Code != "V" || doc.Status.Value != "Valid" {
		t.Errorf("Unexpected status: %+v", doc.Status)
	}
	if len(doc.Categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(doc.Categories))
	}
	if !doc.Categories[0].ExpiryDateSpecified || doc.Categories[0].ExpiryDate.Year() != 2031 {
		t.Errorf("Unexpected first category: %+v", doc.Categories[0])
	}
	if doc.Categories[1].ExpiryDateSpecified {
		t.Error("Expected second category expiry to be unspecified")
	}
}

func TestVerify_SendsRequestFields(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		received = string(buf)
		_, _ = fmt.Fprint(w, documentResponse)
	}))
	defer server.Close()

	client := NewClientWithHTTPClient(server.URL, server.Client())
	if _, err := client.Verify(context.Background(), testRequest); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, want := range []string{"<firstName>Jonas</firstName>", "<lastName>Petraitis</lastName>", "<documentNumber>LT1234567</documentNumber>"} {
		if !strings.Contains(received, want) {
			t.Errorf("Request body missing %s:\n%s", want, received)
		}
	}
}

func TestVerify_Fault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = fmt.Fprint(w, faultResponse)
	}))
	defer server.Close()

	client := NewClientWithHTTPClient(server.URL, server.Client())
	_, err := client.Verify(context.Background(), testRequest)
	var fault *Fault
	if !errors.As(err, &fault) {
		t.Fatalf("Expected *Fault, got %v", err)
	}
	if fault.Code != "DOC-404" || fault.Reason != "document not found" {
		t.Errorf("Unexpected fault: %+v", fault)
	}
	if len(fault.Details) != 1 || fault.Details[0].Code != "E1001" {
		t.Errorf("Unexpected fault details: %+v", fault.Details)
	}
}

func TestVerify_TooManyRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClientWithHTTPClient(server.URL, server.Client())
	_, err := client.Verify(context.Background(), testRequest)
	if err == nil {
		t.Fatal("Expected error for 429")
	}
	if !IsRateLimited(err) {
		t.Errorf("Expected rate-limit classification, got %v", err)
	}
}

func TestVerify_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "not xml at all")
	}))
	defer server.Close()

	client := NewClientWithHTTPClient(server.URL, server.Client())
	if _, err := client.Verify(context.Background(), testRequest); err == nil {
		t.Fatal("Expected error for malformed response")
	}
}

func TestNewClient_CredentialErrors(t *testing.T) {
	cases := []model.RegistryConfig{
		{},
		{Endpoint: "https://registry.example"},
		{Endpoint: "https://registry.example", CertFile: "/no/such/cert.pem", KeyFile: "/no/such/key.pem"},
	}
	for i, cfg := range cases {
		_, err := NewClient(cfg)
		var credErr *CredentialError
		if !errors.As(err, &credErr) {
			t.Errorf("case %d: expected CredentialError, got %v", i, err)
		}
	}
}
