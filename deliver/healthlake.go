package deliver

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"

	"github.com/aws-samples/amazon-healthlake-dicom-extension/pkg/document"
)

// healthlakeService is the SigV4 signing name for AWS HealthLake.
const healthlakeService = "healthlake"

// HealthLake delivers study documents to an AWS HealthLake FHIR datastore.
// Each document is posted to <endpoint>/<resourceType> as FHIR JSON with a
// SigV4-signed request.
type HealthLake struct {
	endpoint string
	region   string
	creds    aws.CredentialsProvider
	signer   *v4.Signer
	client   *http.Client
}

// HealthLakeOption configures the HealthLake deliverer.
type HealthLakeOption func(*HealthLake)

// WithHTTPClient replaces the HTTP client used for delivery.
func WithHTTPClient(client *http.Client) HealthLakeOption {
	return func(h *HealthLake) {
		if client != nil {
			h.client = client
		}
	}
}

// NewHealthLake creates a deliverer posting to the datastore FHIR endpoint,
// e.g. "https://healthlake.us-east-1.amazonaws.com/datastore/<id>/r4".
func NewHealthLake(endpoint, region string, creds aws.CredentialsProvider, opts ...HealthLakeOption) *HealthLake {
	h := &HealthLake{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		region:   region,
		creds:    creds,
		signer:   v4.NewSigner(),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Deliver posts the document. A non-2xx response is an error; the caller
// decides whether the batch is retried through redelivery.
func (h *HealthLake) Deliver(ctx context.Context, doc document.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	resourceType, _ := doc["resourceType"].(string)
	if resourceType == "" {
		resourceType = "ImagingStudy"
	}
	url := h.endpoint + "/" + resourceType

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	hash := sha256.Sum256(body)
	creds, err := h.creds.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("resolve credentials: %w", err)
	}
	if err := h.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(hash[:]), healthlakeService, h.region, time.Now()); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", resourceType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post %s: status %d: %s", resourceType, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
