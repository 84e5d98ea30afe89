package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/medallia/speech-api-reference-implementation/internal/httpretry"
	"github.com/medallia/speech-api-reference-implementation/pkg/version"
)

// MaxResponseBytes caps the size of a Speech API response body
const MaxResponseBytes = 20 * 1024 * 1024

// Options identifies the Speech API deployment and its OAuth2 client
type Options struct {
	TokenURL     string
	APIGateway   string
	ClientID     string
	ClientSecret string
}

// TaskStatus is the status of one record in a publish response
type TaskStatus string

const (
	TaskAccepted TaskStatus = "ACCEPTED"
	TaskRejected TaskStatus = "REJECTED"
)

// JobStatus is the status of a whole publish request
type JobStatus string

const (
	JobAccepted          JobStatus = "ACCEPTED"
	JobPartiallyAccepted JobStatus = "PARTIALLY_ACCEPTED"
	JobRejected          JobStatus = "REJECTED"
)

// TaskDetails is the result for one record
type TaskDetails struct {
	CallIdentifier string     `json:"call_identifier,omitempty"`
	SpeechFileName string     `json:"speech_file_name,omitempty"`
	Status         TaskStatus `json:"status,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// Response is the body returned by the Speech API for one publish request
type Response struct {
	JobID   string        `json:"job_id,omitempty"`
	Status  JobStatus     `json:"status,omitempty"`
	Details []TaskDetails `json:"details,omitempty"`
}

// Client posts record batches to the Speech API
type Client struct {
	endpoint string
	http     httpretry.HTTPDoer
	logger   *slog.Logger
}

// NewClient builds a client that authenticates with the OAuth2 client
// credentials grant. Tokens are fetched lazily and refreshed on expiry.
// ctx bounds token requests for the lifetime of the client.
func NewClient(ctx context.Context, opts Options, retry httpretry.Config, logger *slog.Logger) *Client {
	return newClient(opts.APIGateway, authorizedDoer(ctx, opts, retry, logger), logger)
}

// authorizedDoer returns a retrying HTTP client that attaches a bearer token
func authorizedDoer(ctx context.Context, opts Options, retry httpretry.Config, logger *slog.Logger) httpretry.HTTPDoer {
	if logger == nil {
		logger = slog.Default()
	}

	base := &http.Client{Timeout: 60 * time.Second}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	cc := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	return httpretry.NewRetryClient(cc.Client(ctx), retry, logger)
}

func newClient(endpoint string, doer httpretry.HTTPDoer, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{endpoint: endpoint, http: doer, logger: logger}
}

// Publish sends records as one JSON array and decodes the job result.
// Any non-2xx status is returned as an error carrying the response body.
func (c *Client) Publish(ctx context.Context, records []Record) (*Response, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", version.Get().UserAgent())

	c.logger.Debug("publishing records", "count", len(records), "request_id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error posting data to speech API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read speech API response: %w", err)
	}
	if len(data) > MaxResponseBytes {
		return nil, fmt.Errorf("speech API response exceeds %d bytes", MaxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("speech API returned an error", "status", resp.StatusCode, "request_id", requestID)
		return nil, fmt.Errorf("error posting data to speech API (status=%d): %s",
			resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var result Response
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode speech API response: %w", err)
	}

	c.logger.Debug("publish response", "job_id", result.JobID, "status", result.Status, "request_id", requestID)
	return &result, nil
}
