package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/surgiscan/docproc/internal/schema"
)

const (
	LandingAIName    = "landingai"
	LandingAIBaseURL = "https://api.va.landing.ai/v1"

	landingAIAnalysisPath = "/tools/agentic-document-analysis"
)

// LandingAIConfig holds configuration for the Landing AI client.
type LandingAIConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	MaxRetries int
}

// LandingAIClient implements Oracle against the Landing AI agentic
// document analysis API. One HTTP call per document per schema.
type LandingAIClient struct {
	apiKey     string
	baseURL    string
	maxRetries int
	client     *http.Client
	limiter    *rateLimiter
	breaker    *gobreaker.CircuitBreaker[*landingAIData]
}

// NewLandingAIClient creates a new Landing AI client.
func NewLandingAIClient(cfg LandingAIConfig) *LandingAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = LandingAIBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 2.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	breaker := gobreaker.NewCircuitBreaker[*landingAIData](gobreaker.Settings{
		Name:    LandingAIName,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &LandingAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    newRateLimiter(cfg.RateLimit),
		breaker:    breaker,
	}
}

// Name returns the provider identifier.
func (c *LandingAIClient) Name() string {
	return LandingAIName
}

// Classify asks the API which document types the file contains.
func (c *LandingAIClient) Classify(ctx context.Context, filePath string) (*Classification, error) {
	fields, err := c.ExtractSchema(ctx, filePath, schema.ClassificationSchema())
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	var cls Classification
	if err := json.Unmarshal(raw, &cls); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return &cls, nil
}

// ExtractPlainText returns the markdown dump of the document.
func (c *LandingAIClient) ExtractPlainText(ctx context.Context, filePath string) (string, error) {
	data, err := c.analyze(ctx, filePath, nil)
	if err != nil {
		return "", err
	}
	if data.Markdown == "" {
		return "", fmt.Errorf("%w: empty markdown", ErrBadResponse)
	}
	return data.Markdown, nil
}

// ExtractSchema extracts fields constrained by the given JSON schema.
func (c *LandingAIClient) ExtractSchema(ctx context.Context, filePath string, fieldsSchema map[string]any) (map[string]any, error) {
	data, err := c.analyze(ctx, filePath, fieldsSchema)
	if err != nil {
		return nil, err
	}
	if len(data.ExtractedSchema) == 0 {
		return nil, fmt.Errorf("%w: no extracted_schema in response", ErrBadResponse)
	}
	return decodeFieldSet(data.ExtractedSchema)
}

// landingAIResponse is the API envelope.
type landingAIResponse struct {
	Data   landingAIData `json:"data"`
	Errors []string      `json:"errors,omitempty"`
}

// landingAIData carries the analysis payload.
type landingAIData struct {
	Markdown        string          `json:"markdown"`
	ExtractedSchema json.RawMessage `json:"extracted_schema,omitempty"`
}

// analyze uploads the file and optional fields schema, with rate
// limiting, retries and a circuit breaker around the HTTP call.
func (c *LandingAIClient) analyze(ctx context.Context, filePath string, fieldsSchema map[string]any) (*landingAIData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	fileBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	data, err := c.breaker.Execute(func() (*landingAIData, error) {
		var out *landingAIData
		retryErr := retry.Do(
			func() error {
				var callErr error
				out, callErr = c.doAnalysis(ctx, fileBytes, filepath.Base(filePath), fieldsSchema)
				return callErr
			},
			retry.Context(ctx),
			retry.Attempts(uint(c.maxRetries)),
			retry.Delay(2*time.Second),
			retry.DelayType(retry.BackOffDelay),
			retry.RetryIf(isRetryable),
			retry.LastErrorOnly(true),
		)
		if retryErr != nil {
			return nil, retryErr
		}
		return out, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return nil, err
	}
	return data, nil
}

// httpStatusError marks failures that carry an HTTP status, so the
// retry predicate can distinguish transient codes from permanent ones.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("oracle http %d: %s", e.status, e.body)
}

func isRetryable(err error) bool {
	if se, ok := err.(*httpStatusError); ok {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	// Network-level failures are worth retrying.
	return true
}

func (c *LandingAIClient) doAnalysis(ctx context.Context, fileBytes []byte, filename string, fieldsSchema map[string]any) (*landingAIData, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(formFieldFor(filename), filename)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(fileBytes); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}

	if fieldsSchema != nil {
		schemaJSON, err := json.Marshal(fieldsSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal fields schema: %w", err)
		}
		if err := writer.WriteField("fields_schema", string(schemaJSON)); err != nil {
			return nil, fmt.Errorf("write fields schema: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+landingAIAnalysisPath, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode, body: truncate(string(respBody), 200)}
	}

	var parsed landingAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, parsed.Errors[0])
	}
	return &parsed.Data, nil
}

// formFieldFor picks the upload field name based on file kind; the API
// distinguishes pdf uploads from images.
func formFieldFor(filename string) string {
	switch filepath.Ext(filename) {
	case ".pdf", ".PDF":
		return "pdf"
	default:
		return "image"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
