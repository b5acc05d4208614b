package oracle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/surgiscan/docproc/internal/schema"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = openai.ChatModelGPT4o
)

// OpenAIConfig holds configuration for the OpenAI-backed oracle.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	RateLimit float64
	Logger    *slog.Logger
}

// OpenAIClient implements Oracle over chat completions with vision
// input and json_schema structured output. It is the fallback backend
// for deployments without a dedicated document-extraction service.
type OpenAIClient struct {
	client  openai.Client
	model   string
	limiter *rateLimiter
	logger  *slog.Logger
}

// NewOpenAIClient creates a new OpenAI oracle client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = string(openAIDefaultModel)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 2.0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  cfg.Logger.With("component", "oracle", "provider", OpenAIName),
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Classify asks the model which document types the file contains.
func (c *OpenAIClient) Classify(ctx context.Context, filePath string) (*Classification, error) {
	fields, err := c.ExtractSchema(ctx, filePath, schema.ClassificationSchema())
	if err != nil {
		return nil, err
	}
	cls := &Classification{}
	if v, ok := fields["document_types_present"].(string); ok {
		cls.TypesPresent = v
	}
	if v, ok := fields["primary_document"].(string); ok {
		cls.PrimaryType = v
	}
	return cls, nil
}

// ExtractPlainText transcribes the document as plain text.
func (c *OpenAIClient) ExtractPlainText(ctx context.Context, filePath string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	parts, err := contentParts(filePath,
		"Transcribe all text in this scanned medical document. "+
			"Return only the document text, preserving the reading order.")
	if err != nil {
		return "", err
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrBadResponse)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcription", ErrBadResponse)
	}
	return text, nil
}

// ExtractSchema extracts fields constrained by the given JSON schema.
func (c *OpenAIClient) ExtractSchema(ctx context.Context, filePath string, fieldsSchema map[string]any) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	parts, err := contentParts(filePath,
		"Extract the requested fields from this scanned medical document. "+
			"Use empty strings for fields that are not present. "+
			"Respond with a single JSON object matching the provided schema.")
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "document_extraction",
					Schema: fieldsSchema,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrBadResponse)
	}

	raw, err := parseStructuredJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	c.reportValidation(fieldsSchema, raw)

	return decodeFieldSet(raw)
}

// reportValidation checks the parsed payload against the requested
// schema. Model output is less trustworthy than a dedicated extraction
// service; a failure still yields usable fields and the extractor's
// quality threshold decides whether to keep them, so mismatches are
// logged rather than fatal.
func (c *OpenAIClient) reportValidation(fieldsSchema map[string]any, raw json.RawMessage) {
	if err := validateAgainstSchema(fieldsSchema, raw); err != nil {
		c.logger.Warn("structured output failed schema validation", "error", err)
	}
}

// contentParts assembles the instruction plus the document as an
// image or file content part, base64-encoded inline.
func contentParts(filePath, instruction string) ([]openai.ChatCompletionContentPartUnionParam, error) {
	fileBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	filename := filepath.Base(filePath)
	encoded := base64.StdEncoding.EncodeToString(fileBytes)

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(instruction),
	}

	mime := mimeTypeFor(filename)
	if mime == "application/pdf" {
		parts = append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
			FileData: openai.String("data:" + mime + ";base64," + encoded),
			Filename: openai.String(filename),
		}))
	} else {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:" + mime + ";base64," + encoded,
		}))
	}
	return parts, nil
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
