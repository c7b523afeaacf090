// Package genai wraps the two external generation capabilities (structured
// content and image editing) behind one HTTP client with the retry and
// model-fallback policy the pipeline relies on.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"listify/internal/domain"
	"listify/internal/imaging"
	"listify/internal/infra"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultImageModel  = "gemini-2.5-flash-image"
	defaultCallTimeout = 60 * time.Second
)

var defaultContentModels = []string{"gemini-2.5-flash", "gemini-2.0-flash"}

// CredentialSource resolves the API key before every request, so a key
// configured mid-session takes effect without a restart.
type CredentialSource interface {
	GeminiAPIKey(ctx context.Context) (string, error)
}

// StaticCredentials is a CredentialSource for a fixed key.
type StaticCredentials string

func (s StaticCredentials) GeminiAPIKey(ctx context.Context) (string, error) {
	return string(s), nil
}

// Options configures the client.
type Options struct {
	Credentials   CredentialSource
	BaseURL       string
	ContentModels []string
	ImageModel    string
	HTTPClient    *http.Client
	Logger        *infra.Logger
	CallTimeout   time.Duration
	Retry         RetryPolicy
	// ValidateContent decides whether a model's raw text is usable; during
	// fallback the first model whose output passes wins.
	ValidateContent func(raw string) error
}

// Client invokes the generation capabilities. All calls carry a bounded
// timeout so a hung request cannot strand the pipeline mid-stage.
type Client struct {
	credentials   CredentialSource
	baseURL       string
	contentModels []string
	imageModel    string
	httpClient    *http.Client
	logger        *infra.Logger
	callTimeout   time.Duration
	retry         RetryPolicy
	validate      func(string) error
}

// ContentRequest asks for structured product content.
type ContentRequest struct {
	Instruction string
	Attachment  *imaging.File
	UseSearch   bool
}

// ImageRequest asks for one generated or edited image.
type ImageRequest struct {
	Instruction string
	BaseImage   *imaging.File
}

// ImageAsset is a returned image. A nil asset with a nil error means the
// model completed without producing an image: a soft per-slot failure.
type ImageAsset struct {
	Data []byte
	MIME string
}

func NewClient(opts Options) (*Client, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("genai: credential source is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultCallTimeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	contentModels := opts.ContentModels
	if len(contentModels) == 0 {
		contentModels = defaultContentModels
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	logger := opts.Logger
	if logger == nil {
		discard := infra.Logger(zerolog.New(io.Discard))
		logger = &discard
	}
	retry := opts.Retry
	if retry.Logger == nil {
		retry.Logger = logger
	}
	return &Client{
		credentials:   opts.Credentials,
		baseURL:       baseURL,
		contentModels: contentModels,
		imageModel:    imageModel,
		httpClient:    httpClient,
		logger:        logger,
		callTimeout:   callTimeout,
		retry:         retry,
		validate:      opts.ValidateContent,
	}, nil
}

// ContentModels returns the prioritized fallback list.
func (c *Client) ContentModels() []string {
	return append([]string(nil), c.contentModels...)
}

// GenerateContent runs the prioritized model list in order; the first model
// whose output passes validation wins. When every model is exhausted the
// aggregated error names the attempt count and carries the last underlying
// failure.
func (c *Client) GenerateContent(ctx context.Context, req ContentRequest) (string, error) {
	apiKey, err := c.apiKey(ctx)
	if err != nil {
		return "", err
	}

	var lastErr error
	for _, model := range c.contentModels {
		text, err := withRetry(ctx, c.retry, func(ctx context.Context) (string, error) {
			return c.generateContentOnce(ctx, apiKey, model, req)
		})
		if err == nil && c.validate != nil {
			err = c.validate(text)
		}
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.logger.Warn().
			Err(err).
			Str("model", model).
			Int("prompt_len", len(req.Instruction)).
			Msg("genai: content model failed")

		switch domain.ClassifyError(err) {
		case domain.KindCredential, domain.KindPolicy:
			// The same key and the same input will fail on every model.
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("content generation failed after %d model attempts (%s): %w",
		len(c.contentModels), strings.Join(c.contentModels, ", "), lastErr)
}

// GenerateImage issues one image generation/editing call with retries. The
// absence of an image in a completed response is reported as (nil, nil), not
// as an error; callers treat it as a failed slot.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	apiKey, err := c.apiKey(ctx)
	if err != nil {
		return nil, err
	}
	return withRetry(ctx, c.retry, func(ctx context.Context) (*ImageAsset, error) {
		return c.generateImageOnce(ctx, apiKey, req)
	})
}

func (c *Client) apiKey(ctx context.Context) (string, error) {
	key, err := c.credentials.GeminiAPIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("genai: read credential: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("genai: %w: no Gemini API key configured", domain.ErrCredentialMissing)
	}
	return key, nil
}

func (c *Client) generateContentOnce(ctx context.Context, apiKey, model string, req ContentRequest) (string, error) {
	parts := []wirePart{{Text: req.Instruction}}
	if !req.Attachment.IsZero() {
		parts = append(parts, wirePart{InlineData: &wireInlineData{
			MimeType: req.Attachment.MIME,
			Data:     base64.StdEncoding.EncodeToString(req.Attachment.Data),
		}})
	}
	payload := wireRequest{
		Contents: []wireContent{{Role: "user", Parts: parts}},
		GenerationConfig: &wireGenerationConfig{
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}
	if req.UseSearch {
		payload.Tools = []wireTool{{GoogleSearch: &struct{}{}}}
		// Search grounding and forced JSON MIME are mutually exclusive.
		payload.GenerationConfig.ResponseMimeType = ""
	}

	var response wireResponse
	if err := c.invoke(ctx, apiKey, model, payload, &response); err != nil {
		return "", err
	}
	if err := response.policyError(); err != nil {
		return "", err
	}
	text := response.joinedText()
	if text == "" {
		return "", fmt.Errorf("genai: model %s returned no text content", model)
	}
	return text, nil
}

func (c *Client) generateImageOnce(ctx context.Context, apiKey string, req ImageRequest) (*ImageAsset, error) {
	parts := []wirePart{{Text: req.Instruction}}
	if !req.BaseImage.IsZero() {
		parts = append(parts, wirePart{InlineData: &wireInlineData{
			MimeType: req.BaseImage.MIME,
			Data:     base64.StdEncoding.EncodeToString(req.BaseImage.Data),
		}})
	}
	payload := wireRequest{
		Contents: []wireContent{{Role: "user", Parts: parts}},
		GenerationConfig: &wireGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	var response wireResponse
	if err := c.invoke(ctx, apiKey, c.imageModel, payload, &response); err != nil {
		return nil, err
	}
	if err := response.policyError(); err != nil {
		return nil, err
	}
	for _, cand := range response.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("genai: decode inline image: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return &ImageAsset{Data: data, MIME: mime}, nil
		}
	}
	c.logger.Debug().Str("model", c.imageModel).Msg("genai: image response carried no image part")
	return nil, nil
}

func (c *Client) invoke(ctx context.Context, apiKey, model string, payload any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("genai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("genai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: invoke %s: %w", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return classifyStatus(resp.StatusCode, readAPIError(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}

func readAPIError(body io.Reader) string {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(body, 1<<16))
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return strings.TrimSpace(string(data))
}

// classifyStatus tags provider failures so the state machine can map them to
// distinct user-facing messages: authorization, rate limiting, and policy
// rejections must stay distinguishable from generic instability.
func classifyStatus(status int, message string) error {
	lower := strings.ToLower(message)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("genai: %w: status %d: %s", domain.ErrCredentialMissing, status, message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("genai: %w: status %d: %s", domain.ErrRateLimited, status, message)
	case status == http.StatusBadRequest && strings.Contains(lower, "api key"):
		return fmt.Errorf("genai: %w: status %d: %s", domain.ErrCredentialMissing, status, message)
	case strings.Contains(lower, "safety") || strings.Contains(lower, "blocked"):
		return fmt.Errorf("genai: %w: status %d: %s", domain.ErrPolicyBlocked, status, message)
	default:
		return fmt.Errorf("genai: status %d: %s", status, message)
	}
}
