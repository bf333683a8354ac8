package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrGeneratorDisabled returned by DisabledGenerator.
var ErrGeneratorDisabled = errors.New("generative backend disabled")

// DisabledGenerator stands in when no API key is configured.
type DisabledGenerator struct{}

func (DisabledGenerator) Generate(context.Context, string) (string, error) {
	return "", ErrGeneratorDisabled
}

// GeminiOptions settings for NewGeminiClient
type GeminiOptions struct {
	BaseURL       string
	APIKey        string
	Model         string
	FallbackModel string
	Timeout       time.Duration
	RetryCount    int
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiError non-2xx answer from the generateContent endpoint
type GeminiError struct {
	HTTPStatus int
	Model      string
	Status     string
	Message    string
}

func (e *GeminiError) Error() string {
	return fmt.Sprintf("gemini %s: %d %s: %s", e.Model, e.HTTPStatus, e.Status, e.Message)
}

// ModelNotFound reports the "unknown model" class of failures.
func (e *GeminiError) ModelNotFound() bool {
	return e.HTTPStatus == http.StatusNotFound || e.Status == "NOT_FOUND"
}

// GeminiClient Google Generative Language REST client. Safe for concurrent use;
// no field changes after construction.
type GeminiClient struct {
	httpClient    *resty.Client
	apiKey        string
	model         string
	fallbackModel string
	logger        *zap.Logger
}

// NewGeminiClient creates the client. It does not contact the API.
func NewGeminiClient(opts GeminiOptions, logger *zap.Logger) *GeminiClient {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &GeminiClient{
		httpClient:    httpClient,
		apiKey:        opts.APIKey,
		model:         opts.Model,
		fallbackModel: opts.FallbackModel,
		logger:        logger,
	}
}

// Generate returns the first candidate's text. When the configured model is
// unknown to the API the alternative model is tried once.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.generateWith(ctx, c.model, prompt)
	if err == nil {
		return text, nil
	}

	var gerr *GeminiError
	if errors.As(err, &gerr) && gerr.ModelNotFound() && c.fallbackModel != "" && c.fallbackModel != c.model {
		c.logger.Warn("Gemini model not found, retrying with alternative model",
			zap.String("model", c.model),
			zap.String("fallback_model", c.fallbackModel),
		)
		return c.generateWith(ctx, c.fallbackModel, prompt)
	}
	return "", err
}

func (c *GeminiClient) generateWith(ctx context.Context, model, prompt string) (string, error) {
	var out geminiResponse
	var errBody geminiErrorBody

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}).
		SetResult(&out).
		SetError(&errBody).
		Post("/v1beta/models/" + model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}
	if resp.IsError() {
		return "", &GeminiError{
			HTTPStatus: resp.StatusCode(),
			Model:      model,
			Status:     errBody.Error.Status,
			Message:    errBody.Error.Message,
		}
	}

	var b strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
	}
	return b.String(), nil
}
