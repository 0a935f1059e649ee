package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"nano-banana-cli/internal/result"
)

const (
	DefaultModel      = "gemini-2.5-flash-image"
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
)

var responseModalities = []string{"TEXT", "IMAGE"}

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// NewRequest builds the generateContent call for prompt. The prompt is sent
// as given.
func (c *Client) NewRequest(ctx context.Context, model, prompt string) (*http.Request, error) {
	payload := generateContentRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: responseModalities,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	return httpReq, nil
}

// GenerateImage performs one generateContent call and returns the first
// inline image of the response. Every failure is a *result.Error.
func (c *Client) GenerateImage(ctx context.Context, model, prompt string) (Image, error) {
	if c.httpClient == nil {
		return Image{}, result.New(result.KindRequestFailed, "http client is nil")
	}

	httpReq, err := c.NewRequest(ctx, model, prompt)
	if err != nil {
		return Image{}, result.Wrap(result.KindRequestFailed, err)
	}

	c.logger.Debug("gemini request", "model", model, "url", httpReq.URL.String(), "prompt_bytes", len(prompt))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Image{}, result.Wrap(result.KindRequestFailed, err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Image{}, result.Wrap(result.KindRequestFailed, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("gemini response", "status", httpResp.StatusCode, "bytes", len(rawBody))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return Image{}, httpError(httpResp.StatusCode, rawBody)
	}

	return ParseResponse(rawBody)
}

// ParseResponse extracts and decodes the image from a successful
// generateContent body.
func ParseResponse(rawBody []byte) (Image, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(rawBody, &top); err != nil || top == nil {
		return Image{}, &result.Error{
			Kind:    result.KindInvalidJSON,
			Message: "provider returned non-json",
			Err:     err,
		}
	}

	if providerErr, ok := top["error"]; ok {
		message := "provider returned an error"
		var decoded apiError
		if json.Unmarshal(providerErr, &decoded) == nil && decoded.Message != "" {
			message = decoded.Message
		}
		return Image{}, &result.Error{
			Kind:    result.KindProviderError,
			Message: message,
			Details: providerErr,
		}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return Image{}, &result.Error{
			Kind:    result.KindInvalidJSON,
			Message: fmt.Sprintf("decode response: %v", err),
			Err:     err,
		}
	}

	inline, text, ok := extractImage(decoded)
	if !ok {
		return Image{}, &result.Error{
			Kind:    result.KindNoImageData,
			Message: "No inline image returned",
			Details: json.RawMessage(rawBody),
		}
	}

	data, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return Image{}, result.Wrap(result.KindDecodeFailed, err)
	}

	return Image{
		Data:     data,
		MimeType: inline.MimeType,
		Text:     text,
	}, nil
}

// extractImage walks candidates, then their parts, in order. The first part
// with inline data ends the walk; text is the first non-empty text part seen
// up to that point.
func extractImage(resp generateContentResponse) (blob, string, bool) {
	var text string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if text == "" && p.Text != "" {
				text = p.Text
			}
			if p.InlineData != nil && p.InlineData.Data != "" {
				return *p.InlineData, text, true
			}
		}
	}
	return blob{}, text, false
}

func httpError(status int, rawBody []byte) *result.Error {
	rErr := &result.Error{
		Kind:    result.KindHTTPError,
		Status:  status,
		Message: fmt.Sprintf("http_%d", status),
		Details: map[string]string{"raw": string(rawBody)},
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(rawBody, &top); err != nil || top == nil {
		return rErr
	}
	rErr.Details = json.RawMessage(rawBody)

	if body, ok := top["error"]; ok {
		var decoded apiError
		if json.Unmarshal(body, &decoded) == nil && decoded.Message != "" {
			rErr.Message = decoded.Message
		}
	}
	return rErr
}

