package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-image-1"
	defaultSize    = "1024x1536"
	defaultQuality = "medium"
	defaultTimeout = 2 * time.Minute
)

type openAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	size       string
	quality    string
	httpClient *http.Client
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Size    string
	Quality string
	Timeout time.Duration
}

// NewOpenAIClient creates a Client backed by the OpenAI images endpoint.
// A missing API key is not an error here; it is reported per request so the
// orchestrator can surface it as a distinct user-facing condition.
func NewOpenAIClient(cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Size == "" {
		cfg.Size = defaultSize
	}
	if cfg.Quality == "" {
		cfg.Quality = defaultQuality
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &openAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		size:       cfg.Size,
		quality:    cfg.Quality,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type imageGenerationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	N       int    `json:"n"`
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *openAIClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(imageGenerationRequest{
		Model:   c.model,
		Prompt:  prompt,
		Size:    c.size,
		Quality: c.quality,
		N:       1,
	})
	if err != nil {
		return nil, err
	}

	postURL := c.baseURL + "/images/generations"

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json; charset=UTF-8")
	request.Header.Set("Authorization", "Bearer "+c.apiKey)

	response, err := c.httpClient.Do(request)
	if err != nil {
		if isTimeout(err) {
			slog.Warn("image API request timed out", "url", postURL)
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		slog.Warn("image API request failed", "url", postURL, "error", err)
		return nil, err
	}
	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	respStruct := &imageGenerationResponse{}
	if err = json.Unmarshal(body, respStruct); err != nil {
		slog.Warn("unexpected image API response", "url", postURL, "status", response.StatusCode)
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: response.StatusCode}
		if respStruct.Error != nil {
			apiErr.Message = respStruct.Error.Message
		}
		return nil, apiErr
	}

	if len(respStruct.Data) == 0 || respStruct.Data[0].B64JSON == "" {
		return nil, ErrEmptyResponse
	}

	imageData, err := base64.StdEncoding.DecodeString(respStruct.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image payload: %w", err)
	}

	return imageData, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
