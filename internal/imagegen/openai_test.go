package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateImage_MissingAPIKey(t *testing.T) {
	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	client := NewOpenAIClient(Config{BaseURL: server.URL})

	_, err := client.GenerateImage(context.Background(), "a prompt")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if requested {
		t.Fatalf("expected no network call without a credential")
	}
}

func TestGenerateImage_Success(t *testing.T) {
	imageBytes := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body decode error: %v", err)
		}
		if req["prompt"] != "a prompt" {
			t.Errorf("unexpected prompt %v", req["prompt"])
		}
		if req["n"] != float64(1) {
			t.Errorf("expected n=1, got %v", req["n"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"b64_json": base64.StdEncoding.EncodeToString(imageBytes)},
			},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})

	data, err := client.GenerateImage(context.Background(), "a prompt")
	if err != nil {
		t.Fatalf("GenerateImage error: %v", err)
	}
	if string(data) != string(imageBytes) {
		t.Fatalf("unexpected image bytes %v", data)
	}
}

func TestGenerateImage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"message": "prompt rejected",
				"type":    "invalid_request_error",
			},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.GenerateImage(context.Background(), "a prompt")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "prompt rejected" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestGenerateImage_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{}})
	}))
	defer server.Close()

	client := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.GenerateImage(context.Background(), "a prompt")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateImage_Timeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 50 * time.Millisecond})

	_, err := client.GenerateImage(context.Background(), "a prompt")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestGenerateImage_InvalidBase64(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": "!!! not base64 !!!"}},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})

	if _, err := client.GenerateImage(context.Background(), "a prompt"); err == nil {
		t.Fatalf("expected error for invalid base64 payload")
	}
}
