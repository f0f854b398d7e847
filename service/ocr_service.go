package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TextExtractor converts raw document bytes into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, document []byte) (string, error)
}

const ocrAPIVersion = "2023-07-31"

// OCRService extracts document text through the Azure Document Intelligence
// prebuilt-read model. Analysis is asynchronous on the provider side: the
// service submits the document, then polls the returned operation until it
// completes. Failures are surfaced to the caller; nothing is retried here.
type OCRService struct {
	endpoint     string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
}

// OCRServiceOption is a functional option for OCRService.
type OCRServiceOption func(*OCRService)

// OCRWithHTTPClient overrides the HTTP client used for provider calls.
func OCRWithHTTPClient(client *http.Client) OCRServiceOption {
	return func(s *OCRService) {
		s.httpClient = client
	}
}

// OCRWithPollInterval overrides the delay between result polls.
func OCRWithPollInterval(interval time.Duration) OCRServiceOption {
	return func(s *OCRService) {
		s.pollInterval = interval
	}
}

// NewOCRService creates an OCR service for the given provider endpoint.
func NewOCRService(endpoint, apiKey string, opts ...OCRServiceOption) *OCRService {
	s := &OCRService{
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ocrAnalyzeResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		Content string `json:"content"`
	} `json:"analyzeResult"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractText runs prebuilt-read over the document and returns the
// concatenated recognized text. The document must be non-empty.
func (s *OCRService) ExtractText(ctx context.Context, document []byte) (string, error) {
	if len(document) == 0 {
		return "", ErrEmptyDocument
	}
	if s.endpoint == "" || s.apiKey == "" {
		return "", fmt.Errorf("document intelligence credentials are missing")
	}

	analyzeURL := fmt.Sprintf(
		"%s/formrecognizer/documentModels/prebuilt-read:analyze?api-version=%s",
		s.endpoint, ocrAPIVersion,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, analyzeURL, bytes.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("failed to create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("document analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("document analysis rejected: status %d: %s", resp.StatusCode, string(body))
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", fmt.Errorf("document analysis response missing Operation-Location header")
	}

	return s.pollResult(ctx, operationURL)
}

// pollResult polls the analyze operation until the provider reports a
// terminal state.
func (s *OCRService) pollResult(ctx context.Context, operationURL string) (string, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create poll request: %w", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("document analysis poll failed: %w", err)
		}

		var result ocrAnalyzeResult
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("failed to decode analysis result: %w", err)
		}

		switch result.Status {
		case "succeeded":
			return result.AnalyzeResult.Content, nil
		case "failed":
			msg := result.Error.Message
			if msg == "" {
				msg = "analysis failed without detail"
			}
			return "", fmt.Errorf("document analysis failed: %s", msg)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}
