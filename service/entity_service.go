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

// EntityExtractor converts plain text into the clinical entities it mentions,
// in document order.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]string, error)
}

const entityAPIVersion = "2023-04-01"

// EntityService recognizes healthcare entities through the Azure Language
// analyze-text jobs API. Empty input short-circuits to an empty result without
// a provider call, so blank documents cost neither latency nor quota.
type EntityService struct {
	endpoint     string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
}

// EntityServiceOption is a functional option for EntityService.
type EntityServiceOption func(*EntityService)

// EntityWithHTTPClient overrides the HTTP client used for provider calls.
func EntityWithHTTPClient(client *http.Client) EntityServiceOption {
	return func(s *EntityService) {
		s.httpClient = client
	}
}

// EntityWithPollInterval overrides the delay between job polls.
func EntityWithPollInterval(interval time.Duration) EntityServiceOption {
	return func(s *EntityService) {
		s.pollInterval = interval
	}
}

// NewEntityService creates an entity service for the given provider endpoint.
func NewEntityService(endpoint, apiKey string, opts ...EntityServiceOption) *EntityService {
	s := &EntityService{
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

type entityJobResult struct {
	Status string `json:"status"`
	Tasks  struct {
		Items []struct {
			Status  string `json:"status"`
			Results struct {
				Documents []struct {
					ID       string `json:"id"`
					Entities []struct {
						Text string `json:"text"`
					} `json:"entities"`
				} `json:"documents"`
				Errors []struct {
					ID    string `json:"id"`
					Error struct {
						Code    string `json:"code"`
						Message string `json:"message"`
					} `json:"error"`
				} `json:"errors"`
			} `json:"results"`
		} `json:"items"`
	} `json:"tasks"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ExtractEntities submits the text for healthcare entity recognition, polls
// the job to completion and flattens recognized span text into an ordered
// list. Entities with empty text are skipped. A per-document provider error
// is a hard failure carrying the provider's message.
func (s *EntityService) ExtractEntities(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return []string{}, nil
	}
	if s.endpoint == "" || s.apiKey == "" {
		return nil, fmt.Errorf("language service credentials are missing")
	}

	payload := map[string]any{
		"analysisInput": map[string]any{
			"documents": []map[string]any{
				{"id": "1", "language": "en", "text": text},
			},
		},
		"tasks": []map[string]any{
			{"kind": "Healthcare"},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	jobURL := fmt.Sprintf("%s/language/analyze-text/jobs?api-version=%s", s.endpoint, entityAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, jobURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("healthcare analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("healthcare analysis rejected: status %d: %s", resp.StatusCode, string(respBody))
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return nil, fmt.Errorf("healthcare analysis response missing operation-location header")
	}

	result, err := s.pollJob(ctx, operationURL)
	if err != nil {
		return nil, err
	}
	return flattenEntities(result)
}

// pollJob polls the analysis job until the provider reports a terminal state.
func (s *EntityService) pollJob(ctx context.Context, operationURL string) (*entityJobResult, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create poll request: %w", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("healthcare analysis poll failed: %w", err)
		}

		var result entityJobResult
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode analysis job: %w", err)
		}

		switch result.Status {
		case "succeeded":
			return &result, nil
		case "failed", "cancelled":
			msg := "job " + result.Status
			if len(result.Errors) > 0 {
				msg = result.Errors[0].Message
			}
			return nil, fmt.Errorf("healthcare analysis failed: %s", msg)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// flattenEntities collects entity span text across all task results in
// provider order. Document-level errors abort the whole extraction.
func flattenEntities(result *entityJobResult) ([]string, error) {
	entities := []string{}
	for _, item := range result.Tasks.Items {
		if len(item.Results.Errors) > 0 {
			docErr := item.Results.Errors[0]
			return nil, fmt.Errorf("healthcare analysis error for document %s: %s", docErr.ID, docErr.Error.Message)
		}
		for _, doc := range item.Results.Documents {
			for _, entity := range doc.Entities {
				if entity.Text != "" {
					entities = append(entities, entity.Text)
				}
			}
		}
	}
	return entities, nil
}
