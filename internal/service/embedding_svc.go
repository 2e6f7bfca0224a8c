package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Embedder turns texts into vectors. Implemented by EmbeddingService; tests
// substitute a deterministic fake.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]pgvector.Vector, error)
}

// maxConcurrentBatches bounds the fan-out when one document needs several
// embedding batches.
const maxConcurrentBatches = 4

// EmbeddingService calls an OpenAI-compatible embeddings endpoint. Texts are
// embedded in batches; batches for one call run concurrently and join before
// the result is returned.
type EmbeddingService struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	batchSize  int
	httpClient *http.Client
}

func NewEmbeddingService(apiKey, baseURL, model string, dimensions, batchSize int) *EmbeddingService {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if dimensions == 0 {
		dimensions = 1536
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &EmbeddingService{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
		batchSize:  batchSize,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// EmbeddingRequest represents the OpenAI embedding API request
type EmbeddingRequest struct {
	Input          interface{} `json:"input"`
	Model          string      `json:"model"`
	EncodingFormat string      `json:"encoding_format,omitempty"`
	Dimensions     int         `json:"dimensions,omitempty"`
}

// EmbeddingResponse represents the OpenAI embedding API response
type EmbeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed generates embeddings for all texts, preserving order. Any batch
// failure fails the whole call; a partial embedding set must never reach the
// index.
func (s *EmbeddingService) Embed(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) <= s.batchSize {
		return s.embedBatch(ctx, texts)
	}

	type batch struct {
		start int
		texts []string
	}
	var batches []batch
	for i := 0; i < len(texts); i += s.batchSize {
		end := i + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, batch{start: i, texts: texts[i:end]})
	}

	vectors := make([]pgvector.Vector, len(texts))
	errs := make([]error, len(batches))
	sem := make(chan struct{}, maxConcurrentBatches)

	var wg sync.WaitGroup
	for i, b := range batches {
		wg.Add(1)
		go func(i int, b batch) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out, err := s.embedBatch(ctx, b.texts)
			if err != nil {
				errs[i] = err
				return
			}
			copy(vectors[b.start:], out)
		}(i, b)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

func (s *EmbeddingService) embedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	reqBody := EmbeddingRequest{
		Input: texts,
		Model: s.model,
	}
	if s.dimensions > 0 {
		reqBody.Dimensions = s.dimensions
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode, string(body))
	}

	var embResp EmbeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(embResp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d texts", len(embResp.Data), len(texts))
	}

	vectors := make([]pgvector.Vector, len(embResp.Data))
	for _, data := range embResp.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding API returned out-of-range index %d", data.Index)
		}
		vectors[data.Index] = pgvector.NewVector(data.Embedding)
	}
	return vectors, nil
}

// GetDimensions returns the embedding dimensions
func (s *EmbeddingService) GetDimensions() int {
	return s.dimensions
}
