package modelgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"retrieval-engine/internal/domain"
)

// Embedder calls the model gateway's embed endpoint. A small expirable LRU
// caches query embeddings: follow-up turns tend to repeat or lightly vary
// the question, and a cache hit skips a network round-trip.
type Embedder struct {
	BaseURL string
	Model   string
	Client  *http.Client
	cache   *expirable.LRU[string, []float32]
}

// NewEmbedder constructs an Embedder. cacheSize <= 0 disables the cache.
func NewEmbedder(baseURL, model string, client *http.Client, cacheSize int, cacheTTL time.Duration) *Embedder {
	var cache *expirable.LRU[string, []float32]
	if cacheSize > 0 {
		cache = expirable.NewLRU[string, []float32](cacheSize, nil, cacheTTL)
	}
	return &Embedder{
		BaseURL: baseURL,
		Model:   model,
		Client:  client,
		cache:   cache,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns one embedding per input text, serving cached entries where
// possible and fetching the rest in a single request.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if e.cache != nil {
			if vec, ok := e.cache.Get(text); ok {
				results[i] = vec
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return results, nil
	}

	start := time.Now()
	reqBody := embedRequest{Model: e.Model, Input: missing}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embed", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		slog.Error("embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call embed endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed endpoint returned status %d", resp.StatusCode)
	}

	var respBody embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(respBody.Embeddings) != len(missing) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing), len(respBody.Embeddings))
	}

	for i, vec := range respBody.Embeddings {
		results[missingIdx[i]] = vec
		if e.cache != nil {
			e.cache.Add(missing[i], vec)
		}
	}

	slog.Info("embed_completed",
		slog.Int("requested", len(texts)),
		slog.Int("fetched", len(missing)),
		slog.String("model", e.Model),
		slog.Duration("elapsed", time.Since(start)))

	return results, nil
}

// Version returns the embedding model identifier.
func (e *Embedder) Version() string {
	return e.Model
}

var _ domain.Embedder = (*Embedder)(nil)
