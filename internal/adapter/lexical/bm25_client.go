package lexical

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"retrieval-engine/internal/domain"
)

// BM25Client implements domain.LexicalSearcher against the keyword search
// service that indexes the same passage corpus.
type BM25Client struct {
	BaseURL string
	Client  *http.Client
}

// NewBM25Client constructs a client for the given search-service URL.
// If client is nil, a default http.Client with the given timeout is used.
func NewBM25Client(baseURL string, timeout time.Duration, client *http.Client) *BM25Client {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &BM25Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
	}
}

type searchResponse struct {
	Query string      `json:"query"`
	Hits  []searchHit `json:"hits"`
}

type searchHit struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
	Source      string  `json:"source"`
	TagPath     string  `json:"tag_path"`
	ResourceURL string  `json:"resource_url,omitempty"`
	Certificate bool    `json:"certificate,omitempty"`
	ChunkIndex  int     `json:"chunk_index,omitempty"`
	ChunkTotal  int     `json:"chunk_total,omitempty"`
}

// Search performs BM25 keyword search. Transport failures and non-200
// responses surface as domain.ErrIndexUnavailable so the pipeline can
// degrade to dense-only ranking.
func (c *BM25Client) Search(ctx context.Context, query string, k int) ([]domain.LexicalHit, error) {
	u, err := url.Parse(fmt.Sprintf("%s/v1/search", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("k", strconv.Itoa(k))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: lexical search: %v", domain.ErrIndexUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: lexical search returned status %d", domain.ErrIndexUnavailable, resp.StatusCode)
	}

	var sResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]domain.LexicalHit, 0, len(sResp.Hits))
	for i, h := range sResp.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			// A malformed ID cannot be deduplicated against the dense
			// channel; drop the hit rather than the whole result.
			continue
		}
		hits = append(hits, domain.LexicalHit{
			Passage: domain.Passage{
				ID:   id,
				Text: h.Text,
				Metadata: domain.PassageMetadata{
					Source:      h.Source,
					TagPath:     h.TagPath,
					ResourceURL: h.ResourceURL,
					Certificate: h.Certificate,
					ChunkIndex:  h.ChunkIndex,
					ChunkTotal:  h.ChunkTotal,
				},
			},
			Score: h.Score,
			Rank:  i + 1,
		})
	}
	return hits, nil
}

var _ domain.LexicalSearcher = (*BM25Client)(nil)
