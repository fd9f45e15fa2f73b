// Package qdrant provides a remote index backend over Qdrant's REST API for
// corpora that outgrow the in-process exact index. It implements the same
// Searcher contract; the relevance floor maps onto Qdrant's score_threshold.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/corpus"
	"github.com/docentlabs/docent/pkg/index"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "docent"

// Store is a minimal REST client to Qdrant. It assumes cosine distance and
// creates the collection on first use.
type Store struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the Qdrant server URL (e.g., "http://localhost:6333").
	URL string

	// APIKey is an optional API key sent as the api-key header.
	APIKey string

	// Collection is the collection name. Defaults to DefaultCollection.
	Collection string

	// Timeout is the per-request timeout. Defaults to 15s.
	Timeout time.Duration
}

// NewStore creates a Qdrant-backed store.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Store{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Init creates the collection with the given dimensionality if it does not
// exist. Qdrant returns 200 for an existing collection with the same schema.
func (s *Store) Init(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", index.ErrDimensionMismatch)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, nil)
}

// Upsert stores embedded fragments as Qdrant points. Fragment metadata rides
// in the point payload so Search can reconstruct full results.
func (s *Store) Upsert(ctx context.Context, embedded []corpus.EmbeddedFragment) error {
	if len(embedded) == 0 {
		return nil
	}
	points := make([]map[string]any, len(embedded))
	for i, ef := range embedded {
		points[i] = map[string]any{
			"id":     ef.Fragment.ID,
			"vector": ef.Vector,
			"payload": map[string]any{
				"document_id": ef.Fragment.DocumentID,
				"source_uri":  ef.Fragment.SourceURI,
				"text":        ef.Fragment.Text,
				"span_start":  ef.Fragment.Span.Start,
				"span_end":    ef.Fragment.Span.End,
				"token_count": ef.Fragment.TokenCount,
				"position":    i,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body, nil)
}

type searchResponse struct {
	Result []struct {
		ID      string         `json:"id"`
		Score   float32        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Search queries the collection for up to k points scoring at or above
// minScore. Results come back in descending score order; equal scores are
// re-sorted by ingestion position to keep the ordering deterministic.
func (s *Store) Search(ctx context.Context, vector []float32, k int, minScore float32) ([]index.Result, error) {
	if k <= 0 {
		return []index.Result{}, nil
	}
	body := map[string]any{
		"vector":          vector,
		"limit":           k,
		"score_threshold": minScore,
		"with_payload":    true,
	}

	var resp searchResponse
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", s.collection), body, &resp); err != nil {
		return nil, err
	}

	type ordered struct {
		res index.Result
		pos int
	}
	out := make([]ordered, 0, len(resp.Result))
	for _, r := range resp.Result {
		frag := corpus.Fragment{
			ID:         r.ID,
			DocumentID: asString(r.Payload["document_id"]),
			SourceURI:  asString(r.Payload["source_uri"]),
			Text:       asString(r.Payload["text"]),
			Span: corpus.Span{
				Start: asInt(r.Payload["span_start"]),
				End:   asInt(r.Payload["span_end"]),
			},
			TokenCount: asInt(r.Payload["token_count"]),
		}
		out = append(out, ordered{
			res: index.Result{Fragment: frag, Score: r.Score},
			pos: asInt(r.Payload["position"]),
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].res.Score != out[b].res.Score {
			return out[a].res.Score > out[b].res.Score
		}
		return out[a].pos < out[b].pos
	})

	results := make([]index.Result, len(out))
	for i, o := range out {
		results[i] = o.res
	}
	return results, nil
}

// Clear drops and recreates the collection. Used for atomic-style rebuilds
// against a remote backend.
func (s *Store) Clear(ctx context.Context, dimensions int) error {
	if err := s.do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%s", s.collection), nil, nil); err != nil {
		return err
	}
	return s.Init(ctx, dimensions)
}

func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling qdrant request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("creating qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant returned status %d: %s", resp.StatusCode, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding qdrant response: %w", err)
		}
	}
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	f, _ := v.(float64)
	return int(f)
}

var _ index.Searcher = (*Store)(nil)
