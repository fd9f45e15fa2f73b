package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/docentlabs/docent/pkg/corpus"
)

// searchResult is a single retrieval hit.
type searchResult struct {
	Score      float32     `json:"score"`
	Text       string      `json:"text"`
	DocumentID string      `json:"document_id"`
	SourceURI  string      `json:"source_uri"`
	Span       corpus.Span `json:"span"`
}

// searchOutput is the GET /v1/search response body.
type searchOutput struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
	Count   int            `json:"count"`
}

// handleSearch handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//
// The retriever's configured top-K and relevance floor apply; an empty
// result list is the normal "no evidence" outcome.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	if s.config.Retriever == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
			Error: "search is not configured: a retriever is required",
		})
	}

	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: "query parameter is required",
		})
	}

	results, err := s.config.Retriever.Retrieve(c.Context(), query)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{
			Error: err.Error(),
			Code:  "retrieval_failed",
		})
	}

	out := searchOutput{
		Query:   query,
		Results: make([]searchResult, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		out.Results[i] = searchResult{
			Score:      r.Score,
			Text:       r.Fragment.Text,
			DocumentID: r.Fragment.DocumentID,
			SourceURI:  r.Fragment.SourceURI,
			Span:       r.Fragment.Span,
		}
	}
	return c.JSON(out)
}
