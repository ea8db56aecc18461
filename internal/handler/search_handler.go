package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/devsnippets/devsnippets/internal/service"
)

// SearchHandler handles semantic search endpoints.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Register sets up search routes.
func (h *SearchHandler) Register(api fiber.Router) {
	api.Post("/search", h.Search)
}

// Search ranks stored snippets by similarity to the query text.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var body struct {
		Query     string   `json:"query"`
		Limit     int      `json:"limit"`
		Threshold *float64 `json:"threshold"`
		Mode      string   `json:"mode"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}
	if body.Mode != "" && body.Mode != service.ModeExhaustive && body.Mode != service.ModeIndexed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "mode must be exhaustive or indexed"})
	}

	req := service.SearchRequest{
		Query:     body.Query,
		Limit:     body.Limit,
		Threshold: -1, // no explicit threshold: policy defaults with fallback retry
		Mode:      body.Mode,
	}
	if body.Threshold != nil {
		req.Threshold = *body.Threshold
	}

	resp, err := h.search.Search(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	results := make([]fiber.Map, len(resp.Matches))
	for i, m := range resp.Matches {
		results[i] = fiber.Map{
			"id":          m.Snippet.ID,
			"title":       m.Snippet.Title,
			"description": m.Snippet.Description,
			"code":        m.Snippet.Code,
			"language":    m.Snippet.Language,
			"tags":        m.Snippet.Tags,
			"created_at":  m.Snippet.CreatedAt,
			"similarity":  m.Similarity,
		}
	}

	return c.JSON(fiber.Map{
		"snippets":    results,
		"total_count": resp.TotalCount,
		"query":       resp.Query,
	})
}
