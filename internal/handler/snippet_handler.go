package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/devsnippets/devsnippets/internal/domain"
	"github.com/devsnippets/devsnippets/internal/port"
	"github.com/devsnippets/devsnippets/internal/service"
)

// SnippetHandler handles snippet CRUD endpoints.
type SnippetHandler struct {
	snippets *service.SnippetService
}

// NewSnippetHandler creates a new snippet handler.
func NewSnippetHandler(snippets *service.SnippetService) *SnippetHandler {
	return &SnippetHandler{snippets: snippets}
}

// Register sets up snippet routes.
func (h *SnippetHandler) Register(api fiber.Router) {
	api.Post("/snippets", h.Create)
	api.Get("/snippets", h.List)
	api.Get("/snippets/:id", h.Get)
	api.Put("/snippets/:id", h.Update)
	api.Delete("/snippets/:id", h.Delete)
	api.Get("/languages", h.Languages)
}

// Create stores a new snippet and computes its embedding.
func (h *SnippetHandler) Create(c fiber.Ctx) error {
	var body domain.SnippetCreate
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Title) == "" || strings.TrimSpace(body.Code) == "" || strings.TrimSpace(body.Language) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title, code and language are required"})
	}

	snippet, err := h.snippets.Create(c.Context(), &body)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(snippet)
}

// List returns snippets with skip/limit pagination.
func (h *SnippetHandler) List(c fiber.Ctx) error {
	skip := queryInt(c, "skip", 0)
	limit := queryInt(c, "limit", 100)

	snippets, err := h.snippets.List(c.Context(), skip, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if snippets == nil {
		snippets = []domain.Snippet{}
	}
	return c.JSON(snippets)
}

// Get returns one snippet by ID.
func (h *SnippetHandler) Get(c fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid snippet id"})
	}

	snippet, err := h.snippets.Get(c.Context(), id)
	if err != nil {
		return snippetError(c, err)
	}
	return c.JSON(snippet)
}

// Update applies a partial update, re-embedding when content changed.
func (h *SnippetHandler) Update(c fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid snippet id"})
	}

	var body domain.SnippetUpdate
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	snippet, err := h.snippets.Update(c.Context(), id, &body)
	if err != nil {
		return snippetError(c, err)
	}
	return c.JSON(snippet)
}

// Delete removes a snippet and its index entry.
func (h *SnippetHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid snippet id"})
	}

	if err := h.snippets.Delete(c.Context(), id); err != nil {
		return snippetError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Languages returns the distinct programming languages in use.
func (h *SnippetHandler) Languages(c fiber.Ctx) error {
	languages, err := h.snippets.Languages(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if languages == nil {
		languages = []string{}
	}
	return c.JSON(languages)
}

func snippetError(c fiber.Ctx, err error) error {
	if errors.Is(err, port.ErrSnippetNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "snippet not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func queryInt(c fiber.Ctx, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}
