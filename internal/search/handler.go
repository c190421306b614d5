package search

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
)

// apiResponse is the JSON contract of GET /api/search, shared with the
// browser typeahead.
type apiResponse struct {
	Posts []model.Post `json:"posts"`
	Total int          `json:"total"`
	Error string       `json:"error,omitempty"`
}

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		logger:  slog.Default().With("component", "search-handler"),
	}
}

// API serves GET /api/search?q=. Failures are reported in the body with a
// 200 status so the dropdown can render an error row instead of breaking.
func (h *Handler) API(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), analytics.SourceAPI)
	if err != nil {
		h.writeJSON(w, apiResponse{Posts: []model.Post{}, Error: "Failed to search posts"})
		return
	}
	h.writeJSON(w, apiResponse{Posts: result.Posts, Total: result.Total})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write search response", "error", err)
	}
}
