package api

import (
	"net/http"

	"github.com/example/eri-mobile-shop/internal/query"
)

// CategoryHandlers serves the categories derived from the catalog.
// The same listing backs the storefront filter and the admin overview.
type CategoryHandlers struct {
	queryHandler *query.Handler
}

func NewCategoryHandlers(queryHandler *query.Handler) *CategoryHandlers {
	return &CategoryHandlers{queryHandler: queryHandler}
}

// CategoryNames is the storefront filter list, "all" first
type CategoryNames struct {
	Categories []string `json:"categories"`
}

// ListCategories returns the category names for the storefront filter
func (h *CategoryHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.queryHandler.ListCategories(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}

	names := make([]string, 0, len(summaries)+1)
	names = append(names, query.CategoryAll)
	for _, s := range summaries {
		names = append(names, s.Name)
	}
	respondJSON(w, http.StatusOK, CategoryNames{Categories: names})
}

// ListCategorySummaries returns per-category counts, stock and average price
func (h *CategoryHandlers) ListCategorySummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.queryHandler.ListCategories(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}
