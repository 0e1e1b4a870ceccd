package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/foodgram/internal/service"
)

// CatalogHandler serves the read-only tag and ingredient endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListTags(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, tags)
}

func (h *CatalogHandler) HandleGetTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "tag")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	tag, err := h.catalog.GetTag(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, tag)
}

// HandleListIngredients serves GET /api/ingredients?name=<prefix>.
func (h *CatalogHandler) HandleListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.catalog.ListIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ingredients)
}

func (h *CatalogHandler) HandleGetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "ingredient")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	ingredient, err := h.catalog.GetIngredient(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ingredient)
}
