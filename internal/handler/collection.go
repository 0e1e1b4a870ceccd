package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/service"
)

// CollectionHandler exposes one per-user recipe collection (favorites or
// the shopping list) as POST/DELETE on /api/recipes/{id}/<collection>.
type CollectionHandler struct {
	collection *service.CollectionService
	logger     *slog.Logger
}

func NewCollectionHandler(collection *service.CollectionService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{collection: collection, logger: logger}
}

func (h *CollectionHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	recipeID, err := pathID(r, "id", "recipe")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	brief, err := h.collection.Add(r.Context(), userID, recipeID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, brief)
}

func (h *CollectionHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	recipeID, err := pathID(r, "id", "recipe")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.collection.Remove(r.Context(), userID, recipeID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
