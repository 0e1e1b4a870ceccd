package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/service"
)

type RecipeHandler struct {
	recipes *service.RecipeService
	baseURL string
	logger  *slog.Logger
}

// NewRecipeHandler creates the handler. baseURL prefixes generated short
// links, e.g. "https://foodgram.example".
func NewRecipeHandler(recipes *service.RecipeService, baseURL string, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes: recipes,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// HandleList serves GET /api/recipes?page&limit&author&is_favorited&is_in_shopping_cart.
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := pageOptions(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	viewerID, _ := auth.UserIDFromContext(r.Context())
	filter := repository.RecipeFilter{
		ListOptions:        opts,
		ViewerID:           viewerID,
		FavoritedOnly:      boolParam(r, "is_favorited"),
		InShoppingCartOnly: boolParam(r, "is_in_shopping_cart"),
	}
	if raw := r.URL.Query().Get("author"); raw != "" {
		authorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, h.logger, apperror.ValidationFailed("author", "author must be a user id"))
			return
		}
		filter.AuthorID = authorID
	}

	page, err := h.recipes.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, page)
}

func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "recipe")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	viewerID, _ := auth.UserIDFromContext(r.Context())
	view, err := h.recipes.Get(r.Context(), id, viewerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

// HandleCreate serves POST /api/recipes. Requires RequireAuth upstream.
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.RecipeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.recipes.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, view)
}

// HandleUpdate serves PATCH /api/recipes/{id}. The body must carry every
// field; tags and ingredients are replaced wholesale.
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id", "recipe")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in service.RecipeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.recipes.Update(r.Context(), id, userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id", "recipe")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.recipes.Delete(r.Context(), id, userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetLink serves GET /api/recipes/{id}/get-link.
func (h *RecipeHandler) HandleGetLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "recipe")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.recipes.GetBrief(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{
		"short-link": fmt.Sprintf("%s/s/%d", h.baseURL, id),
	})
}

// HandleShortLink serves GET /s/{id} by redirecting to the recipe.
func (h *RecipeHandler) HandleShortLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "recipe")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.recipes.GetBrief(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/api/recipes/%d", id), http.StatusFound)
}
