package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/service"
)

// UserHandler serves profiles and the follow endpoints.
type UserHandler struct {
	users  *service.UserService
	subs   *service.SubscriptionService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, subs *service.SubscriptionService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, subs: subs, logger: logger}
}

func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	view, err := h.users.Me(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	viewerID, _ := auth.UserIDFromContext(r.Context())
	view, err := h.users.Get(r.Context(), id, viewerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

// HandleSubscribe serves POST /api/users/{id}/subscribe?recipes_limit=N.
func (h *UserHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	authorID, err := pathID(r, "id", "user")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := service.ParseRecipesLimit(r.URL.Query().Get("recipes_limit"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	sub, err := h.subs.Subscribe(r.Context(), userID, authorID, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, sub)
}

func (h *UserHandler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	authorID, err := pathID(r, "id", "user")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.subs.Unsubscribe(r.Context(), userID, authorID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListSubscriptions serves GET /api/users/subscriptions.
func (h *UserHandler) HandleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	opts, err := pageOptions(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := service.ParseRecipesLimit(r.URL.Query().Get("recipes_limit"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	page, err := h.subs.List(r.Context(), userID, opts, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, page)
}
