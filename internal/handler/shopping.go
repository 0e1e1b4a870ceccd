package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/service"
)

type ShoppingListHandler struct {
	shopping *service.ShoppingListService
	logger   *slog.Logger
}

func NewShoppingListHandler(shopping *service.ShoppingListService, logger *slog.Logger) *ShoppingListHandler {
	return &ShoppingListHandler{shopping: shopping, logger: logger}
}

// HandleDownload serves the aggregated shopping list as a text attachment.
// The body is rendered into a buffer first so a storage error can still
// produce a JSON error response.
func (h *ShoppingListHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var buf bytes.Buffer
	if err := h.shopping.Export(r.Context(), userID, &buf); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, service.ShoppingListFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write shopping list", slog.String("error", err.Error()))
	}
}
