// Package handler translates HTTP requests into service calls and service
// results into JSON (or plain-text) responses.
//
// Error bodies follow two shapes:
//
//	{"detail": "recipe is not in favorites"}        request-level problem
//	{"cooking_time": ["must be between 1 and 60"]}  problem with one field
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/repository"
)

const (
	defaultPageSize = 6
	maxPageSize     = 100
	maxBodyBytes    = 1 << 20
)

type DetailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps an error to a status code via the apperror sentinels.
// Validation errors and conflicts share 400; the body tells them apart.
// Errors that are not *AppError become a generic 500 and are logged; the
// client never sees their text.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, logger, http.StatusInternalServerError, DetailResponse{Detail: "an internal error occurred"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	}

	if appErr.Field != "" {
		writeJSON(w, logger, status, map[string][]string{appErr.Field: {appErr.Message}})
		return
	}
	writeJSON(w, logger, status, DetailResponse{Detail: appErr.Message})
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields so typos
// in a payload surface as errors instead of silently dropped values.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("", fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// pathID parses a numeric URL parameter. A malformed id cannot match any
// row, so it is reported as not found.
func pathID(r *http.Request, param, resource string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource, raw)
	}
	return id, nil
}

// pageOptions reads ?page=N&limit=M. page is 1-based.
func pageOptions(r *http.Request) (repository.ListOptions, error) {
	q := r.URL.Query()

	page, err := positiveIntParam(q.Get("page"), "page", 1)
	if err != nil {
		return repository.ListOptions{}, err
	}
	limit, err := positiveIntParam(q.Get("limit"), "limit", defaultPageSize)
	if err != nil {
		return repository.ListOptions{}, err
	}
	limit = min(limit, maxPageSize)
	if page-1 > math.MaxInt/limit {
		return repository.ListOptions{}, apperror.ValidationFailed("page", "page is too large")
	}

	return repository.ListOptions{Limit: limit, Offset: (page - 1) * limit}, nil
}

func positiveIntParam(raw, name string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.ValidationFailed(name, name+" must be a positive integer")
	}
	return n, nil
}

// boolParam treats "1" and "true" as set.
func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || v == "true"
}
