package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/coursebuilder/backend/internal/apperrors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError sends the status and message matching the kind of err
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, err error) {
	h.respondError(w, apperrors.HTTPStatus(err), apperrors.Message(err))
}

// decodeJSON decodes the request body into dst, answering 400 on malformed JSON
func (h *BaseHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// idParam parses the {id} path parameter, answering 400 if it is not a positive integer
func (h *BaseHandler) idParam(w http.ResponseWriter, r *http.Request, entity string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid "+entity+" ID")
		return 0, false
	}
	return id, true
}
