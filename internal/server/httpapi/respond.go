package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filevault/internal/common"
)

const (
	msgUnauthorized = "Unauthorized"
	msgNotFound     = "Not found"
	msgBadRequest   = "Bad request"
	msgTooLarge     = "Request entity too large"
	msgUnavailable  = "Service unavailable"
	msgInternal     = "Internal server error"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(ctx, "failed to encode response", "error", err)
	}
}

// writeError maps service errors onto status codes. Only validation
// messages reach the client verbatim; everything unexpected is logged and
// answered with a generic 500.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		validation *common.ValidationError
		tooLarge   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validation):
		s.writeJSON(ctx, w, http.StatusBadRequest, errorBody{validation.Message})
	case errors.As(err, &tooLarge):
		s.writeJSON(ctx, w, http.StatusRequestEntityTooLarge, errorBody{msgTooLarge})
	case errors.Is(err, common.ErrorUnauthorized):
		s.writeJSON(ctx, w, http.StatusUnauthorized, errorBody{msgUnauthorized})
	case errors.Is(err, common.ErrorNotFound):
		s.writeJSON(ctx, w, http.StatusNotFound, errorBody{msgNotFound})
	case errors.Is(err, common.ErrorBadRequest):
		s.writeJSON(ctx, w, http.StatusBadRequest, errorBody{msgBadRequest})
	case errors.Is(err, common.ErrorUnavailable):
		s.writeJSON(ctx, w, http.StatusServiceUnavailable, errorBody{msgUnavailable})
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		s.writeJSON(ctx, w, http.StatusInternalServerError, errorBody{msgInternal})
	}
}
