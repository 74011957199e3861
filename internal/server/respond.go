package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/kurobon/gitgraph/internal/git"
	"github.com/kurobon/gitgraph/internal/graph"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var verr *ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	s.writeJSON(w, status, resp)
}

// statusFor maps domain errors to HTTP status codes. Errors it does not
// recognise get fallback.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, git.ErrUnknownCommand):
		return http.StatusBadRequest
	case errors.Is(err, git.ErrRefNotFound),
		errors.Is(err, graph.ErrUnknownRef):
		return http.StatusNotFound
	case errors.Is(err, git.ErrNonFastForward),
		errors.Is(err, git.ErrDetachedHead),
		errors.Is(err, graph.ErrActionNotApplicable):
		return http.StatusConflict
	case errors.Is(err, git.ErrNotRepository):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return fallback
}

// decode reads a JSON body into v and validates it. An empty body decodes to
// the zero value.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return invalidRequest("malformed JSON body: " + err.Error())
	}
	return s.validateStruct(v)
}
