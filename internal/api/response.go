package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"StockLens/internal/analysis"
	"StockLens/internal/collector"
	"StockLens/internal/series"
)

// errBadRequest marks malformed query parameters.
var errBadRequest = errors.New("bad request")

type envelope struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data}); err != nil {
		s.log.Error().Err(err).Msg("encode JSON response")
	}
}

// statusOf maps pipeline errors to HTTP status codes.
func statusOf(err error) int {
	var fe *collector.FetchError
	switch {
	case series.IsInvalidRange(err),
		errors.Is(err, analysis.ErrInvalidWindows),
		errors.Is(err, analysis.ErrEmptySymbol),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, collector.ErrUnknownSymbol):
		return http.StatusNotFound
	case errors.As(err, &fe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) sendError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	resp := errorResponse{Error: err.Error()}
	var fe *collector.FetchError
	switch {
	case series.IsInvalidRange(err):
		resp.Kind = "invalid_range"
	case errors.As(err, &fe):
		resp.Kind = "fetch_failure"
	}
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Int("status", status).Msg("request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error().Err(err).Msg("encode error response")
	}
}
