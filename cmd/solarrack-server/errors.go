package main

import (
	"errors"
	"net/http"

	"github.com/piwi3910/SolarRack/internal/dispatch"
	"github.com/piwi3910/SolarRack/internal/export"
	"github.com/piwi3910/SolarRack/internal/logging"
	"github.com/piwi3910/SolarRack/internal/model"
)

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var remote *dispatch.RemoteError
	switch {
	case errors.As(err, &remote):
		if remote.InvalidArgument() {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrInvalidDimension),
		errors.Is(err, export.ErrNothingToExport):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, dispatch.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, dispatch.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, dispatch.ErrTimeout):
		return "timeout"
	case statusFor(err) < 500:
		return "rejected"
	default:
		return "error"
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Error(r.Context(), "request failed", logging.Int("status", status), logging.Err(err))
	} else {
		s.log.Debug(r.Context(), "request rejected", logging.Int("status", status), logging.Err(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error(), RequestID: logging.RequestIDFromContext(r.Context())})
}
