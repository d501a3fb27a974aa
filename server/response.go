package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/identity"
	"github.com/brettbedarf/webfm/internal/util"
)

type errorResponse struct {
	Error *webfm.ActionError `json:"error"`
}

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already sent
		logger := util.GetLogger("Server")
		logger.Debug().Err(err).Msg("Failed to encode response")
	}
}

// Error writes err as {"error": {"code", "message"}} with the status mapped
// from its Kind. Unclassified failures are logged and reported without detail.
//
// A failed identity restore drops the connection instead, so the goroutine
// and its thread are not reused.
func (h *Handler) Error(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, identity.ErrRestoreFailed) {
		h.logger.Error().Err(err).Str("request_id", requestID(r)).Msg("Dropping connection")
		panic(http.ErrAbortHandler)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		h.logger.Debug().Err(err).Str("request_id", requestID(r)).Msg("Request canceled")
		JSON(w, http.StatusServiceUnavailable, errorResponse{Error: &webfm.ActionError{
			Code:    http.StatusServiceUnavailable,
			Message: "request canceled",
		}})
		return
	}

	kind := webfm.KindOf(err)
	status := kind.HTTPStatus()
	msg := err.Error()
	if kind == webfm.Fatal {
		h.logger.Error().Err(err).Str("request_id", requestID(r)).Msg("Request failed")
		msg = http.StatusText(status)
	} else {
		h.logger.Debug().Err(err).Str("request_id", requestID(r)).Str("kind", kind.String()).Msg("Request rejected")
	}
	JSON(w, status, errorResponse{Error: &webfm.ActionError{Code: status, Message: msg}})
}
