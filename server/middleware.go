package server

import (
	"context"
	"net/http"
	"time"

	"github.com/brettbedarf/webfm"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user"

// requestInfo is shared between the request logger and the handlers below it
// so the completion log can carry the authenticated user.
type requestInfo struct {
	user string
}

const requestInfoKey contextKey = "request_info"

// requestIDHeader carries the request id in both directions.
const requestIDHeader = "X-Request-Id"

// withRequestID keeps a client supplied request id or assigns a new uuid,
// stores it where middleware.GetReqID finds it and echoes it back.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// requestLogger logs each request on completion with its status and duration.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{}
		r = r.WithContext(context.WithValue(r.Context(), requestInfoKey, info))

		h.logger.Trace().
			Str("request_id", requestID(r)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Msg("Request started")

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Info().
			Str("request_id", requestID(r)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("user", info.user).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

// authenticate resolves the HTTP Basic credentials into the username the
// request acts as. Anonymous requests act as the server process unless
// authentication is required.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		switch {
		case !ok && h.cfg.RequireAuth:
			h.unauthorized(w, "Authentication required")
			return
		case !ok:
			username = ""
		case username == "" || !h.auth.Authenticate(username, password):
			h.logger.Debug().Str("request_id", requestID(r)).Str("user", username).Msg("Authentication failed")
			h.unauthorized(w, "Invalid credentials")
			return
		}

		if info, ok := r.Context().Value(requestInfoKey).(*requestInfo); ok {
			info.user = username
		}
		ctx := context.WithValue(r.Context(), userContextKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="webfm", charset="UTF-8"`)
	JSON(w, http.StatusUnauthorized, errorResponse{
		Error: &webfm.ActionError{Code: http.StatusUnauthorized, Message: msg},
	})
}

// userFromContext returns the username set by authenticate, or "" for
// anonymous requests.
func userFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userContextKey).(string)
	return user
}
