package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// RequestIDHeader is read from incoming requests and echoed on responses
const RequestIDHeader = "X-Request-Id"

const maxRequestIDLen = 128

// RequestID tags each request with an id, reusing a sane incoming one.
// The id is added to the request logger as req_id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("req_id", id)
		})
		r = r.WithContext(context.WithValue(r.Context(), RequestIDKey, id))
		next.ServeHTTP(w, r)
	})
}

// FromContext returns the request id, or "" outside a request
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func validID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
