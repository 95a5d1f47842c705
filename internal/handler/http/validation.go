package http

import (
	"errors"
	"net/http"

	"autoblog/internal/handler/http/respond"
)

const (
	maxPathLength  = 2048
	maxQueryLength = 4096

	// DefaultMaxBodyBytes covers a generation request with a long keyword list.
	DefaultMaxBodyBytes int64 = 1 << 20
)

// InputValidation rejects oversized paths and query strings and caps the
// request body at maxBody bytes. A non-positive maxBody uses DefaultMaxBodyBytes.
func InputValidation(maxBody int64) Middleware {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.Path) > maxPathLength {
				respond.SafeError(w, http.StatusRequestURITooLong, errors.New("path too long"))
				return
			}
			if len(r.URL.RawQuery) > maxQueryLength {
				respond.SafeError(w, http.StatusRequestURITooLong, errors.New("query too long"))
				return
			}
			if r.ContentLength > maxBody {
				respond.SafeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too long"))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBody)
			}
			next.ServeHTTP(w, r)
		})
	}
}
