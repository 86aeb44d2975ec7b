package middleware

import (
	"net/http"

	"github.com/go-chi/render"

	"vaultgate/pkg/log"
)

var (
	errInternal = http.StatusText(http.StatusInternalServerError)
)

type internalError struct {
	Code    int         `json:"code,omitempty"`
	Message interface{} `json:"message,omitempty"`
}

type internalErrorResponse struct {
	Error *internalError `json:"error,omitempty"`
}

// Recoverer turns a panic in a handler into a 500 JSON response.
func Recoverer(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				log.FromContext(r.Context()).Errorw("handler panicked", "panic", rvr, "path", r.URL.Path)
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, &internalErrorResponse{
					Error: &internalError{Code: http.StatusInternalServerError, Message: errInternal},
				})
			}
		}()

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
