package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"

	"vaultgate/pkg/log"
)

// ZapLogger puts a request-scoped logger into the context and writes one
// access log line per request with all the fields handlers added.
func ZapLogger(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		logCtx := log.ToContext(r.Context(), log.Default())

		next.ServeHTTP(ww, r.WithContext(logCtx))

		logger := log.ExtractLogger(logCtx)
		logger.Infow(
			r.Method+" "+r.Host+r.RequestURI,
			"status", ww.Status(),
			"ip", r.RemoteAddr,
			"latency", time.Since(start),
		)
	}
	return http.HandlerFunc(fn)
}
