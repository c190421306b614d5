package middleware

import (
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/tracing"
)

// Tracing opens a root span per request, keyed by the request ID, and logs
// the span tree once the handler returns. It must run inside RequestID.
func Tracing(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+r.URL.Path, GetRequestID(r.Context()))
			defer func() {
				span.End()
				span.Log()
			}()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
