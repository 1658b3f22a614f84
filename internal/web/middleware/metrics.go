package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/UDIEditor/internal/metrics"
)

// Metrics records request counts, latency and in-flight requests. The
// route label is read after routing so it is the matched chi pattern.
func Metrics(reg *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.HTTPRequestsInFlight.Inc()
			defer reg.HTTPRequestsInFlight.Dec()

			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := routePattern(r)
			reg.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
			reg.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
