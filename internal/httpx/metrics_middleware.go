package httpx

import (
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// MetricsMiddleware counts requests by method and status class. Paths are not
// used as labels since titles appear in them.
func MetricsMiddleware(set *metrics.Set) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := wrapWriter(w)

			next.ServeHTTP(rec, r)

			class := fmt.Sprintf("%dxx", rec.status/100)
			set.GetOrCreateCounter(fmt.Sprintf(`bookstore_http_requests_total{method=%q,status=%q}`, r.Method, class)).Inc()
			set.GetOrCreateSummary(fmt.Sprintf(`bookstore_http_request_duration_seconds{method=%q}`, r.Method)).UpdateDuration(start)
		})
	}
}
