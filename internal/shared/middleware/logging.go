package middleware

import (
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	httpMeter          = otel.Meter("moneymosaic/http")
	requestDuration, _ = httpMeter.Float64Histogram("http.request.duration", metric.WithDescription("Request duration in seconds"), metric.WithUnit("s"))
	requestTotal, _    = httpMeter.Int64Counter("http.request.total", metric.WithDescription("Total requests served by method and status"))
)

// slowRequestThreshold separates the sync trigger pattern (return 202
// immediately, work in the background) from handlers that are actually
// blocking the dashboard.
const slowRequestThreshold = time.Second

// statusRecorder captures the status code a handler writes. Handlers that
// never call WriteHeader implicitly return 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status != 0 {
		return
	}
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Logging logs each request and records duration and count metrics under the
// moneymosaic/http instrumentation scope.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, status, elapsed)
		if elapsed > slowRequestThreshold {
			log.Printf("Slow request: %s %s took %s", r.Method, r.URL.Path, elapsed)
		}

		attrs := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.Int("http.status_code", status),
		)
		requestDuration.Record(r.Context(), elapsed.Seconds(), attrs)
		requestTotal.Add(r.Context(), 1, attrs)
	})
}
