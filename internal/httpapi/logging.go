package httpapi

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"lexscribe/deposition-service/internal/metrics"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func LoggingMiddleware(m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r)
		duration := time.Since(start)
		if m != nil {
			m.RequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(writer.status)).Inc()
			m.RequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration.Seconds())
		}
		log.Printf("request method=%s path=%s status=%d duration_ms=%d", r.Method, r.URL.Path, writer.status, duration.Milliseconds())
	})
}
