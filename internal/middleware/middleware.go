package middleware

import (
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs every request with method, path, status and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": recorder.status,
			"took":   time.Since(start),
		}).Info("request handled")
	})
}

// APIKey gates requests on the X-API-Key header when LOCAL_API_KEY is set.
// The health endpoint is always open.
func APIKey(next http.Handler) http.Handler {
	key := os.Getenv("LOCAL_API_KEY")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key == "" || r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != key {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
