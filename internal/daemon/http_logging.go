package daemon

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"casenotify/internal/logging"
)

// statusWriter remembers what the handler wrote so the access log can
// report it.
type statusWriter struct {
	http.ResponseWriter
	code     int
	written  int
	upgraded bool
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack is required by the websocket endpoints.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("%T cannot be hijacked", w.ResponseWriter)
	}
	conn, buf, err := h.Hijack()
	if err != nil {
		return nil, nil, err
	}
	w.upgraded = true
	if w.code == 0 {
		w.code = http.StatusSwitchingProtocols
	}
	return conn, buf, nil
}

// LoggingMiddleware writes one access line per request and echoes or assigns
// an X-Request-Id.
func LoggingMiddleware(logger logging.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = logging.NewRequestID()
		}
		w.Header().Set("X-Request-Id", id)

		began := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		log := logger.Info
		if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
			log = logger.Debug
		}
		log("http_request",
			logging.F("request_id", id),
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", sw.code),
			logging.F("bytes", sw.written),
			logging.F("upgraded", sw.upgraded),
			logging.F("duration", time.Since(began)),
		)
	})
}
