package metrics

import (
	"net/http"
	"time"
)

// Instrument wraps next so every request to route is counted and timed under
// its method and status class. A nil m returns next unchanged.
//
// A handler that panics before writing a header is recorded as a 500; the
// panic is then re-raised for net/http to handle.
func Instrument(m *Metrics, route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w}
		defer func() {
			// recover must be called from the deferred func itself.
			if p := recover(); p != nil {
				if sr.status == 0 {
					sr.status = http.StatusInternalServerError
				}
				m.RecordHTTPRequest(route, r.Method, sr.status, time.Since(start).Seconds())
				panic(p)
			}
			m.RecordHTTPRequest(route, r.Method, sr.Status(), time.Since(start).Seconds())
		}()
		next.ServeHTTP(sr, r)
	})
}

// statusRecorder remembers the first status code sent to the client.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Status is the recorded code, or 200 when the handler wrote nothing.
func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

// Timer returns a func that passes the seconds elapsed since start to recordFunc.
//
//	defer metrics.Timer(time.Now(), func(d float64) { ... })()
func Timer(start time.Time, recordFunc func(float64)) func() {
	return func() {
		recordFunc(time.Since(start).Seconds())
	}
}
