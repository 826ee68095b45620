package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/piwi3910/SolarRack/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// requestID adopts the caller's X-Request-ID or generates one, and stores it
// together with a request-scoped logger on the context.
func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			ctx, id = logging.EnsureRequestID(ctx)
		} else {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx = logging.ContextWithLogger(ctx, s.log.With(logging.String("request_id", id)))
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe records status and latency per route pattern.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.ObserveHTTP(route, r.Method, status, elapsed)
		logging.FromContext(r.Context(), s.log).Debug(r.Context(), "request served",
			logging.String("method", r.Method),
			logging.String("route", route),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
		)
	})
}

// limiter caps the number of in-flight requests with a semaphore. Waiting
// requests give up when their context ends. max <= 0 disables the limit.
func limiter(max int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if max <= 0 {
			return next
		}
		sem := make(chan struct{}, max)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case sem <- struct{}{}:
			case <-r.Context().Done():
				http.Error(w, "server busy", http.StatusServiceUnavailable)
				return
			}
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		})
	}
}
