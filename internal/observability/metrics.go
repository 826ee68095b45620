// Package observability wires Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the service's Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	DispatchRequests  *prometheus.CounterVec
	DispatchDurations *prometheus.HistogramVec
	Fallbacks         *prometheus.CounterVec
	Timeouts          *prometheus.CounterVec
	PendingRequests   prometheus.Gauge

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, or the default registry
// when reg is nil. Registering twice against the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.DispatchRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solarrack_dispatch_requests_total",
		Help: "Dispatched calculations by operation, execution path and outcome.",
	}, []string{"operation", "path", "outcome"})); err != nil {
		return nil, err
	}
	if c.DispatchDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solarrack_dispatch_duration_seconds",
		Help:    "Dispatch latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"operation", "path"})); err != nil {
		return nil, err
	}
	if c.Fallbacks, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solarrack_dispatch_fallbacks_total",
		Help: "Requests re-run on the fallback executor, by reason.",
	}, []string{"operation", "reason"})); err != nil {
		return nil, err
	}
	if c.Timeouts, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solarrack_dispatch_timeouts_total",
		Help: "Requests whose response did not arrive in time.",
	}, []string{"operation"})); err != nil {
		return nil, err
	}
	if c.PendingRequests, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solarrack_worker_pending_requests",
		Help: "Requests awaiting a worker response.",
	})); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solarrack_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})); err != nil {
		return nil, err
	}
	if c.HTTPDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solarrack_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})); err != nil {
		return nil, err
	}

	return c, nil
}

// ObserveDispatch records one finished dispatch.
func (c *Collector) ObserveDispatch(operation, path, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.DispatchRequests.WithLabelValues(operation, path, outcome).Inc()
	c.DispatchDurations.WithLabelValues(operation, path).Observe(d.Seconds())
}

// IncFallback counts a request moved to the fallback executor.
func (c *Collector) IncFallback(operation, reason string) {
	if c == nil {
		return
	}
	c.Fallbacks.WithLabelValues(operation, reason).Inc()
}

// IncTimeout counts a request that timed out.
func (c *Collector) IncTimeout(operation string) {
	if c == nil {
		return
	}
	c.Timeouts.WithLabelValues(operation).Inc()
}

// SetPending publishes the size of a worker pool's pending table.
func (c *Collector) SetPending(n int) {
	if c == nil {
		return
	}
	c.PendingRequests.Set(float64(n))
}

// ObserveHTTP records one served HTTP request.
func (c *Collector) ObserveHTTP(route, method string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	c.HTTPDurations.WithLabelValues(route, method).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("counter already registered with incompatible type: %w", err)
		}
		return existing, nil
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, fmt.Errorf("histogram already registered with incompatible type: %w", err)
		}
		return existing, nil
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(prometheus.Gauge)
		if !ok {
			return nil, fmt.Errorf("gauge already registered with incompatible type: %w", err)
		}
		return existing, nil
	}
	return gauge, nil
}
