package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/piwi3910/SolarRack/internal/logging"
	"github.com/piwi3910/SolarRack/internal/model"
)

// DefaultTimeout bounds how long a dispatch waits for the primary executor.
const DefaultTimeout = 10 * time.Second

// Recorder receives dispatch metrics. *observability.Collector implements it.
type Recorder interface {
	ObserveDispatch(operation, path, outcome string, d time.Duration)
	IncFallback(operation, reason string)
	IncTimeout(operation string)
	SetPending(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveDispatch(string, string, string, time.Duration) {}
func (nopRecorder) IncFallback(string, string)                            {}
func (nopRecorder) IncTimeout(string)                                     {}
func (nopRecorder) SetPending(int)                                        {}

// Options configures a Dispatcher. Zero values pick the defaults.
type Options struct {
	Timeout time.Duration
	Workers int // worker goroutines; negative disables the pool and runs inline only
	Queue   int

	// DisableFallback stops timed-out requests from being retried inline.
	// An unavailable primary always falls back.
	DisableFallback bool

	// Primary and Fallback replace the built-in worker pool and inline
	// executor.
	Primary  Executor
	Fallback Executor

	Logger  logging.Logger
	Metrics Recorder
	Tracer  trace.Tracer
}

// Dispatcher sends calculations to the primary executor and falls back to
// the inline path when the primary is unavailable or too slow. It holds no
// state shared with other dispatchers.
type Dispatcher struct {
	handler  *Handler
	primary  Executor
	fallback Executor
	pool     *WorkerPool

	timeout           time.Duration
	fallbackOnFailure bool

	log     logging.Logger
	metrics Recorder
	tracer  trace.Tracer
}

// New builds a dispatcher pricing against catalog.
func New(catalog model.PackCatalog, opts Options) *Dispatcher {
	d := &Dispatcher{
		handler:           NewHandler(catalog),
		timeout:           opts.Timeout,
		fallbackOnFailure: !opts.DisableFallback,
		log:               opts.Logger,
		metrics:           opts.Metrics,
		tracer:            opts.Tracer,
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if d.log == nil {
		d.log = logging.Noop()
	}
	d.log = d.log.With(logging.String("component", "dispatch"))
	if d.metrics == nil {
		d.metrics = nopRecorder{}
	}
	if d.tracer == nil {
		d.tracer = otel.Tracer("github.com/piwi3910/SolarRack/internal/dispatch")
	}

	d.fallback = opts.Fallback
	if d.fallback == nil {
		d.fallback = NewInline(d.handler.Handle)
	}
	d.primary = opts.Primary
	if d.primary == nil {
		if opts.Workers < 0 {
			d.primary = d.fallback
		} else {
			d.pool = NewWorkerPool(d.handler.Handle, PoolConfig{Workers: opts.Workers, QueueSize: opts.Queue}, d.log, d.metrics)
			d.primary = d.pool
		}
	}
	return d
}

// Catalog returns the catalog the dispatcher prices against.
func (d *Dispatcher) Catalog() model.PackCatalog {
	return d.handler.Catalog()
}

// Close stops the built-in worker pool, if any.
func (d *Dispatcher) Close() error {
	if d.pool != nil {
		return d.pool.Close()
	}
	return nil
}

// Dispatch runs one operation. payload is marshalled to JSON unless it is
// already a json.RawMessage. The raw result is returned on success; handler
// failures come back as *RemoteError.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation, payload any) (json.RawMessage, error) {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", op, err)
		}
	}
	resp, err := d.Do(ctx, Request{ID: uuid.NewString(), Operation: op, Payload: raw})
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Do runs a prepared request envelope. An empty request id is filled in.
func (d *Dispatcher) Do(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ctx, span := d.tracer.Start(ctx, "dispatch "+string(req.Operation), trace.WithAttributes(
		attribute.String("dispatch.operation", string(req.Operation)),
		attribute.String("dispatch.request_id", req.ID),
	))
	defer span.End()

	start := time.Now()
	resp, path, err := d.execute(ctx, req)
	if err == nil && resp.Error != "" {
		err = &RemoteError{Operation: req.Operation, RequestID: req.ID, Code: resp.Code, Message: resp.Error}
	}

	outcome := "ok"
	switch {
	case errors.Is(err, ErrTimeout):
		outcome = "timeout"
	case errors.Is(err, ErrUnavailable):
		outcome = "unavailable"
	case err != nil:
		outcome = "error"
	}
	d.metrics.ObserveDispatch(string(req.Operation), path, outcome, time.Since(start))
	span.SetAttributes(attribute.String("dispatch.path", path))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.log.Warn(ctx, "dispatch failed",
			logging.String("operation", string(req.Operation)),
			logging.String("dispatch_id", req.ID),
			logging.String("path", path),
			logging.Err(err),
		)
		return resp, err
	}

	d.log.Debug(ctx, "dispatch completed",
		logging.String("operation", string(req.Operation)),
		logging.String("dispatch_id", req.ID),
		logging.String("path", path),
		logging.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func (d *Dispatcher) execute(ctx context.Context, req Request) (Response, string, error) {
	pctx, cancel := context.WithTimeout(ctx, d.timeout)
	resp, err := d.primary.Execute(pctx, req)
	cancel()
	if err == nil {
		return resp, d.primary.Name(), nil
	}

	var reason string
	switch {
	case errors.Is(err, ErrUnavailable):
		reason = "unavailable"
	case errors.Is(err, ErrTimeout):
		d.metrics.IncTimeout(string(req.Operation))
		if !d.fallbackOnFailure {
			return Response{}, d.primary.Name(), err
		}
		reason = "timeout"
	default:
		return Response{}, d.primary.Name(), err
	}
	if d.fallback == d.primary {
		return Response{}, d.primary.Name(), err
	}

	d.metrics.IncFallback(string(req.Operation), reason)
	d.log.Info(ctx, "falling back to inline execution",
		logging.String("operation", string(req.Operation)),
		logging.String("reason", reason),
	)
	resp, ferr := d.fallback.Execute(ctx, req)
	if ferr != nil {
		return Response{}, d.fallback.Name(), errors.Join(err, ferr)
	}
	return resp, d.fallback.Name(), nil
}

// PartitionFullGrid returns the base bill of materials for a grid.
func (d *Dispatcher) PartitionFullGrid(ctx context.Context, grid model.OccupancyGrid, dims model.CellDimensions) (model.PartsBundle, error) {
	var parts model.PartsBundle
	err := d.call(ctx, OpPartitionFullGrid, GridPayload{Grid: grid, Dimensions: &dims}, &parts)
	return parts, err
}

// PartitionWithAccessories returns the bill of materials including the
// configuration's accessories.
func (d *Dispatcher) PartitionWithAccessories(ctx context.Context, cfg model.Configuration) (model.PartsBundle, error) {
	var parts model.PartsBundle
	err := d.call(ctx, OpPartitionWithAccessories, payloadFor(cfg), &parts)
	return parts, err
}

// CostBundle prices a bill of materials.
func (d *Dispatcher) CostBundle(ctx context.Context, parts model.PartsBundle) (model.CostResult, error) {
	var res model.CostResult
	err := d.call(ctx, OpCostBundle, CostPayload{Parts: parts}, &res)
	return res, err
}

// BatchCost calculates and prices several configurations in one request.
func (d *Dispatcher) BatchCost(ctx context.Context, cfgs []model.Configuration) (BatchResult, error) {
	payload := BatchPayload{Configurations: make([]GridPayload, len(cfgs))}
	for i, c := range cfgs {
		payload.Configurations[i] = payloadFor(c)
	}
	var res BatchResult
	err := d.call(ctx, OpBatchCost, payload, &res)
	return res, err
}

func (d *Dispatcher) call(ctx context.Context, op Operation, payload, out any) error {
	raw, err := d.Dispatch(ctx, op, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", op, err)
	}
	return nil
}

func payloadFor(cfg model.Configuration) GridPayload {
	dims := cfg.Dimensions
	return GridPayload{Name: cfg.Name, Grid: cfg.Grid, Dimensions: &dims, Options: cfg.Options}
}
