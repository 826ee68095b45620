package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/piwi3910/SolarRack/internal/logging"
)

// PoolConfig sizes a worker pool.
type PoolConfig struct {
	Workers   int // default 2
	QueueSize int // buffered requests before the pool reports saturation, default 64
}

// job pairs a request with the pool's own correlation key. Caller ids are
// not trusted to be unique, so a retried id never receives the response of
// an abandoned earlier request.
type job struct {
	key string
	req Request
}

type result struct {
	key  string
	resp Response
}

// WorkerPool runs requests on background goroutines. Requests go out on a
// shared channel, responses come back on a single channel and are matched to
// their waiters through the pending table. Abandoning a request only removes
// its pending entry; the worker still finishes the computation and its
// response is dropped on arrival.
type WorkerPool struct {
	handle    HandleFunc
	requests  chan job
	responses chan result
	done      chan struct{}
	wg        sync.WaitGroup

	mu      sync.Mutex
	pending map[string]chan Response
	closed  bool

	log     logging.Logger
	metrics Recorder
}

// NewWorkerPool starts the workers and the response router.
func NewWorkerPool(handle HandleFunc, cfg PoolConfig, log logging.Logger, metrics Recorder) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if log == nil {
		log = logging.Noop()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}

	p := &WorkerPool{
		handle:    handle,
		requests:  make(chan job, cfg.QueueSize),
		responses: make(chan result, cfg.Workers),
		done:      make(chan struct{}),
		pending:   make(map[string]chan Response),
		log:       log.With(logging.String("executor", "worker")),
		metrics:   metrics,
	}

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	p.wg.Add(1)
	go p.route()

	return p
}

func (*WorkerPool) Name() string { return "worker" }

// Execute submits the request and waits for its response until ctx is done.
// It returns ErrUnavailable when the pool is closed or its queue is full and
// ErrTimeout when ctx hits its deadline first.
func (p *WorkerPool) Execute(ctx context.Context, req Request) (Response, error) {
	key := uuid.NewString()
	ch, err := p.register(key)
	if err != nil {
		return Response{}, err
	}

	select {
	case p.requests <- job{key: key, req: req}:
	case <-p.done:
		p.forget(key)
		return Response{}, fmt.Errorf("worker pool closed: %w", ErrUnavailable)
	default:
		p.forget(key)
		return Response{}, fmt.Errorf("worker queue full: %w", ErrUnavailable)
	}

	select {
	case resp := <-ch:
		resp.ID = req.ID
		return resp, nil
	case <-p.done:
		p.forget(key)
		return Response{}, fmt.Errorf("worker pool closed: %w", ErrUnavailable)
	case <-ctx.Done():
		p.forget(key)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("%s request %s: %w", req.Operation, req.ID, ErrTimeout)
		}
		return Response{}, ctx.Err()
	}
}

// Pending returns the number of requests awaiting a response.
func (p *WorkerPool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Close stops the workers and fails all waiters with ErrUnavailable.
// Queued requests that have not started are discarded.
func (p *WorkerPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *WorkerPool) register(key string) (chan Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, fmt.Errorf("worker pool closed: %w", ErrUnavailable)
	}
	ch := make(chan Response, 1)
	p.pending[key] = ch
	p.metrics.SetPending(len(p.pending))
	return ch, nil
}

func (p *WorkerPool) forget(key string) {
	p.mu.Lock()
	delete(p.pending, key)
	p.metrics.SetPending(len(p.pending))
	p.mu.Unlock()
}

// claim removes and returns the waiter for key, if it is still waiting.
func (p *WorkerPool) claim(key string) (chan Response, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.pending[key]
	if ok {
		delete(p.pending, key)
		p.metrics.SetPending(len(p.pending))
	}
	return ch, ok
}

func (p *WorkerPool) work() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case j := <-p.requests:
			// Runs with a background context: abandoning a request never
			// cancels a computation that has started.
			resp := p.handle(context.Background(), j.req)
			select {
			case p.responses <- result{key: j.key, resp: resp}:
			case <-p.done:
				return
			}
		}
	}
}

func (p *WorkerPool) route() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case r := <-p.responses:
			ch, ok := p.claim(r.key)
			if !ok {
				p.log.Debug(context.Background(), "dropping response for abandoned request",
					logging.String("request_id", r.resp.ID))
				continue
			}
			ch <- r.resp
		}
	}
}
