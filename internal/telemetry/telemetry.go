// Package telemetry records a snapshot of every served calculation to
// pluggable sinks. Recording never fails a request: sink errors are logged
// and dropped.
package telemetry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/piwi3910/SolarRack/internal/logging"
)

// Snapshot describes one served calculation.
type Snapshot struct {
	RequestID     string    `json:"request_id"`
	Operation     string    `json:"operation"`
	Configuration string    `json:"configuration,omitempty"`
	GridCode      string    `json:"grid_code,omitempty"`
	Orientation   string    `json:"orientation,omitempty"`
	Accessories   string    `json:"accessories,omitempty"` // Comma separated, e.g. "mc4,cable"
	Modules       int       `json:"modules"`
	TotalPacks    int       `json:"total_packs"`
	TotalCost     float64   `json:"total_cost"`
	DurationMs    float64   `json:"duration_ms"`
	Outcome       string    `json:"outcome"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sink stores or forwards snapshots.
type Sink interface {
	Name() string
	Record(ctx context.Context, s Snapshot) error
	Close() error
}

// DefaultBuffer is the number of snapshots a Publisher queues before it
// starts dropping.
const DefaultBuffer = 256

// sinkTimeout bounds a single Record call.
const sinkTimeout = 5 * time.Second

// Publisher fans snapshots out to its sinks on a background goroutine.
type Publisher struct {
	sinks   []Sink
	log     logging.Logger
	queue   chan Snapshot
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against sends on a closed queue
	closed  bool
	dropped atomic.Int64
}

// NewPublisher starts a publisher. With no sinks Publish is a no-op.
func NewPublisher(log logging.Logger, buffer int, sinks ...Sink) *Publisher {
	if log == nil {
		log = logging.Noop()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	p := &Publisher{
		sinks: sinks,
		log:   log,
		queue: make(chan Snapshot, buffer),
	}
	if len(sinks) > 0 {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Publish queues a snapshot without blocking. It returns false when the
// snapshot was dropped because the queue is full or the publisher closed.
func (p *Publisher) Publish(s Snapshot) bool {
	if p == nil || len(p.sinks) == 0 {
		return false
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- s:
		return true
	default:
		p.dropped.Add(1)
		p.log.Warn(context.Background(), "telemetry queue full, snapshot dropped",
			logging.String("request_id", s.RequestID))
		return false
	}
}

// Dropped returns how many snapshots were dropped on a full queue.
func (p *Publisher) Dropped() int {
	return int(p.dropped.Load())
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for s := range p.queue {
		for _, sink := range p.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			if err := sink.Record(ctx, s); err != nil {
				p.log.Warn(ctx, "telemetry sink failed",
					logging.String("sink", sink.Name()),
					logging.String("request_id", s.RequestID),
					logging.Err(err))
			}
			cancel()
		}
	}
}

// Close flushes queued snapshots and closes every sink.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
		p.wg.Wait()
		for _, sink := range p.sinks {
			if err := sink.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
