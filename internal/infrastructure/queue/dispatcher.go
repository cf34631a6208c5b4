package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
	"github.com/nextlevel/order-desk/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	publishTimeout = 5 * time.Second
)

var _ ports.EventPublisher = (*Dispatcher)(nil)

// Dispatcher routes lifecycle events to a fixed set of workers using
// consistent hashing on the order id, guaranteeing per-order event ordering.
// Publishing happens off the request path: a full shard drops the event.
type Dispatcher struct {
	mu      sync.RWMutex
	closed  bool
	workers []chan domain.OrderEvent
	wg      sync.WaitGroup
	sink    ports.EventSink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.EventSink, log zerolog.Logger) *Dispatcher {
	return newDispatcher(numWorkers, channelBuffer, sink, log)
}

func newDispatcher(numWorkers, buffer int, sink ports.EventSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.OrderEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.OrderEvent, buffer)
	}
	return d
}

// Start launches all worker goroutines. Publishing uses ctx as its parent.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands the event to the worker responsible for its order. It never blocks.
func (d *Dispatcher) Enqueue(event domain.OrderEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}

	idx := d.shardIndex(event.OrderID)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		d.drop(event, "worker queue full")
	}
}

// Close stops accepting events and waits for the queued ones to be published.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps an order id deterministically to a worker index.
func (d *Dispatcher) shardIndex(orderID int64) int {
	h := fnv.New32a()
	_, _ = h.Write(strconv.AppendInt(nil, orderID, 10))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) drop(event domain.OrderEvent, reason string) {
	metrics.EventsDispatchedTotal.WithLabelValues("dropped").Inc()
	d.log.Warn().
		Int64("order_id", event.OrderID).
		Str("type", string(event.Type)).
		Str("reason", reason).
		Msg("lifecycle event dropped")
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.OrderEvent) {
	defer d.wg.Done()
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))

	for event := range ch {
		depth.Dec()

		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		start := time.Now()
		err := d.sink.Publish(pubCtx, event)
		metrics.EventPublishDuration.Observe(time.Since(start).Seconds())
		cancel()

		if err != nil {
			metrics.EventsDispatchedTotal.WithLabelValues("failed").Inc()
			d.log.Error().Err(err).
				Int64("order_id", event.OrderID).
				Str("type", string(event.Type)).
				Int("worker_id", id).
				Msg("event publishing failed")
			continue
		}
		metrics.EventsDispatchedTotal.WithLabelValues("published").Inc()
	}
}
