package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ViewIncrement is one accepted view of a resource.
type ViewIncrement struct {
	ResourceID int64
	ViewerID   int64
}

// ViewSink applies view increments.
type ViewSink interface {
	IncrementViews(ctx context.Context, resourceID int64) (int64, error)
}

// Dispatcher applies view increments on a fixed set of workers, sharding by
// resource ID so increments of one resource are applied in order.
type Dispatcher struct {
	workers []chan ViewIncrement
	sink    ViewSink
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ViewSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ViewIncrement, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ViewIncrement, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or after Close has drained their queues.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands inc to the worker responsible for its resource. It blocks
// once that worker's buffer is full.
func (d *Dispatcher) Enqueue(inc ViewIncrement) {
	idx := d.shardIndex(inc.ResourceID)
	d.workers[idx] <- inc
	metrics.ViewQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// Close stops accepting increments and waits for queued ones to be applied.
func (d *Dispatcher) Close() {
	for _, ch := range d.workers {
		close(ch)
	}
	d.wg.Wait()
}

func (d *Dispatcher) shardIndex(resourceID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(resourceID, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ViewIncrement) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case inc, ok := <-ch:
			if !ok {
				return
			}
			metrics.ViewQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			start := time.Now()
			count, err := d.sink.IncrementViews(ctx, inc.ResourceID)
			metrics.ViewApplyDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.ViewsAppliedTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Int64("resource_id", inc.ResourceID).
					Int("worker_id", id).
					Msg("view increment failed")
				continue
			}
			metrics.ViewsAppliedTotal.WithLabelValues("ok").Inc()
			d.log.Debug().
				Int64("resource_id", inc.ResourceID).
				Int64("viewer_id", inc.ViewerID).
				Int64("views", count).
				Msg("view applied")
		}
	}
}
