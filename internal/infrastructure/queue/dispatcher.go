// Package queue moves access audit writes off the request path.
package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/api/metrics"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher routes audit entries to a fixed set of workers using consistent
// hashing on the user id, so one user's entries are written in order.
// It satisfies ports.AccessAuditRepository and never blocks the caller:
// entries arriving while a worker's buffer is full are dropped and counted.
type Dispatcher struct {
	workers []chan ports.AccessAuditEntry
	repo    ports.AccessAuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ ports.AccessAuditRepository = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AccessAuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.AccessAuditEntry, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.AccessAuditEntry, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their buffer and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// InsertAccessEvent enqueues entry for the worker responsible for its user.
func (d *Dispatcher) InsertAccessEvent(_ context.Context, entry ports.AccessAuditEntry) error {
	select {
	case d.workers[d.shardIndex(entry.UserID)] <- entry:
	default:
		metrics.AuditDroppedTotal.Inc()
		d.log.Warn().Str("user_id", entry.UserID).Str("page", entry.Page).Msg("audit queue full, entry dropped")
	}
	return nil
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.AccessAuditEntry) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case entry := <-ch:
			d.write(context.WithoutCancel(ctx), id, entry)
		}
	}
}

// drain writes what is already buffered after shutdown was requested.
func (d *Dispatcher) drain(id int, ch <-chan ports.AccessAuditEntry) {
	for {
		select {
		case entry := <-ch:
			d.write(context.Background(), id, entry)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, entry ports.AccessAuditEntry) {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := d.repo.InsertAccessEvent(wctx, entry); err != nil {
		d.log.Error().Err(err).
			Str("user_id", entry.UserID).
			Int("worker_id", id).
			Msg("audit write failed")
	}
}
