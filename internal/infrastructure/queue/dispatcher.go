package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/titantech/kyc-gateway/internal/api/metrics"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	jobTimeout     = 30 * time.Second
)

// Dispatcher records verification codes in the background on a fixed set of
// workers. Jobs are sharded by user id so that saves for one user apply in
// submission order.
type Dispatcher struct {
	workers  []chan ports.VerificationJob
	recorder ports.VerificationRecorder
	log      zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ ports.JobQueue = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, recorder ports.VerificationRecorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.VerificationJob, numWorkers),
		recorder: recorder,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.VerificationJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.runWorker(ctx, i, ch)
		}()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to be recorded,
// giving up when ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue hands a job to the worker owning its user. It never blocks: when
// that worker's buffer is full the job is dropped and logged.
func (d *Dispatcher) Enqueue(job ports.VerificationJob) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn().Str("user_id", job.UserID).Msg("dispatcher stopped, job dropped")
		return
	}

	idx := d.shardIndex(job.UserID)
	select {
	case d.workers[idx] <- job:
		metrics.VerificationJobsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		d.log.Error().
			Str("user_id", job.UserID).
			Int("worker_id", idx).
			Msg("verification queue full, job dropped")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.VerificationJob) {
	depth := metrics.VerificationJobsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.process(ctx, id, job)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, job ports.VerificationJob) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if _, err := d.recorder.Record(ctx, job); err != nil {
		d.log.Error().Err(err).
			Str("user_id", job.UserID).
			Str("session_id", job.SessionID).
			Int("worker_id", id).
			Msg("background verification save failed")
	}
}
