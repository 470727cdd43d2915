package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/printbridge/labelctl/internal/observability"
	"github.com/printbridge/labelctl/internal/transport"
)

const (
	// writeAttempts bounds transport retries per queued write.
	writeAttempts = 3
	// writeBackoffStep grows linearly with the attempt number.
	writeBackoffStep = 50 * time.Millisecond
	// settleDelay paces response-expecting writes so the printer's
	// internal buffer is not overrun. Row packets skip it.
	settleDelay = 10 * time.Millisecond
)

// queuedWrite is owned by the queue from enqueue until its result channel
// receives the outcome.
type queuedWrite struct {
	bytes           []byte
	expectsResponse bool
	result          chan error
}

// writeQueue serializes outbound frames onto a single-writer transport.
// Exactly one write is in flight at a time; FIFO order is preserved, which
// the correlator's arrival-order matching depends on. Items enqueued while
// the worker is draining are picked up before it goes idle.
type writeQueue struct {
	tr   transport.Transport
	log  zerolog.Logger
	mu   sync.Mutex
	cond *sync.Cond
	fifo []*queuedWrite
	done bool
	idle chan struct{}
}

func newWriteQueue(tr transport.Transport, log zerolog.Logger) *writeQueue {
	q := &writeQueue{
		tr:   tr,
		log:  log.With().Str("component", "write_queue").Logger(),
		idle: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.worker()
	return q
}

// enqueue hands bytes to the worker. The returned channel receives exactly
// one value: nil on success or the terminal write error.
func (q *writeQueue) enqueue(bytes []byte, expectsResponse bool) <-chan error {
	w := &queuedWrite{
		bytes:           bytes,
		expectsResponse: expectsResponse,
		result:          make(chan error, 1),
	}
	q.mu.Lock()
	if q.done {
		q.mu.Unlock()
		w.result <- ErrTransportClosed
		return w.result
	}
	q.fifo = append(q.fifo, w)
	q.cond.Signal()
	q.mu.Unlock()
	return w.result
}

func (q *writeQueue) worker() {
	defer close(q.idle)
	for {
		q.mu.Lock()
		for len(q.fifo) == 0 && !q.done {
			q.cond.Wait()
		}
		if q.done {
			// Fail whatever is still queued; no partial resume.
			pending := q.fifo
			q.fifo = nil
			q.mu.Unlock()
			for _, w := range pending {
				w.result <- ErrTransportClosed
			}
			return
		}
		w := q.fifo[0]
		q.fifo = q.fifo[1:]
		q.mu.Unlock()

		w.result <- q.send(w)
	}
}

// send attempts one queued write with bounded retry and linear backoff.
func (q *writeQueue) send(w *queuedWrite) error {
	var lastErr error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		if q.stopped() {
			return ErrTransportClosed
		}
		if err := q.tr.Write(w.bytes); err != nil {
			lastErr = err
			q.log.Warn().Int("attempt", attempt).Err(err).Msg("transport write failed")
			observability.RecordWriteRetry()
			if attempt < writeAttempts {
				time.Sleep(writeBackoffStep * time.Duration(attempt))
			}
			continue
		}
		kind := "row"
		if w.expectsResponse {
			kind = "command"
			time.Sleep(settleDelay)
		}
		observability.RecordFrameWritten(kind)
		return nil
	}
	observability.RecordWriteFailure()
	return fmt.Errorf("%w after %d attempts: %v", ErrWriteFailed, writeAttempts, lastErr)
}

func (q *writeQueue) stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}

// shutdown stops the worker and fails every write still queued.
func (q *writeQueue) shutdown() {
	q.mu.Lock()
	if q.done {
		q.mu.Unlock()
		<-q.idle
		return
	}
	q.done = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.idle
}
