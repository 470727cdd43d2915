package engine

import (
	"context"
	"sync"
	"time"
)

// pendingRequest is owned by the correlator from register until its result
// is consumed by await, abandoned on timeout, or failed at teardown.
// Exactly one live instance exists per outstanding request.
type pendingRequest struct {
	id     uint64
	result chan correlated
}

type correlated struct {
	frame []byte
	err   error
}

// correlator matches inbound frames to outstanding requests in FIFO order.
// The protocol carries no per-message correlation id; matching by arrival
// order is sound only because the write queue keeps a single request
// outstanding at a time. That discipline is structural, not advisory.
type correlator struct {
	mu     sync.Mutex
	nextID uint64 // monotonic, scoped to this connection
	fifo   []*pendingRequest
	byID   map[uint64]*pendingRequest
	failed error
}

func newCorrelator() *correlator {
	return &correlator{byID: make(map[uint64]*pendingRequest)}
}

// register creates a pending request. It must be called before the
// corresponding write is enqueued so a fast response cannot arrive with
// nobody waiting.
func (c *correlator) register() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed != nil {
		return 0, c.failed
	}
	c.nextID++
	req := &pendingRequest{
		id:     c.nextID,
		result: make(chan correlated, 1),
	}
	c.fifo = append(c.fifo, req)
	c.byID[req.id] = req
	return req.id, nil
}

// resolve completes the oldest still-pending request with the raw frame
// bytes, regardless of command type. Returns false if nothing was waiting.
func (c *correlator) resolve(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.fifo) == 0 {
		return false
	}
	req := c.fifo[0]
	c.fifo = c.fifo[1:]
	req.result <- correlated{frame: frame}
	return true
}

// await blocks until the request resolves, the timeout passes, or the
// context ends. A timeout returns (nil, nil): several commands legitimately
// receive no acknowledgement, so the caller decides whether that is fatal.
func (c *correlator) await(ctx context.Context, id uint64, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	req, ok := c.byID[id]
	err := c.failed
	c.mu.Unlock()
	if !ok {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-req.result:
		c.forget(id)
		return res.frame, res.err
	case <-timer.C:
		// The response may have raced the timer; prefer it.
		select {
		case res := <-req.result:
			c.forget(id)
			return res.frame, res.err
		default:
		}
		c.abandon(id)
		return nil, nil
	case <-ctx.Done():
		c.abandon(id)
		return nil, ctx.Err()
	}
}

func (c *correlator) forget(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
}

// abandon removes a request that will never be consumed, so a late frame
// resolves the next pending request instead of a dead one.
func (c *correlator) abandon(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
	for i, req := range c.fifo {
		if req.id == id {
			c.fifo = append(c.fifo[:i], c.fifo[i+1:]...)
			return
		}
	}
}

// failAll terminates every pending request and rejects future registers.
// Called exactly once, on transport teardown.
func (c *correlator) failAll(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed != nil {
		return
	}
	c.failed = err
	for _, req := range c.fifo {
		req.result <- correlated{err: err}
	}
	c.fifo = nil
	c.byID = make(map[uint64]*pendingRequest)
}
