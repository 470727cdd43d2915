package transport

import "sync"

// Pipe is an in-memory Transport used by engine tests and the dry-run mode
// of the CLI. Writes are handed to a caller-supplied sink, which can push
// synthetic responses back through Push.
type Pipe struct {
	mu      sync.Mutex
	sink    func(p []byte) error
	inbound chan []byte
	done    chan struct{}
	closed  bool
}

// NewPipe builds a loopback transport. sink observes every write; a nil
// sink accepts everything.
func NewPipe(sink func(p []byte) error) *Pipe {
	return &Pipe{
		sink:    sink,
		inbound: make(chan []byte, 64),
		done:    make(chan struct{}),
	}
}

func (p *Pipe) Write(b []byte) error {
	p.mu.Lock()
	closed := p.closed
	sink := p.sink
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if sink == nil {
		return nil
	}
	return sink(b)
}

// Push injects an inbound chunk, as the printer would via a notification.
func (p *Pipe) Push(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	chunk := make([]byte, len(b))
	copy(chunk, b)
	p.inbound <- chunk
}

func (p *Pipe) Inbound() <-chan []byte { return p.inbound }

func (p *Pipe) Done() <-chan struct{} { return p.done }

func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)
	close(p.inbound)
	return nil
}
