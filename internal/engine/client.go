package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/printbridge/labelctl/internal/protocol"
	"github.com/printbridge/labelctl/internal/transport"
)

// DefaultRequestTimeout bounds how long a command waits for its response
// frame before the correlator reports a soft timeout.
const DefaultRequestTimeout = 2 * time.Second

// Client drives one printer over one connected transport. A disconnect
// invalidates all in-flight state; the caller reconnects and builds a new
// Client. At most one print job runs per Client.
type Client struct {
	tr             transport.Transport
	queue          *writeQueue
	corr           *correlator
	log            zerolog.Logger
	requestTimeout time.Duration
	policy         CompletionPolicy

	jobActive atomic.Bool
	closeOnce sync.Once
	pumpDone  chan struct{}
}

// Option adjusts Client construction.
type Option func(*Client)

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithCompletionPolicy overrides the status-polling completion heuristics.
// The defaults are empirically derived, not protocol-documented, and some
// firmware variants need different thresholds.
func WithCompletionPolicy(p CompletionPolicy) Option {
	return func(c *Client) { c.policy = p.withDefaults() }
}

// NewClient wires the write queue, correlator and inbound pump onto a
// connected transport and starts them.
func NewClient(tr transport.Transport, opts ...Option) *Client {
	c := &Client{
		tr:             tr,
		corr:           newCorrelator(),
		log:            zerolog.Nop(),
		requestTimeout: DefaultRequestTimeout,
		policy:         DefaultCompletionPolicy(),
		pumpDone:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.queue = newWriteQueue(tr, c.log)
	go c.pump()
	return c
}

// pump decouples transport notification timing from protocol logic: raw
// chunks come in on a channel, the splitter reassembles frames, and each
// complete frame resolves the oldest outstanding request.
func (c *Client) pump() {
	defer close(c.pumpDone)
	var split protocol.Splitter
	for {
		select {
		case chunk, ok := <-c.tr.Inbound():
			if !ok {
				c.teardown()
				return
			}
			for _, frame := range split.Push(chunk) {
				if !c.corr.resolve(frame) {
					c.log.Debug().Hex("frame", frame).Msg("unsolicited frame dropped")
				}
			}
		case <-c.tr.Done():
			c.teardown()
			return
		}
	}
}

// teardown fails every pending write and request with a terminal error.
// No partial resume is supported.
func (c *Client) teardown() {
	c.closeOnce.Do(func() {
		c.log.Info().Msg("transport gone, failing in-flight state")
		c.queue.shutdown()
		c.corr.failAll(ErrTransportClosed)
	})
}

// Close tears down the engine and the underlying transport.
func (c *Client) Close() error {
	err := c.tr.Close()
	c.teardown()
	<-c.pumpDone
	return err
}

// request performs one command round-trip: register with the correlator
// first (a fast printer can answer before the write result is observed),
// then enqueue, then await. A nil response with nil error is a soft
// timeout.
func (c *Client) request(ctx context.Context, wire []byte) ([]byte, error) {
	return c.requestWithTimeout(ctx, wire, c.requestTimeout)
}

func (c *Client) requestWithTimeout(ctx context.Context, wire []byte, timeout time.Duration) ([]byte, error) {
	id, err := c.corr.register()
	if err != nil {
		return nil, err
	}
	select {
	case err := <-c.queue.enqueue(wire, true):
		if err != nil {
			c.corr.abandon(id)
			return nil, err
		}
	case <-ctx.Done():
		c.corr.abandon(id)
		return nil, ctx.Err()
	}
	return c.corr.await(ctx, id, timeout)
}

// requestPayload runs a command and decodes the response frame's payload.
// Responses are matched by arrival order, not by type: the firmware's
// response opcodes are not uniform across commands and the protocol carries
// no correlation id worth checking.
func (c *Client) requestPayload(ctx context.Context, wire []byte) ([]byte, error) {
	raw, err := c.request(ctx, wire)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNoResponse
	}
	f, err := protocol.Decode(raw)
	if err != nil {
		return nil, err
	}
	return f.Payload, nil
}

// Heartbeat queries printer physical state (cover, paper, battery, RFID).
func (c *Client) Heartbeat(ctx context.Context) (protocol.HeartbeatReport, error) {
	wire, err := protocol.Heartbeat()
	if err != nil {
		return protocol.HeartbeatReport{}, err
	}
	payload, err := c.requestPayload(ctx, wire)
	if err != nil {
		return protocol.HeartbeatReport{}, err
	}
	return protocol.DecodeHeartbeat(payload), nil
}

// DeviceInfo queries one device property.
func (c *Client) DeviceInfo(ctx context.Context, key protocol.InfoKey) (protocol.DeviceInfo, error) {
	wire, err := protocol.GetInfo(key)
	if err != nil {
		return protocol.DeviceInfo{}, err
	}
	payload, err := c.requestPayload(ctx, wire)
	if err != nil {
		return protocol.DeviceInfo{}, err
	}
	return protocol.DecodeDeviceInfo(key, payload)
}

// ReadRfid reads the label roll tag. A nil record means no tag is present.
func (c *Client) ReadRfid(ctx context.Context) (*protocol.RfidRecord, error) {
	wire, err := protocol.GetRfid()
	if err != nil {
		return nil, err
	}
	payload, err := c.requestPayload(ctx, wire)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeRfid(payload)
}
