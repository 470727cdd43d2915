package engine

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/printbridge/labelctl/internal/observability"
	"github.com/printbridge/labelctl/internal/protocol"
	"github.com/printbridge/labelctl/internal/raster"
)

// PrintJobConfig is caller-supplied and immutable for the job's lifetime.
type PrintJobConfig struct {
	Density     int
	LabelType   int
	Quantity    int
	Rotate      bool
	InvertColor bool
}

// CompletionPolicy tunes the status-polling heuristics that decide when a
// print is done. The defaults are empirically derived against shipping
// firmware, not documented by the protocol.
type CompletionPolicy struct {
	// PollInterval spaces GetPrintStatus commands.
	PollInterval time.Duration
	// MaxPolls caps the polling loop; reaching it ends polling without
	// failing the job.
	MaxPolls int
	// StableAt100 completes the job after this many consecutive polls
	// reporting progress 100.
	StableAt100 int
	// StableNonzero completes the job after this many consecutive polls
	// with unchanged page and nonzero unchanged progress.
	StableNonzero int
}

func DefaultCompletionPolicy() CompletionPolicy {
	return CompletionPolicy{
		PollInterval:  100 * time.Millisecond,
		MaxPolls:      50,
		StableAt100:   3,
		StableNonzero: 10,
	}
}

func (p CompletionPolicy) withDefaults() CompletionPolicy {
	def := DefaultCompletionPolicy()
	if p.PollInterval <= 0 {
		p.PollInterval = def.PollInterval
	}
	if p.MaxPolls <= 0 {
		p.MaxPolls = def.MaxPolls
	}
	if p.StableAt100 <= 0 {
		p.StableAt100 = def.StableAt100
	}
	if p.StableNonzero <= 0 {
		p.StableNonzero = def.StableNonzero
	}
	return p
}

// End-of-page delivery can lag while the printer flushes buffered rows.
const (
	endPageAttempts = 100
	endPageSpacing  = 50 * time.Millisecond
	// startPageTimeout is deliberately short: some firmware never
	// acknowledges StartPagePrint yet is ready regardless.
	startPageTimeout = 500 * time.Millisecond
)

// jobState is the orchestrator's current step. Transitions are linear; the
// only loop is the polling sub-state.
type jobState int

const (
	stateIdle jobState = iota
	stateDensitySet
	stateTypeSet
	statePrintStarted
	statePageStarted
	stateDimensionsSet
	stateQuantitySet
	stateStreaming
	statePageEnded
	statePolling
	stateCompleted
	stateFailed
)

func (s jobState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateDensitySet:
		return "density_set"
	case stateTypeSet:
		return "type_set"
	case statePrintStarted:
		return "print_started"
	case statePageStarted:
		return "page_started"
	case stateDimensionsSet:
		return "dimensions_set"
	case stateQuantitySet:
		return "quantity_set"
	case stateStreaming:
		return "streaming"
	case statePageEnded:
		return "page_ended"
	case statePolling:
		return "polling"
	case stateCompleted:
		return "completed"
	default:
		return "failed"
	}
}

// Print runs one end-to-end print job for img. Concurrent jobs on one
// connection are forbidden; a second call while a job runs returns
// ErrJobInProgress.
func (c *Client) Print(ctx context.Context, img image.Image, cfg PrintJobConfig) error {
	if !c.jobActive.CompareAndSwap(false, true) {
		return ErrJobInProgress
	}
	defer c.jobActive.Store(false)

	start := time.Now()
	job := &printJob{
		client: c,
		cfg:    cfg,
		log:    c.log.With().Str("component", "print_job").Logger(),
		policy: c.policy,
	}
	err := job.run(ctx, img)
	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	observability.RecordJob(outcome, time.Since(start))
	return err
}

// printJob owns one job's state from Idle to Completed or Failed.
type printJob struct {
	client *Client
	cfg    PrintJobConfig
	log    zerolog.Logger
	policy CompletionPolicy
	state  jobState
}

func (j *printJob) transition(next jobState) {
	j.log.Debug().Stringer("from", j.state).Stringer("to", next).Msg("job transition")
	j.state = next
}

func (j *printJob) run(ctx context.Context, img image.Image) error {
	if j.cfg.Rotate {
		img = raster.Rotate90(img)
	}
	if j.cfg.InvertColor {
		img = raster.Invert(img)
	}
	pix, width, height := raster.FromImage(img)
	rows, err := raster.EncodeRows(pix, width, height)
	if err != nil {
		return err
	}
	j.log.Info().
		Int("width", width).
		Int("height", height).
		Int("density", j.cfg.Density).
		Int("quantity", j.cfg.Quantity).
		Msg("print job starting")

	if err := j.sendAcked(ctx, protocol.SetDensity, j.cfg.Density); err != nil {
		return j.fail(err)
	}
	j.transition(stateDensitySet)

	if err := j.sendAcked(ctx, protocol.SetLabelType, j.cfg.LabelType); err != nil {
		return j.fail(err)
	}
	j.transition(stateTypeSet)

	if err := j.sendAckedSimple(ctx, protocol.StartPrint); err != nil {
		return j.fail(err)
	}
	j.transition(statePrintStarted)
	// From here on, cleanup is armed: EndPrint runs even when a later
	// step fails.

	if err := j.startPage(ctx); err != nil {
		return j.failWithCleanup(ctx, err)
	}
	j.transition(statePageStarted)

	if err := j.setDimensions(ctx, width, height); err != nil {
		// Some firmware acknowledges dimensions with a zero byte even
		// on acceptance; treat failure as soft rather than guessing.
		j.log.Warn().Err(err).Msg("set dimensions not acknowledged, continuing")
	}
	j.transition(stateDimensionsSet)

	if err := j.sendAcked(ctx, protocol.SetQuantity, j.cfg.Quantity); err != nil {
		return j.failWithCleanup(ctx, err)
	}
	j.transition(stateQuantitySet)

	if err := j.stream(ctx, rows); err != nil {
		return j.failWithCleanup(ctx, err)
	}
	j.transition(stateStreaming)

	if err := j.endPage(ctx); err != nil {
		return j.failWithCleanup(ctx, err)
	}
	j.transition(statePageEnded)

	j.transition(statePolling)
	j.poll(ctx)

	j.endPrint(ctx)
	j.transition(stateCompleted)
	j.log.Info().Msg("print job completed")
	return nil
}

func (j *printJob) fail(err error) error {
	j.transition(stateFailed)
	return err
}

// failWithCleanup still attempts EndPrint before surfacing the error.
func (j *printJob) failWithCleanup(ctx context.Context, err error) error {
	j.endPrint(ctx)
	j.transition(stateFailed)
	return err
}

// sendAcked runs a one-argument command and requires a positive ack.
func (j *printJob) sendAcked(ctx context.Context, build func(int) ([]byte, error), arg int) error {
	wire, err := build(arg)
	if err != nil {
		return err
	}
	return j.roundTrip(ctx, wire, j.client.requestTimeout)
}

func (j *printJob) sendAckedSimple(ctx context.Context, build func() ([]byte, error)) error {
	wire, err := build()
	if err != nil {
		return err
	}
	return j.roundTrip(ctx, wire, j.client.requestTimeout)
}

// roundTrip sends one command and interprets the response: absent response
// is a timeout error, a zero first payload byte is a rejection.
func (j *printJob) roundTrip(ctx context.Context, wire []byte, timeout time.Duration) error {
	raw, err := j.client.requestWithTimeout(ctx, wire, timeout)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNoResponse
	}
	return checkAck(raw)
}

func checkAck(raw []byte) error {
	f, err := protocol.Decode(raw)
	if err != nil {
		return err
	}
	if len(f.Payload) == 0 || f.Payload[0] == 0 {
		return fmt.Errorf("%w: type 0x%02x payload %x", ErrCommandRejected, f.Type, f.Payload)
	}
	return nil
}

// startPage tolerates a missing acknowledgement: the soft contract is that
// the printer may stay silent yet still be ready.
func (j *printJob) startPage(ctx context.Context) error {
	wire, err := protocol.StartPagePrint()
	if err != nil {
		return err
	}
	raw, err := j.client.requestWithTimeout(ctx, wire, startPageTimeout)
	if err != nil {
		return err
	}
	if raw == nil {
		j.log.Debug().Msg("start page not acknowledged, proceeding")
		return nil
	}
	return checkAck(raw)
}

func (j *printJob) setDimensions(ctx context.Context, width, height int) error {
	wire, err := protocol.SetDimensions(width, height)
	if err != nil {
		return err
	}
	return j.roundTrip(ctx, wire, j.client.requestTimeout)
}

// stream pushes every row packet through the queue's no-response path, in
// row order. The printer cannot reorder rows.
func (j *printJob) stream(ctx context.Context, rows [][]byte) error {
	for i, row := range rows {
		select {
		case err := <-j.client.queue.enqueue(row, false):
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	j.log.Debug().Int("rows", len(rows)).Msg("image rows streamed")
	return nil
}

// endPage retries while the printer flushes buffered rows.
func (j *printJob) endPage(ctx context.Context) error {
	wire, err := protocol.EndPagePrint()
	if err != nil {
		return err
	}
	var lastErr error
	for attempt := 1; attempt <= endPageAttempts; attempt++ {
		lastErr = j.roundTrip(ctx, wire, j.client.requestTimeout)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-time.After(endPageSpacing):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("end page not accepted after %d attempts: %w", endPageAttempts, lastErr)
}

// poll watches print status until one completion heuristic fires or the
// poll ceiling is reached. The ceiling ends polling without failing the
// job: the rows are already committed and EndPrint follows regardless.
func (j *printJob) poll(ctx context.Context) {
	wire, err := protocol.GetPrintStatus()
	if err != nil {
		return
	}
	var (
		last      protocol.PrintStatus
		haveLast  bool
		at100     int
		unchanged int
	)
	for i := 0; i < j.policy.MaxPolls; i++ {
		select {
		case <-time.After(j.policy.PollInterval):
		case <-ctx.Done():
			return
		}
		observability.RecordStatusPoll()
		raw, err := j.client.requestWithTimeout(ctx, wire, j.client.requestTimeout)
		if err != nil || raw == nil {
			continue
		}
		f, err := protocol.Decode(raw)
		if err != nil {
			continue
		}
		st, err := protocol.DecodePrintStatus(f.Payload)
		if err != nil {
			continue
		}
		j.log.Debug().
			Int("page", st.Page).
			Int("progress1", st.Progress1).
			Int("progress2", st.Progress2).
			Msg("print status")

		if st.Page >= j.cfg.Quantity {
			return
		}
		if st.Progress1 >= 100 {
			at100++
			if at100 >= j.policy.StableAt100 {
				return
			}
		} else {
			at100 = 0
		}
		if haveLast && st.Page == last.Page && st.Progress1 == last.Progress1 && st.Progress1 > 0 {
			unchanged++
			if unchanged >= j.policy.StableNonzero {
				return
			}
		} else {
			unchanged = 0
		}
		last, haveLast = st, true
	}
	j.log.Warn().Msg("status polling ceiling reached, assuming completion")
}

// endPrint is best-effort: the print already happened, so errors here are
// logged, never propagated.
func (j *printJob) endPrint(ctx context.Context) {
	wire, err := protocol.EndPrint()
	if err != nil {
		return
	}
	if err := j.roundTrip(ctx, wire, j.client.requestTimeout); err != nil {
		j.log.Warn().Err(err).Msg("end print not acknowledged")
	}
}
