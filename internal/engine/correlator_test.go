package engine

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/printbridge/labelctl/internal/testutil/testlog"
)

func TestCorrelatorResolvesInFifoOrder(t *testing.T) {
	testlog.Start(t)
	c := newCorrelator()

	id1, _ := c.register()
	id2, _ := c.register()
	id3, _ := c.register()

	f1, f2, f3 := []byte{0xA1}, []byte{0xA2}, []byte{0xA3}
	for _, f := range [][]byte{f1, f2, f3} {
		if !c.resolve(f) {
			t.Fatalf("resolve(%x) found nothing pending", f)
		}
	}

	ctx := context.Background()
	for _, tc := range []struct {
		id   uint64
		want []byte
	}{{id1, f1}, {id2, f2}, {id3, f3}} {
		got, err := c.await(ctx, tc.id, time.Second)
		if err != nil {
			t.Fatalf("await(%d): %v", tc.id, err)
		}
		if !bytes.Equal(got, tc.want) {
			t.Fatalf("await(%d) = %x, want %x", tc.id, got, tc.want)
		}
	}
}

func TestCorrelatorTimeoutIsSoft(t *testing.T) {
	testlog.Start(t)
	c := newCorrelator()

	id, _ := c.register()
	got, err := c.await(context.Background(), id, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if got != nil {
		t.Fatalf("await = %x, want nil on timeout", got)
	}

	// The abandoned slot must not swallow the next response.
	id2, _ := c.register()
	if !c.resolve([]byte{0x01}) {
		t.Fatal("resolve found nothing pending after abandon")
	}
	if got, err := c.await(context.Background(), id2, time.Second); err != nil || got == nil {
		t.Fatalf("await after abandon = %x, %v", got, err)
	}
}

func TestCorrelatorUnsolicitedFrameWithNothingPending(t *testing.T) {
	testlog.Start(t)
	c := newCorrelator()
	if c.resolve([]byte{0xFF}) {
		t.Fatal("resolve claimed a match with nothing pending")
	}
}

func TestCorrelatorFailAllTerminatesPendingAndFuture(t *testing.T) {
	testlog.Start(t)
	c := newCorrelator()

	id, _ := c.register()
	c.failAll(ErrTransportClosed)

	if _, err := c.await(context.Background(), id, time.Second); !errors.Is(err, ErrTransportClosed) {
		t.Fatalf("await after failAll = %v, want ErrTransportClosed", err)
	}
	if _, err := c.register(); !errors.Is(err, ErrTransportClosed) {
		t.Fatalf("register after failAll = %v, want ErrTransportClosed", err)
	}
}
