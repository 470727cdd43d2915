package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/printbridge/labelctl/internal/protocol"
	"github.com/printbridge/labelctl/internal/testutil/testlog"
	"github.com/printbridge/labelctl/internal/transport"
)

// respondWith builds a pipe whose sink answers every write with one fixed
// response frame.
func respondWith(t *testing.T, respType byte, payload []byte) *transport.Pipe {
	t.Helper()
	var tr *transport.Pipe
	tr = transport.NewPipe(func(p []byte) error {
		resp, err := protocol.Encode(respType, payload)
		if err != nil {
			return err
		}
		tr.Push(resp)
		return nil
	})
	return tr
}

func TestClientHeartbeat(t *testing.T) {
	testlog.Start(t)

	payload := make([]byte, 10)
	payload[8], payload[9] = 0, 80 // cover closed, battery 80
	tr := respondWith(t, protocol.TypeHeartbeat+1, payload)
	client := NewClient(tr)
	defer client.Close()

	report, err := client.Heartbeat(context.Background())
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if report.ClosingState == nil || *report.ClosingState != 0 {
		t.Fatalf("closing state = %v, want 0", report.ClosingState)
	}
	if report.PowerLevel == nil || *report.PowerLevel != 80 {
		t.Fatalf("power level = %v, want 80", report.PowerLevel)
	}
	if report.PaperState != nil || report.RfidReadState != nil {
		t.Fatal("length-10 heartbeat must not report paper or rfid state")
	}
}

func TestClientDeviceInfoSerial(t *testing.T) {
	testlog.Start(t)

	tr := respondWith(t, protocol.TypeGetInfo+1, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	client := NewClient(tr)
	defer client.Close()

	info, err := client.DeviceInfo(context.Background(), protocol.InfoDeviceSerial)
	if err != nil {
		t.Fatalf("device info: %v", err)
	}
	if info.Serial != "deadbeef" {
		t.Fatalf("serial = %q, want %q", info.Serial, "deadbeef")
	}
}

func TestClientReadRfidNoTag(t *testing.T) {
	testlog.Start(t)

	tr := respondWith(t, protocol.TypeGetRfid+1, []byte{0})
	client := NewClient(tr)
	defer client.Close()

	rec, err := client.ReadRfid(context.Background())
	if err != nil {
		t.Fatalf("read rfid: %v", err)
	}
	if rec != nil {
		t.Fatalf("record = %+v, want nil for absent tag", rec)
	}
}

func TestClientRequestTimesOutSoftly(t *testing.T) {
	testlog.Start(t)

	tr := transport.NewPipe(nil) // printer never answers
	client := NewClient(tr, WithRequestTimeout(20*time.Millisecond))
	defer client.Close()

	_, err := client.Heartbeat(context.Background())
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("heartbeat on silent printer = %v, want ErrNoResponse", err)
	}
}

func TestClientFailsInFlightOnTransportClose(t *testing.T) {
	testlog.Start(t)

	tr := transport.NewPipe(nil)
	client := NewClient(tr, WithRequestTimeout(5*time.Second))

	errc := make(chan error, 1)
	go func() {
		_, err := client.Heartbeat(context.Background())
		errc <- err
	}()

	// Let the request reach the correlator before the link drops.
	time.Sleep(20 * time.Millisecond)
	tr.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrTransportClosed) {
			t.Fatalf("heartbeat across disconnect = %v, want ErrTransportClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("request not failed after transport close")
	}
	client.Close()
}

func TestClientReassemblesFragmentedResponse(t *testing.T) {
	testlog.Start(t)

	var tr *transport.Pipe
	tr = transport.NewPipe(func(p []byte) error {
		resp, err := protocol.Encode(protocol.TypeHeartbeat+1, make([]byte, 13))
		if err != nil {
			return err
		}
		// Deliver the frame the way a BLE link might: split mid-frame.
		tr.Push(resp[:5])
		tr.Push(resp[5:])
		return nil
	})
	client := NewClient(tr)
	defer client.Close()

	report, err := client.Heartbeat(context.Background())
	if err != nil {
		t.Fatalf("heartbeat over fragmented link: %v", err)
	}
	if report.PaperState == nil {
		t.Fatal("length-13 heartbeat must report paper state")
	}
}
