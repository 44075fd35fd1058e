package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

// fakeServer implements the Call method of dbus.BusObject.
type fakeServer struct {
	dbus.BusObject

	calls  []*dbus.Call
	nextID uint32
	err    error
}

func (s *fakeServer) Call(method string, flags dbus.Flags, args ...any) *dbus.Call {
	call := &dbus.Call{Method: method, Args: args, Err: s.err}
	s.calls = append(s.calls, call)

	if s.err == nil && method == Interface+".Notify" {
		s.nextID++
		call.Body = []any{s.nextID}
	}

	return call
}

func TestNotifyReplacesPrevious(t *testing.T) {
	server := &fakeServer{nextID: 41}
	n := NewWithObject(server, "Sunshift", WithIcon("weather-clear-night"), WithTimeout(3*time.Second))

	if err := n.Notify("Sunshift", "3000K 60%"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if err := n.Notify("Sunshift", "6500K 100%"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if len(server.calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(server.calls))
	}

	first, second := server.calls[0].Args, server.calls[1].Args

	if first[0] != "Sunshift" || first[2] != "weather-clear-night" || first[3] != "Sunshift" || first[4] != "3000K 60%" {
		t.Errorf("first call args = %v", first)
	}

	if first[1] != uint32(0) {
		t.Errorf("first replaces_id = %v, want 0", first[1])
	}

	if second[1] != uint32(42) {
		t.Errorf("second replaces_id = %v, want 42", second[1])
	}

	if first[7] != int32(3000) {
		t.Errorf("expire timeout = %v, want 3000", first[7])
	}

	hints := first[6].(map[string]dbus.Variant)
	if hints["urgency"].Value() != UrgencyNormal {
		t.Errorf("urgency = %v, want normal", hints["urgency"].Value())
	}
}

func TestAlertIsCritical(t *testing.T) {
	server := &fakeServer{}
	n := NewWithObject(server, "Sunshift")

	if err := n.Alert("Sunshift", "failed"); err != nil {
		t.Fatalf("Alert() error = %v", err)
	}

	args := server.calls[0].Args
	if args[7] != int32(-1) {
		t.Errorf("expire timeout = %v, want -1", args[7])
	}

	hints := args[6].(map[string]dbus.Variant)
	if hints["urgency"].Value() != UrgencyCritical {
		t.Errorf("urgency = %v, want critical", hints["urgency"].Value())
	}
}

func TestNotifyError(t *testing.T) {
	unavailable := errors.New("no notification server")
	server := &fakeServer{err: unavailable}
	n := NewWithObject(server, "Sunshift")

	if err := n.Notify("Sunshift", "x"); !errors.Is(err, unavailable) {
		t.Errorf("Notify() error = %v, want %v", err, unavailable)
	}
}

func TestClose(t *testing.T) {
	server := &fakeServer{}
	n := NewWithObject(server, "Sunshift")

	if err := n.Close(); err != nil || len(server.calls) != 0 {
		t.Fatalf("Close() without notification: err = %v, calls = %d", err, len(server.calls))
	}

	if err := n.Notify("Sunshift", "x"); err != nil {
		t.Fatal(err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	last := server.calls[len(server.calls)-1]
	if last.Method != Interface+".CloseNotification" || last.Args[0] != uint32(1) {
		t.Errorf("close call = %s %v", last.Method, last.Args)
	}
}
