package transport

import (
	"testing"

	"github.com/tallykit/tallygate/pkg/logging"
)

func TestStatusTrackerNotifiesTransitions(t *testing.T) {
	tracker := newStatusTracker(logging.NewLogger("test"))

	var got []Status
	tracker.Subscribe(func(status Status, _ string) {
		got = append(got, status)
	})

	tracker.set(StatusConnecting, "request")
	tracker.set(StatusConnected, "")
	tracker.set(StatusError, "gateway went away")

	want := []Status{StatusConnecting, StatusConnected, StatusError}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestStatusTrackerSuppressesRepeats(t *testing.T) {
	tracker := newStatusTracker(logging.NewLogger("test"))

	notifications := 0
	tracker.Subscribe(func(Status, string) { notifications++ })

	// A polling monitor sets the same status over and over.
	tracker.set(StatusConnected, "")
	tracker.set(StatusConnected, "")
	tracker.set(StatusConnected, "")

	if notifications != 1 {
		t.Errorf("notifications = %d, want 1", notifications)
	}
	if tracker.Status() != StatusConnected {
		t.Errorf("status = %s, want %s", tracker.Status(), StatusConnected)
	}
}

func TestStatusTrackerRecordsLastError(t *testing.T) {
	tracker := newStatusTracker(logging.NewLogger("test"))

	tracker.set(StatusError, "connection refused")
	if tracker.LastError() != "connection refused" {
		t.Errorf("last error = %q", tracker.LastError())
	}

	// Recovery keeps the last error for diagnostics.
	tracker.set(StatusConnected, "")
	if tracker.LastError() != "connection refused" {
		t.Errorf("last error after recovery = %q", tracker.LastError())
	}

	tracker.set(StatusTimeout, "request timed out")
	if tracker.LastError() != "request timed out" {
		t.Errorf("last error = %q", tracker.LastError())
	}
}
