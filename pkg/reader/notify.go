package reader

import (
	"time"

	"github.com/tallykit/tallygate/pkg/protocol"
	"github.com/tallykit/tallygate/pkg/transport"
)

// Notifier receives read lifecycle events. GUI consumers implement this to
// drive progress indicators; the reader never blocks on a notifier, so
// implementations must return quickly or dispatch to their own queue.
type Notifier interface {
	ConnectionStatusChanged(status transport.Status, message string)
	DataReadStarted(report protocol.Report)
	DataReadProgress(report protocol.Report, done, total int)
	DataReadCompleted(report protocol.Report, fromCache bool, elapsed time.Duration)
	DataReadError(report protocol.Report, message string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) ConnectionStatusChanged(transport.Status, string)                {}
func (NopNotifier) DataReadStarted(protocol.Report)                                {}
func (NopNotifier) DataReadProgress(protocol.Report, int, int)                     {}
func (NopNotifier) DataReadCompleted(protocol.Report, bool, time.Duration)         {}
func (NopNotifier) DataReadError(protocol.Report, string)                          {}
