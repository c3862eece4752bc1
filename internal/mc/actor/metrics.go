// Package actor implements MC's supervised actor hierarchy: ControllerActor
// owns MeetingActors, each of which owns ConnectionActors.
package actor

import (
	"sync/atomic"

	"github.com/zeromicro/go-zero/core/logx"
)

// Dropped counts backpressure drops across every mailbox in the process:
// a drop is never silent, it is always counted even when the caller
// chooses not to retry.
var Dropped int64

func countDrop() { atomic.AddInt64(&Dropped, 1) }

// DroppedCount reads the current drop counter, for /metrics exposition.
func DroppedCount() int64 { return atomic.LoadInt64(&Dropped) }

// MailboxKind selects the soft thresholds assigned to each actor type:
// meeting mailboxes tolerate more queued messages than connection
// mailboxes.
type MailboxKind int

const (
	MeetingMailbox MailboxKind = iota
	ConnectionMailbox
)

type thresholds struct{ warning, critical int }

var mailboxThresholds = map[MailboxKind]thresholds{
	MeetingMailbox:    {warning: 100, critical: 500},
	ConnectionMailbox: {warning: 50, critical: 200},
}

// MailboxMonitor logs once on crossing "warning" and on every observation
// past "critical". It holds no lock of its own: depth is sampled by the
// owning actor's goroutine each time it takes a message off its mailbox.
type MailboxMonitor struct {
	kind         MailboxKind
	label        string
	loggedWarn   bool
	logger       logx.Logger
}

func NewMailboxMonitor(kind MailboxKind, label string) *MailboxMonitor {
	return &MailboxMonitor{kind: kind, label: label, logger: logx.WithContext(nil)} //nolint:staticcheck
}

// Observe is called with the depth still queued right after a message is
// taken off the mailbox.
func (m *MailboxMonitor) Observe(depth int) {
	t := mailboxThresholds[m.kind]
	switch {
	case depth > t.critical:
		m.logger.Errorf("mailbox %s critical: depth=%d", m.label, depth)
	case depth > t.warning:
		if !m.loggedWarn {
			m.logger.Infof("mailbox %s crossed warning threshold: depth=%d", m.label, depth)
			m.loggedWarn = true
		}
	default:
		m.loggedWarn = false
	}
}
