package actor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTransport struct {
	mu       sync.Mutex
	sent     []OutboundMessage
	closed   bool
	sendErr  error
}

func (f *fakeTransport) Send(msg OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) snapshot() ([]OutboundMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]OutboundMessage, len(f.sent))
	copy(out, f.sent)
	return out, f.closed
}

func waitUntil(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	assert.Fail(t, "condition never became true within "+d.String())
}

func TestConnectionHandleSendsThroughTransport(t *testing.T) {
	transport := &fakeTransport{}
	var reported connectionDisconnected
	var reportedCh = make(chan struct{}, 1)

	handle := newConnectionHandle(context.Background(), "p-1", "corr-1", transport, func(msg connectionDisconnected) {
		reported = msg
		reportedCh <- struct{}{}
	})

	handle.SendMessage(json.RawMessage(`{"hello":"world"}`))
	handle.SendStateUpdate(json.RawMessage(`{"reason":"test"}`))

	waitUntil(t, time.Second, func() bool {
		sent, _ := transport.snapshot()
		return len(sent) == 2
	})

	sent, closed := transport.snapshot()
	assert.False(t, closed)
	assert.Equal(t, "message", sent[0].Kind)
	assert.Equal(t, "state_update", sent[1].Kind)

	handle.Close()
	select {
	case <-reportedCh:
	case <-time.After(time.Second):
		assert.Fail(t, "onDisconnect was never invoked after Close")
	}
	assert.Equal(t, "p-1", reported.participantID)
	assert.Equal(t, "corr-1", reported.correlationID)

	waitUntil(t, time.Second, func() bool {
		_, closed := transport.snapshot()
		return closed
	})
}

func TestConnectionHandleStopsOnSendFailure(t *testing.T) {
	transport := &fakeTransport{sendErr: assertError("boom")}
	reportedCh := make(chan struct{}, 1)

	handle := newConnectionHandle(context.Background(), "p-1", "corr-1", transport, func(connectionDisconnected) {
		reportedCh <- struct{}{}
	})

	handle.Ping()

	select {
	case <-reportedCh:
	case <-time.After(time.Second):
		assert.Fail(t, "actor did not report upward after a send failure")
	}
}

func TestConnectionHandleDropsWhenMailboxFull(t *testing.T) {
	transport := &fakeTransport{}
	blockCh := make(chan struct{})
	handle := newConnectionHandle(context.Background(), "p-1", "corr-1", &blockingTransport{blockCh: blockCh, inner: transport}, func(connectionDisconnected) {})

	before := DroppedCount()
	for i := 0; i < connectionMailboxSize+10; i++ {
		handle.Ping()
	}
	assert.Greater(t, DroppedCount(), before)
	close(blockCh)
	handle.Close()
}

type blockingTransport struct {
	blockCh chan struct{}
	inner   Transport
}

func (b *blockingTransport) Send(msg OutboundMessage) error {
	<-b.blockCh
	return b.inner.Send(msg)
}

func (b *blockingTransport) Close() error { return b.inner.Close() }

type assertError string

func (e assertError) Error() string { return string(e) }
