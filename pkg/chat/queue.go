// Package chat provides the client side of the conversation transport: a
// websocket client that mirrors the server's status and event stream, and a
// send queue that serializes user messages against the single-flight
// streaming transport.
package chat

import (
	"log/slog"
	"sync"

	"github.com/front10/calendar-chat/pkg/domain"
)

// Transport is the outbound half of the chat channel as seen by the queue.
type Transport interface {
	// Send dispatches one message. Blocks until the transport has accepted
	// or rejected it, not until the model has responded.
	Send(msg domain.ChatMessage) error

	// Status reports the transport's current streaming status.
	Status() domain.ChatStatus
}

// SendQueue guarantees at most one in-flight send while the transport is
// busy. Messages enqueued during streaming are delivered FIFO, one per
// transition of the transport to ready, so intermediate streaming output is
// observed between queued sends. A send failure during flush is logged and
// the message dropped; the queue never deadlocks on a failed send.
type SendQueue struct {
	transport Transport

	mu         sync.Mutex
	queue      []domain.ChatMessage
	processing bool
	pending    string
}

// NewSendQueue creates a queue over the given transport.
func NewSendQueue(t Transport) *SendQueue {
	return &SendQueue{transport: t}
}

// EnqueueOrSend sends immediately when the transport is idle, otherwise
// appends the message to the queue and records its text as the pending
// indicator. The immediate path is only taken when the queue is empty by
// construction: the queue is only populated while the transport is busy.
func (q *SendQueue) EnqueueOrSend(msg domain.ChatMessage) {
	q.mu.Lock()
	if q.transport.Status() == domain.StatusStreaming || q.processing {
		q.queue = append(q.queue, msg)
		q.pending = msg.Text()
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	if err := q.transport.Send(msg); err != nil {
		slog.Error("Failed to send message", "error", err)
	}
}

// OnStatus observes a transport status change. A transition to ready
// triggers a flush of exactly one queued message; remaining messages wait
// for the next readiness transition.
func (q *SendQueue) OnStatus(status domain.ChatStatus) {
	if status != domain.StatusReady {
		return
	}
	q.flush()
}

func (q *SendQueue) flush() {
	q.mu.Lock()
	if q.processing || len(q.queue) == 0 || q.transport.Status() == domain.StatusStreaming {
		q.mu.Unlock()
		return
	}
	q.processing = true
	msg := q.queue[0]
	q.pending = ""
	q.mu.Unlock()

	// Fire-and-forget: a failed message is still popped below rather than
	// requeued, matching the observed original behavior.
	if err := q.transport.Send(msg); err != nil {
		slog.Error("Failed to send queued message", "id", msg.ID, "error", err)
	}

	q.mu.Lock()
	q.queue = q.queue[1:]
	q.processing = false
	q.mu.Unlock()
}

// Pending returns the text of the most recently queued message, for the
// "waiting to send" indicator. Cleared when a flush dispatches.
func (q *SendQueue) Pending() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Len returns the number of queued messages.
func (q *SendQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// Processing reports whether a flush is currently dispatching.
func (q *SendQueue) Processing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}
