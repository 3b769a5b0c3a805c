package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/front10/calendar-chat/pkg/domain"
)

// ClientFrame is what the client writes to the chat websocket.
type ClientFrame struct {
	Type    string              `json:"type"` // "message" or "stop"
	Message *domain.ChatMessage `json:"message,omitempty"`
}

// Client is a websocket connection to the server's chat endpoint. It
// implements Transport and surfaces the server's event stream (entries,
// status changes, tool lifecycle updates) to the UI.
type Client struct {
	conn   *websocket.Conn
	events chan domain.Event

	writeMu sync.Mutex

	mu       sync.RWMutex
	status   domain.ChatStatus
	onStatus func(domain.ChatStatus)
}

var _ Transport = (*Client)(nil)

// Dial connects to the chat websocket for the given session.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing chat websocket: %w", err)
	}

	c := &Client{
		conn:   conn,
		events: make(chan domain.Event, 64),
		status: domain.StatusReady,
	}
	go c.readLoop()
	return c, nil
}

// Events returns the channel of server events. Closed when the connection
// drops.
func (c *Client) Events() <-chan domain.Event {
	return c.events
}

// Status returns the last status reported by the server.
func (c *Client) Status() domain.ChatStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// OnStatusChange registers a callback invoked for every status event, after
// the internal status has been updated. The send queue's OnStatus hangs off
// this.
func (c *Client) OnStatusChange(fn func(domain.ChatStatus)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStatus = fn
}

// Send dispatches one chat message to the server.
func (c *Client) Send(msg domain.ChatMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(ClientFrame{Type: "message", Message: &msg})
}

// Stop asks the server to cancel the in-flight model response. Mid-flight
// tool invocations resolve as errors and the transport returns to ready.
func (c *Client) Stop() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(ClientFrame{Type: "stop"})
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer close(c.events)

	for {
		var ev domain.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Error("Chat websocket read error", "error", err)
			}
			return
		}

		if ev.Type == domain.EventTypeStatus {
			c.mu.Lock()
			c.status = ev.Status
			fn := c.onStatus
			c.mu.Unlock()
			if fn != nil {
				fn(ev.Status)
			}
		}

		c.events <- ev
	}
}
