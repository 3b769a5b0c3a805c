package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/front10/calendar-chat/pkg/domain"
	"github.com/front10/calendar-chat/pkg/model"
	"github.com/front10/calendar-chat/pkg/store"
	"github.com/front10/calendar-chat/pkg/tools/calendar"
)

// Controller is the main control loop for chat sessions. It subscribes to
// stream events and orchestrates the agent loop: calling the model, executing
// calendar tools, and managing compaction. It also tracks per-session chat
// status and publishes status changes to subscribers.
type Controller struct {
	sessions store.SessionStore
	stream   store.StreamStore
	provider model.Provider
	calendar *calendar.Service

	mu         sync.Mutex
	statuses   map[string]domain.ChatStatus
	statusSubs []chan StatusChange
	cancels    map[string]context.CancelFunc
	stopped    map[string]bool
}

// StatusChange is published whenever a session's chat status changes.
type StatusChange struct {
	SessionID string
	Status    domain.ChatStatus
}

// New creates a new Controller.
func New(
	sessions store.SessionStore,
	stream store.StreamStore,
	provider model.Provider,
	cal *calendar.Service,
) *Controller {
	return &Controller{
		sessions: sessions,
		stream:   stream,
		provider: provider,
		calendar: cal,
		statuses: make(map[string]domain.ChatStatus),
		cancels:  make(map[string]context.CancelFunc),
		stopped:  make(map[string]bool),
	}
}

// systemInstructions describes the assistant's role and the calendar tools it
// can call. This is always used as the model's system prompt.
const systemInstructions = `You are a specialized Google Calendar Assistant. Your primary purpose is to help users manage their Google Calendar events efficiently.

## Available Tools

- getGoogleCalendarList: Get the list of available Google Calendars for the user to choose from.
- getGoogleCalendarEvents: View events from a specific calendar with filtering options.
- createGoogleCalendarEvent: Create new calendar events with full details.
- updateGoogleCalendarEvent: Modify existing calendar events.
- deleteGoogleCalendarEvent: Remove calendar events.
- getGoogleCalendarFreeBusy: Check availability across multiple calendars to find optimal meeting times.

## Calendar Selection

- Always know which calendar the user is working with. Check the conversation history for a selected calendar ID.
- If no calendar is selected, call getGoogleCalendarList first so the user can pick one.
- Pass the correct calendarId to all tools based on conversation memory.
- When the user wants to switch calendars, call getGoogleCalendarList again.

## Modification and Deletion Protocol

- When the user asks to modify an event without specifying what to change, ask what specific details they want to modify. Never assume or invent changes.
- Before modifying or deleting any event, show the current details and the proposed change, and ask for explicit confirmation.
- After creating, modifying, or deleting an event, call getGoogleCalendarEvents for the day of the affected event (timeMin and timeMax set to the same day) to show the updated calendar.

## General

- Handle time zones and date formats appropriately.
- Always indicate which calendar is being used in your responses.`

// Start listens for stream events and triggers the control loop.
func (c *Controller) Start(ctx context.Context) error {
	events := c.stream.Subscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sessionID := <-events:
			if err := c.step(ctx, sessionID); err != nil {
				slog.Error("Controller step error", "sessionID", sessionID, "error", err)
				c.setStatus(sessionID, domain.StatusError)
			}
		}
	}
}

// Status returns the current chat status for a session. Sessions with no
// in-flight work report StatusReady.
func (c *Controller) Status(sessionID string) domain.ChatStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.statuses[sessionID]; ok {
		return s
	}
	return domain.StatusReady
}

// SubscribeStatus returns a channel that receives status changes for all
// sessions.
func (c *Controller) SubscribeStatus() <-chan StatusChange {
	ch := make(chan StatusChange, 64)
	c.mu.Lock()
	c.statusSubs = append(c.statusSubs, ch)
	c.mu.Unlock()
	return ch
}

// Stop cancels any in-flight model call or tool execution for the session.
// The session's status returns to ready.
func (c *Controller) Stop(sessionID string) {
	c.mu.Lock()
	cancel := c.cancels[sessionID]
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) setStatus(sessionID string, status domain.ChatStatus) {
	c.mu.Lock()
	prev, ok := c.statuses[sessionID]
	if ok && prev == status {
		c.mu.Unlock()
		return
	}
	c.statuses[sessionID] = status
	subs := make([]chan StatusChange, len(c.statusSubs))
	copy(subs, c.statusSubs)
	c.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- StatusChange{SessionID: sessionID, Status: status}:
		default:
			// Drop if subscriber is not consuming fast enough.
		}
	}
}

// markStopped records that the session's in-flight tool was cancelled by a
// stop request. The next tool-result step consumes the flag instead of
// calling the model again.
func (c *Controller) markStopped(sessionID string) {
	c.mu.Lock()
	c.stopped[sessionID] = true
	c.mu.Unlock()
}

func (c *Controller) consumeStopped(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped[sessionID] {
		delete(c.stopped, sessionID)
		return true
	}
	return false
}

// registerCancel installs a cancel func for the session and returns a
// cleanup func that removes it.
func (c *Controller) registerCancel(sessionID string, cancel context.CancelFunc) func() {
	c.mu.Lock()
	c.cancels[sessionID] = cancel
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.cancels, sessionID)
		c.mu.Unlock()
		cancel()
	}
}

// step executes one step of the control loop for the given session.
func (c *Controller) step(ctx context.Context, sessionID string) error {
	sess, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	entries, err := c.stream.GetEntries(ctx, sessionID, 0)
	if err != nil {
		return fmt.Errorf("loading stream: %w", err)
	}

	if len(entries) == 0 {
		return nil
	}

	// Determine what to do based on the last entry.
	last := entries[len(entries)-1]

	switch {
	case last.Role == domain.RoleUser:
		// User sent a message → call the model.
		c.setStatus(sessionID, domain.StatusSubmitted)
		if err := c.callModel(ctx, sess, entries); err != nil {
			if errors.Is(err, context.Canceled) {
				c.setStatus(sessionID, domain.StatusReady)
				return nil
			}
			return err
		}
		updatedEntries, err := c.stream.GetEntries(ctx, sessionID, 0)
		if err != nil {
			return fmt.Errorf("reloading stream for compaction: %w", err)
		}
		return c.checkAndCompact(ctx, sess, updatedEntries)

	case last.Role == domain.RoleAssistant && last.ContentType == domain.ContentTypeToolCall:
		// Model requested a tool call → execute it.
		if err := c.executeTool(ctx, sess, last); err != nil {
			if errors.Is(err, context.Canceled) {
				c.setStatus(sessionID, domain.StatusReady)
				return nil
			}
			return err
		}
		return nil

	case last.Role == domain.RoleTool:
		// Tool result → call model again with the result, unless the user
		// stopped the turn and the result only records the cancellation.
		if c.consumeStopped(sessionID) {
			c.setStatus(sessionID, domain.StatusReady)
			return nil
		}
		if err := c.callModel(ctx, sess, entries); err != nil {
			if errors.Is(err, context.Canceled) {
				c.setStatus(sessionID, domain.StatusReady)
				return nil
			}
			return err
		}
		updatedEntries, err := c.stream.GetEntries(ctx, sessionID, 0)
		if err != nil {
			return fmt.Errorf("reloading stream for compaction: %w", err)
		}
		return c.checkAndCompact(ctx, sess, updatedEntries)

	default:
		// Assistant text response or compaction summary: the turn is over.
		if last.Role == domain.RoleAssistant && last.ContentType == domain.ContentTypeText {
			c.setStatus(sessionID, domain.StatusReady)
		}
		return nil
	}
}

// callModel calls the model with the current stream context.
func (c *Controller) callModel(ctx context.Context, sess *domain.Session, entries []domain.StreamEntry) error {
	ctx, cancel := context.WithCancel(ctx)
	defer c.registerCancel(sess.ID, cancel)()

	messages := entriesToMessages(entries)

	c.setStatus(sess.ID, domain.StatusStreaming)

	stream, err := c.provider.Stream(ctx, sess.Model, systemInstructions, messages)
	if err != nil {
		return fmt.Errorf("streaming model: %w", err)
	}
	defer stream.Close()

	msg, err := stream.FullMessage()
	if err != nil {
		return fmt.Errorf("getting model response: %w", err)
	}

	// Write the response to the stream.
	for _, content := range msg.Content {
		entry := &domain.StreamEntry{
			ID:        uuid.New().String(),
			SessionID: sess.ID,
			Role:      domain.RoleAssistant,
			Model:     sess.Model,
		}

		switch content.Type {
		case domain.ContentTypeText:
			entry.ContentType = domain.ContentTypeText
			entry.Content = content.Text
		case domain.ContentTypeToolCall:
			entry.ContentType = domain.ContentTypeToolCall
			b, _ := json.Marshal(content.ToolCall)
			entry.Content = string(b)
		}

		if err := c.stream.Append(ctx, entry); err != nil {
			return fmt.Errorf("appending response: %w", err)
		}
	}

	return nil
}

// executeTool executes a tool call and appends the result. Execution errors
// are recorded as error results rather than failing the step, so the model
// can see and react to them.
func (c *Controller) executeTool(ctx context.Context, sess *domain.Session, entry domain.StreamEntry) error {
	var tc domain.ToolCall
	if err := json.Unmarshal([]byte(entry.Content), &tc); err != nil {
		return fmt.Errorf("parsing tool call: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer c.registerCancel(sess.ID, cancel)()

	result, err := c.dispatchTool(ctx, &tc)
	cancelled := errors.Is(err, context.Canceled)
	if err != nil {
		result = &domain.ToolResult{
			ToolCallID: tc.ID,
			Content:    fmt.Sprintf("Error: %v", err),
			IsError:    true,
		}
	}
	if cancelled {
		c.markStopped(sess.ID)
	}

	// A stop request cancels ctx mid-execution; the error result still has
	// to be persisted so the call resolves instead of dangling.
	resultJSON, _ := json.Marshal(result)
	if err := c.stream.Append(context.WithoutCancel(ctx), &domain.StreamEntry{
		ID:          uuid.New().String(),
		SessionID:   sess.ID,
		Role:        domain.RoleTool,
		ContentType: domain.ContentTypeToolResult,
		Content:     string(resultJSON),
	}); err != nil {
		return fmt.Errorf("appending tool result: %w", err)
	}
	if cancelled {
		return context.Canceled
	}
	return nil
}

// entriesToMessages converts stream entries to model messages.
func entriesToMessages(entries []domain.StreamEntry) []model.Message {
	var messages []model.Message
	for _, e := range entries {
		msg := model.Message{Role: e.Role}
		switch e.ContentType {
		case domain.ContentTypeText:
			msg.Content = []model.Content{{Type: domain.ContentTypeText, Text: e.Content}}
		case domain.ContentTypeToolCall:
			var tc domain.ToolCall
			json.Unmarshal([]byte(e.Content), &tc)
			msg.Content = []model.Content{{Type: domain.ContentTypeToolCall, ToolCall: &tc}}
		case domain.ContentTypeToolResult:
			var tr domain.ToolResult
			json.Unmarshal([]byte(e.Content), &tr)
			msg.Content = []model.Content{{Type: domain.ContentTypeToolResult, ToolResult: &tr}}
		}
		messages = append(messages, msg)
	}
	return messages
}
