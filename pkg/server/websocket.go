package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/front10/calendar-chat/pkg/chat"
	"github.com/front10/calendar-chat/pkg/domain"
	"github.com/front10/calendar-chat/pkg/tools/calendar"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		http.Error(w, "Missing session ID", http.StatusBadRequest)
		return
	}

	// Verify the session exists.
	if _, err := s.sessions.Get(r.Context(), sessionID); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}
	defer ws.Close()

	done := make(chan struct{})
	updates := s.stream.Subscribe()
	statuses := s.controller.SubscribeStatus()

	// Send initial stream state and current status.
	sentIDs := make(map[string]bool)
	toolNames := make(map[string]string)
	if err := s.syncStream(ws, sessionID, sentIDs, toolNames); err != nil {
		slog.Error("Failed initial stream sync", "error", err)
		return
	}
	if err := ws.WriteJSON(domain.Event{Type: domain.EventTypeStatus, Status: s.controller.Status(sessionID)}); err != nil {
		slog.Error("Failed initial status write", "error", err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)

	// Writer goroutine: pushes new entries and status changes to the client.
	go func() {
		defer wg.Done()
		defer ws.Close()

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case eventID := <-updates:
				if eventID == sessionID {
					if err := s.syncStream(ws, sessionID, sentIDs, toolNames); err != nil {
						slog.Error("Failed stream sync", "error", err)
						return
					}
				}
			case sc := <-statuses:
				if sc.SessionID == sessionID {
					if err := ws.WriteJSON(domain.Event{Type: domain.EventTypeStatus, Status: sc.Status}); err != nil {
						slog.Error("Failed status write", "error", err)
						return
					}
				}
			case <-ticker.C:
				// Keepalive
			}
		}
	}()

	// Reader loop: receives user messages and stop requests.
	for {
		var frame chat.ClientFrame
		if err := ws.ReadJSON(&frame); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			slog.Error("WebSocket read error", "error", err)
			break
		}

		switch frame.Type {
		case "message":
			if frame.Message == nil {
				continue
			}
			content := frame.Message.Text()
			if content == "" {
				continue
			}
			id := frame.Message.ID
			if id == "" {
				id = uuid.New().String()
			}
			entry := &domain.StreamEntry{
				ID:          id,
				SessionID:   sessionID,
				Role:        domain.RoleUser,
				ContentType: domain.ContentTypeText,
				Content:     content,
			}
			if err := s.stream.Append(r.Context(), entry); err != nil {
				slog.Error("Failed to append user message", "error", err)
			}
		case "stop":
			s.controller.Stop(sessionID)
		default:
			slog.Warn("Unknown client frame type", "type", frame.Type)
		}
	}

	close(done)
	wg.Wait()
}

// syncStream writes any not-yet-sent entries to the websocket. Tool call and
// tool result entries additionally produce tool lifecycle events so the
// client can track each invocation's state.
func (s *Server) syncStream(ws *websocket.Conn, sessionID string, sentIDs map[string]bool, toolNames map[string]string) error {
	entries, err := s.stream.GetEntries(context.Background(), sessionID, 0)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if sentIDs[e.ID] {
			continue
		}
		if err := ws.WriteJSON(domain.Event{Type: domain.EventTypeEntry, Entry: &e}); err != nil {
			return err
		}
		sentIDs[e.ID] = true

		if tev := toolEvent(e, toolNames); tev != nil {
			if err := ws.WriteJSON(domain.Event{Type: domain.EventTypeTool, Tool: tev}); err != nil {
				return err
			}
		}
	}
	return nil
}

// toolEvent translates a tool_call or tool_result stream entry into a tool
// lifecycle event. Returns nil for other entries. toolNames maps call IDs to
// tool names so results can be attributed to the tool that produced them.
func toolEvent(e domain.StreamEntry, toolNames map[string]string) *domain.ToolEvent {
	switch {
	case e.ContentType == domain.ContentTypeToolCall:
		var tc domain.ToolCall
		if err := json.Unmarshal([]byte(e.Content), &tc); err != nil {
			slog.Error("Failed to parse tool call entry", "entryID", e.ID, "error", err)
			return nil
		}
		toolNames[tc.ID] = tc.Name
		return &domain.ToolEvent{
			ToolID:     tc.Name,
			ToolCallID: tc.ID,
			State:      domain.ToolStateInputAvailable,
			Input:      tc.Input,
		}

	case e.ContentType == domain.ContentTypeToolResult:
		var tr domain.ToolResult
		if err := json.Unmarshal([]byte(e.Content), &tr); err != nil {
			slog.Error("Failed to parse tool result entry", "entryID", e.ID, "error", err)
			return nil
		}
		tev := &domain.ToolEvent{
			ToolID:     toolNames[tr.ToolCallID],
			ToolCallID: tr.ToolCallID,
		}
		if tr.IsError {
			tev.State = domain.ToolStateOutputError
			tev.Error = calendar.SanitizeString(tr.Content)
			return tev
		}
		tev.State = domain.ToolStateOutputAvailable
		var output map[string]any
		if err := json.Unmarshal([]byte(tr.Content), &output); err != nil {
			output = map[string]any{"text": tr.Content}
		}
		// Scrub every string in the output before it reaches a rendered
		// component.
		tev.Output, _ = calendar.Sanitize(output).(map[string]any)
		return tev

	default:
		return nil
	}
}
