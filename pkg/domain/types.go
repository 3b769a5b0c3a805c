package domain

import "time"

// Session represents one conversation with the calendar assistant: a title,
// a configured model, and a rolling message stream.
type Session struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Model               string    `json:"model"`
	CompactionModel     string    `json:"compaction_model,omitempty"`
	CompactionThreshold float64   `json:"compaction_threshold,omitempty"` // 0-1, fraction of max context window
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// StreamEntry represents a single entry in a session's message stream.
type StreamEntry struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Role        Role      `json:"role"`
	ContentType string    `json:"content_type"` // "text", "tool_call", "tool_result"
	Content     string    `json:"content"`      // Text content or JSON-encoded tool call/result
	Model       string    `json:"model,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessagePart is one component of an outbound chat message. Only text parts
// are interpreted by this system; other part types pass through untouched.
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ChatMessage is the outbound send contract: what the client hands to the
// chat transport, and what the server accepts over the websocket.
type ChatMessage struct {
	ID    string        `json:"id"`
	Role  Role          `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// Text joins the message's text parts. Used for pending-queue indicators and
// for folding the message into a stream entry server-side.
func (m ChatMessage) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type != "text" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p.Text
	}
	return out
}

// Model represents an available LLM model.
type Model struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// ToolCall represents a tool invocation by the model.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult represents the outcome of a tool call execution.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}
