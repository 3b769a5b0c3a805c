package domain

// ToolState is the lifecycle stage of a tool invocation as observed by the
// client. Transitions are strictly input-streaming -> input-available ->
// (output-available | output-error); a resolved invocation is terminal.
type ToolState string

const (
	ToolStateInputStreaming  ToolState = "input-streaming"
	ToolStateInputAvailable  ToolState = "input-available"
	ToolStateOutputAvailable ToolState = "output-available"
	ToolStateOutputError     ToolState = "output-error"
)

// ToolInvocation is one call the model made to a named tool. Exactly one of
// Output and Error is meaningful, gated by State. A retry is a new invocation
// with a new ToolCallID, never a reuse.
type ToolInvocation struct {
	ToolID     string         `json:"tool_id"`
	ToolCallID string         `json:"tool_call_id"`
	State      ToolState      `json:"state"`
	Input      map[string]any `json:"input,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ChatStatus is the transport status reported by the server, mirrored by the
// client transport and consumed by the send queue.
type ChatStatus string

const (
	StatusReady     ChatStatus = "ready"
	StatusSubmitted ChatStatus = "submitted"
	StatusStreaming ChatStatus = "streaming"
	StatusError     ChatStatus = "error"
)

// Event types sent over the chat websocket.
const (
	EventTypeEntry  = "entry"
	EventTypeStatus = "status"
	EventTypeTool   = "tool"
)

// Event is the envelope for everything the server pushes over the chat
// websocket: new stream entries, transport status changes, and tool
// invocation lifecycle updates.
type Event struct {
	Type   string       `json:"type"`
	Entry  *StreamEntry `json:"entry,omitempty"`
	Status ChatStatus   `json:"status,omitempty"`
	Tool   *ToolEvent   `json:"tool,omitempty"`
}

// ToolEvent is one state-tagged update for a tool invocation, keyed by
// ToolCallID. The client folds these into its ToolInvocation view.
type ToolEvent struct {
	ToolID     string         `json:"tool_id"`
	ToolCallID string         `json:"tool_call_id"`
	State      ToolState      `json:"state"`
	Input      map[string]any `json:"input,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
}
