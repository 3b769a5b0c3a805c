// Package genui maps tool invocations to renderable chat components. Each
// tool the model can call registers a bundle of views keyed by execution
// state (loading / success / error) plus a handler for actions the user
// takes on the rendered result. The renderer dispatches on the invocation's
// lifecycle state and must never fail in a way that takes down the
// conversation view.
package genui

// UserAction is an event emitted by a rendered tool-result view, destined to
// be translated into a chat message. Created inside an event handler,
// consumed once, not persisted.
type UserAction struct {
	ToolID     string         `json:"tool_id"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Action     string         `json:"action"`
	Data       map[string]any `json:"data,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

// PartialAction is a UserAction before the registry re-attaches the owning
// tool identifier. Views emit these so they never need to know which tool
// they belong to.
type PartialAction struct {
	ToolCallID string
	Action     string
	Data       map[string]any
	Context    map[string]any
}

// Props is what a component receives when rendered. OnAction routes a
// partial action back through the registry, which completes it with the
// bundle's tool id and forwards it to the registered handler.
type Props struct {
	Input    map[string]any
	Output   map[string]any
	Error    string
	OnAction func(PartialAction)
}

// BoundAction is a user-triggerable affordance attached to a rendered view.
// Key is the shortcut the UI binds it to; Invoke routes the action through
// the component's OnAction.
type BoundAction struct {
	Key    string
	Label  string
	Invoke func()
}

// Rendered is the output of rendering one tool invocation.
type Rendered struct {
	View    string
	Actions []BoundAction
}

// Empty reports whether there is nothing to display.
func (r Rendered) Empty() bool {
	return r.View == "" && len(r.Actions) == 0
}

// Component is a pure rendering function for one lifecycle state.
type Component func(Props) Rendered

// ComponentBundle binds a tool identifier to its views and action handler.
// Success is required; Loading and Error are optional. This is a capability
// binding, not a runtime instance.
type ComponentBundle struct {
	ToolID       string
	Loading      Component
	Success      Component
	Error        Component
	OnUserAction func(UserAction)
}
