package genui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/front10/calendar-chat/pkg/domain"
)

// Registry manages component bundles keyed by tool id. Registration happens
// during client setup; rendering happens on every view pass. Last
// registration for a tool id wins, which supports reconfiguration during a
// session.
type Registry struct {
	mu      sync.RWMutex
	bundles map[string]ComponentBundle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bundles: make(map[string]ComponentBundle),
	}
}

// Register adds a bundle, overwriting any prior entry for the same tool id.
// Bundles without a tool id or a Success component are dropped with a
// warning; registration itself never fails.
func (r *Registry) Register(b ComponentBundle) {
	if b.ToolID == "" || b.Success == nil {
		slog.Warn("Ignoring invalid component bundle", "toolID", b.ToolID)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles[b.ToolID] = b
}

// Reset removes all registered bundles. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles = make(map[string]ComponentBundle)
}

// Render produces the view for a tool invocation. It never panics: every
// failure path degrades to an inline placeholder so a bad component or an
// unregistered tool cannot abort the conversation view.
func (r *Registry) Render(inv domain.ToolInvocation) Rendered {
	r.mu.RLock()
	bundle, ok := r.bundles[inv.ToolID]
	r.mu.RUnlock()

	if !ok {
		return Rendered{View: fmt.Sprintf("Component not registered for tool: %s", inv.ToolID)}
	}

	props := Props{
		Input:    inv.Input,
		OnAction: r.actionHandler(bundle, inv.ToolCallID),
	}

	switch inv.State {
	case domain.ToolStateInputStreaming, domain.ToolStateInputAvailable:
		if bundle.Loading == nil {
			return Rendered{}
		}
		return r.invoke(bundle.Loading, props, inv)

	case domain.ToolStateOutputAvailable:
		// An output that is itself an error-shaped record is routed the
		// same as output-error.
		if errText, isErr := errorShapedOutput(inv.Output); isErr {
			props.Error = errText
			return r.renderError(bundle, props, inv)
		}
		props.Output = inv.Output
		return r.invoke(bundle.Success, props, inv)

	case domain.ToolStateOutputError:
		props.Error = inv.Error
		if props.Error == "" {
			props.Error = "Unknown error occurred"
		}
		return r.renderError(bundle, props, inv)

	default:
		slog.Warn("Unknown tool state", "state", inv.State, "toolID", inv.ToolID)
		return Rendered{}
	}
}

// actionHandler returns the OnAction closure handed to components. It closes
// over the bundle's tool id and re-attaches it to whatever partial action the
// view supplies before forwarding to the registered handler.
func (r *Registry) actionHandler(bundle ComponentBundle, toolCallID string) func(PartialAction) {
	return func(pa PartialAction) {
		if bundle.OnUserAction == nil {
			return
		}
		callID := pa.ToolCallID
		if callID == "" {
			callID = toolCallID
		}
		bundle.OnUserAction(UserAction{
			ToolID:     bundle.ToolID,
			ToolCallID: callID,
			Action:     pa.Action,
			Data:       pa.Data,
			Context:    pa.Context,
		})
	}
}

func (r *Registry) renderError(bundle ComponentBundle, props Props, inv domain.ToolInvocation) Rendered {
	if bundle.Error != nil {
		return r.invoke(bundle.Error, props, inv)
	}
	return Rendered{View: fmt.Sprintf("Error: %s", props.Error)}
}

// invoke runs a component, containing any panic as an inline error view.
func (r *Registry) invoke(c Component, props Props, inv domain.ToolInvocation) (out Rendered) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Component panicked during render", "toolID", inv.ToolID, "toolCallID", inv.ToolCallID, "panic", rec)
			out = Rendered{View: fmt.Sprintf("Error: rendering %s failed", inv.ToolID)}
		}
	}()
	return c(props)
}

// errorShapedOutput reports whether a tool output carries an embedded error
// field, normalizing the two error representations into one path.
func errorShapedOutput(output map[string]any) (string, bool) {
	if output == nil {
		return "", false
	}
	v, ok := output["error"]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}
