package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/front10/calendar-chat/pkg/domain"
	"github.com/front10/calendar-chat/pkg/tools/calendar"
)

// dispatchTool routes a tool call to the appropriate calendar operation.
func (c *Controller) dispatchTool(ctx context.Context, tc *domain.ToolCall) (*domain.ToolResult, error) {
	switch tc.Name {
	case "getGoogleCalendarList":
		return c.toolGetCalendarList(ctx, tc)
	case "getGoogleCalendarEvents":
		return c.toolGetEvents(ctx, tc)
	case "createGoogleCalendarEvent":
		return c.toolCreateEvent(ctx, tc)
	case "updateGoogleCalendarEvent":
		return c.toolUpdateEvent(ctx, tc)
	case "deleteGoogleCalendarEvent":
		return c.toolDeleteEvent(ctx, tc)
	case "getGoogleCalendarFreeBusy":
		return c.toolGetFreeBusy(ctx, tc)
	default:
		return nil, fmt.Errorf("unknown tool: %s", tc.Name)
	}
}

// decodeInput converts the loosely-typed tool call arguments into the typed
// input struct for a calendar operation.
func decodeInput(tc *domain.ToolCall, v any) error {
	b, err := json.Marshal(tc.Input)
	if err != nil {
		return fmt.Errorf("encoding tool input: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding tool input: %w", err)
	}
	return nil
}

// toolResult JSON-encodes an operation's output as a successful tool result.
func toolResult(tc *domain.ToolCall, output any) (*domain.ToolResult, error) {
	b, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("encoding tool output: %w", err)
	}
	return &domain.ToolResult{
		ToolCallID: tc.ID,
		Content:    string(b),
	}, nil
}

func (c *Controller) toolGetCalendarList(ctx context.Context, tc *domain.ToolCall) (*domain.ToolResult, error) {
	out, err := c.calendar.GetCalendarList(ctx)
	if err != nil {
		return nil, err
	}
	return toolResult(tc, out)
}

func (c *Controller) toolGetEvents(ctx context.Context, tc *domain.ToolCall) (*domain.ToolResult, error) {
	var input calendar.GetEventsInput
	if err := decodeInput(tc, &input); err != nil {
		return nil, err
	}
	out, err := c.calendar.GetEvents(ctx, input)
	if err != nil {
		return nil, err
	}
	return toolResult(tc, out)
}

func (c *Controller) toolCreateEvent(ctx context.Context, tc *domain.ToolCall) (*domain.ToolResult, error) {
	var input calendar.CreateEventInput
	if err := decodeInput(tc, &input); err != nil {
		return nil, err
	}
	out, err := c.calendar.CreateEvent(ctx, input)
	if err != nil {
		return nil, err
	}
	return toolResult(tc, out)
}

func (c *Controller) toolUpdateEvent(ctx context.Context, tc *domain.ToolCall) (*domain.ToolResult, error) {
	var input calendar.UpdateEventInput
	if err := decodeInput(tc, &input); err != nil {
		return nil, err
	}
	out, err := c.calendar.UpdateEvent(ctx, input)
	if err != nil {
		return nil, err
	}
	return toolResult(tc, out)
}

func (c *Controller) toolDeleteEvent(ctx context.Context, tc *domain.ToolCall) (*domain.ToolResult, error) {
	var input calendar.DeleteEventInput
	if err := decodeInput(tc, &input); err != nil {
		return nil, err
	}
	out, err := c.calendar.DeleteEvent(ctx, input)
	if err != nil {
		return nil, err
	}
	return toolResult(tc, out)
}

func (c *Controller) toolGetFreeBusy(ctx context.Context, tc *domain.ToolCall) (*domain.ToolResult, error) {
	var input calendar.FreeBusyInput
	if err := decodeInput(tc, &input); err != nil {
		return nil, err
	}
	out, err := c.calendar.GetFreeBusy(ctx, input)
	if err != nil {
		return nil, err
	}
	return toolResult(tc, out)
}
