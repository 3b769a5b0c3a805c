package genui

import (
	"github.com/google/uuid"

	"github.com/front10/calendar-chat/pkg/domain"
)

// ActionSender turns user actions into chat messages and hands them to a
// send function, which is expected to be the queue-aware sender so actions
// taken mid-stream are buffered rather than dropped.
type ActionSender struct {
	Send func(domain.ChatMessage)
}

// HandleUserAction translates the action and sends it as a user message.
// This is the convergence point of the action round-trip: rendered view ->
// partial action -> registry -> here -> transport.
func (s *ActionSender) HandleUserAction(action UserAction) {
	if s.Send == nil {
		return
	}
	s.Send(Message(action))
}

// Message builds the chat message that carries a translated action.
func Message(action UserAction) domain.ChatMessage {
	return domain.ChatMessage{
		ID:   uuid.New().String(),
		Role: domain.RoleUser,
		Parts: []domain.MessagePart{
			{Type: "text", Text: Translate(action)},
		},
	}
}
