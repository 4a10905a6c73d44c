package assistant

type EventType string

const (
	EventStart          EventType = "start"
	EventTextDelta      EventType = "text-delta"
	EventToolCallStart  EventType = "tool-call-start"
	EventToolCallResult EventType = "tool-call-result"
	EventToolCallError  EventType = "tool-call-error"
	EventError          EventType = "error"
	EventFinish         EventType = "finish"
)

// TurnStatus is the terminal state of a turn.
type TurnStatus string

const (
	TurnDone          TurnStatus = "done"
	TurnDoneWithError TurnStatus = "done-with-error"
	// TurnFailed: the engine or the deadline ended the turn; no finish event.
	TurnFailed TurnStatus = "error"
)

// Event is one item of the chat stream.
type Event struct {
	Type       EventType      `json:"type"`
	MessageID  string         `json:"messageId,omitempty"`
	Delta      string         `json:"delta,omitempty"`
	ToolCallID string         `json:"toolCallId,omitempty"`
	ToolName   string         `json:"toolName,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	ErrorText  string         `json:"errorText,omitempty"`
	Status     TurnStatus     `json:"status,omitempty"`
}

// Emitter receives events in order. It is called from the turn's goroutine only.
type Emitter func(Event)
