package assistant

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct{ orc *Orchestrator }

func RegisterRoutes(r gin.IRoutes, orc *Orchestrator) {
	h := &Handler{orc: orc}
	r.POST("/chat", h.Chat)
}

// UIMessage is one chat entry as sent by the web client.
type UIMessage struct {
	ID      string   `json:"id,omitempty"`
	Role    string   `json:"role"`
	Parts   []UIPart `json:"parts,omitempty"`
	Content string   `json:"content,omitempty"`
}

// UIPart is {type:"text", text} or {type:"tool-<name>", toolCallId, input, output|errorText}.
type UIPart struct {
	Type       string         `json:"type"`
	Text       string         `json:"text,omitempty"`
	ToolCallID string         `json:"toolCallId,omitempty"`
	State      string         `json:"state,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	ErrorText  string         `json:"errorText,omitempty"`
}

type ChatRequest struct {
	Messages []UIMessage `json:"messages" binding:"required"`
}

// Chat godoc
// @Summary  Run one assistant turn
// @Tags     assistant
// @Accept   json
// @Produce  text/event-stream
// @Param    body body ChatRequest true "conversation"
// @Success  200 {string} string "event stream"
// @Failure  400 {object} map[string]string
// @Router   /chat [post]
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	history, err := toHistory(req.Messages)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("X-Vercel-AI-UI-Message-Stream", "v1")

	emit := func(ev Event) {
		c.SSEvent("", ev)
		c.Writer.Flush()
	}
	status := h.orc.Run(c.Request.Context(), history, emit)
	c.SSEvent("", "[DONE]")
	c.Writer.Flush()

	if status == TurnFailed {
		_ = c.Error(errors.New("assistant turn failed"))
	}
}

var errEmptyHistory = errors.New("messages must end with a user message")

// toHistory converts client messages into engine messages. Completed tool
// parts are replayed as a call followed by its result; unfinished ones are dropped.
func toHistory(msgs []UIMessage) ([]Message, error) {
	var out []Message
	for _, m := range msgs {
		switch m.Role {
		case "system":
			// the system instruction is server-side only
			continue
		case "user":
			msg := Message{Role: RoleUser}
			for _, text := range texts(m) {
				msg.Parts = append(msg.Parts, Part{Text: text})
			}
			if len(msg.Parts) > 0 {
				out = append(out, msg)
			}
		case "assistant":
			out = append(out, assistantMessages(m)...)
		default:
			return nil, fmt.Errorf("unsupported role %q", m.Role)
		}
	}
	if len(out) == 0 || out[len(out)-1].Role != RoleUser {
		return nil, errEmptyHistory
	}
	return out, nil
}

func assistantMessages(m UIMessage) []Message {
	var out []Message
	cur := Message{Role: RoleModel}
	if m.Content != "" && len(m.Parts) == 0 {
		cur.Parts = append(cur.Parts, Part{Text: m.Content})
	}
	for _, p := range m.Parts {
		switch {
		case p.Type == "text":
			if p.Text != "" {
				cur.Parts = append(cur.Parts, Part{Text: p.Text})
			}
		case strings.HasPrefix(p.Type, "tool-"):
			output := p.Output
			if output == nil && p.ErrorText != "" {
				output = map[string]any{"success": false, "error": p.ErrorText}
			}
			if output == nil || p.ToolCallID == "" {
				continue
			}
			name := strings.TrimPrefix(p.Type, "tool-")
			cur.Parts = append(cur.Parts, Part{Call: &ToolCall{ID: p.ToolCallID, Name: name, Args: p.Input}})
			out = append(out, cur, Message{
				Role:  RoleTool,
				Parts: []Part{{Result: &ToolResult{ID: p.ToolCallID, Name: name, Output: output}}},
			})
			cur = Message{Role: RoleModel}
		}
	}
	if len(cur.Parts) > 0 {
		out = append(out, cur)
	}
	return out
}

func texts(m UIMessage) []string {
	var out []string
	for _, p := range m.Parts {
		if p.Type == "text" && strings.TrimSpace(p.Text) != "" {
			out = append(out, p.Text)
		}
	}
	if len(out) == 0 && strings.TrimSpace(m.Content) != "" {
		out = append(out, m.Content)
	}
	return out
}
