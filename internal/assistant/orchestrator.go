package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	DefaultMaxToolRounds = 5
	DefaultMaxDuration   = 30 * time.Second
)

type Options struct {
	MaxToolRounds int
	MaxDuration   time.Duration
}

// Orchestrator runs one chat turn: it feeds the history to the model, runs
// the tool calls it asks for, and streams everything through an Emitter.
type Orchestrator struct {
	model  Model
	tools  *Registry
	prompt *PromptSource
	opts   Options
	log    *slog.Logger
	newID  func() string
}

func NewOrchestrator(model Model, tools *Registry, prompt *PromptSource, opts Options, log *slog.Logger) *Orchestrator {
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = DefaultMaxToolRounds
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		model:  model,
		tools:  tools,
		prompt: prompt,
		opts:   opts,
		log:    log,
		newID:  func() string { return ulid.Make().String() },
	}
}

// Run executes one turn over history and returns its terminal status.
//
// Up to MaxToolRounds rounds may request tools. The call after the last
// round is made with tools disabled and any calls it still returns are
// dropped, so a turn always ends with text. Calls inside a round run in
// order and all their results are sent back before the next model call.
func (o *Orchestrator) Run(ctx context.Context, history []Message, emit Emitter) TurnStatus {
	ctx, cancel := context.WithTimeout(ctx, o.opts.MaxDuration)
	defer cancel()

	msgID := o.newID()
	emit(Event{Type: EventStart, MessageID: msgID})

	req := ModelRequest{
		System:   o.prompt.Load(),
		Messages: append([]Message(nil), history...),
		Tools:    o.tools.Specs(),
	}

	toolFailed := false
	executed := 0
	for round := 0; ; round++ {
		req.Mode = ToolsAuto
		if round >= o.opts.MaxToolRounds {
			req.Mode = ToolsNone
		}

		text, calls, err := o.step(ctx, req, emit)
		if err != nil {
			return o.fail(ctx, emit, err)
		}

		if req.Mode == ToolsNone || len(calls) == 0 {
			if len(calls) > 0 {
				o.log.WarnContext(ctx, "assistant.tool_calls_dropped", slog.Int("count", len(calls)))
			}
			status := TurnDone
			if toolFailed {
				status = TurnDoneWithError
			}
			o.log.InfoContext(ctx, "assistant.turn",
				slog.String("message_id", msgID),
				slog.Int("rounds", round),
				slog.Int("tool_calls", executed),
				slog.String("status", string(status)),
			)
			emit(Event{Type: EventFinish, MessageID: msgID, Status: status})
			return status
		}

		modelMsg := Message{Role: RoleModel}
		if text != "" {
			modelMsg.Parts = append(modelMsg.Parts, Part{Text: text})
		}
		results := Message{Role: RoleTool}
		for i := range calls {
			call := calls[i]
			if call.ID == "" {
				call.ID = o.newID()
			}
			modelMsg.Parts = append(modelMsg.Parts, Part{Call: &call})

			emit(Event{Type: EventToolCallStart, ToolCallID: call.ID, ToolName: call.Name, Input: call.Args})
			out := o.tools.Call(ctx, call.Name, call.Args)
			executed++
			if out.Failed {
				toolFailed = true
				emit(Event{
					Type:       EventToolCallError,
					ToolCallID: call.ID,
					ToolName:   call.Name,
					Output:     out.Output,
					ErrorText:  errorText(out.Output),
				})
			} else {
				emit(Event{Type: EventToolCallResult, ToolCallID: call.ID, ToolName: call.Name, Output: out.Output})
			}
			results.Parts = append(results.Parts, Part{Result: &ToolResult{ID: call.ID, Name: call.Name, Output: out.Output}})
		}
		req.Messages = append(req.Messages, modelMsg, results)
	}
}

// step runs one model call, forwarding text deltas as they arrive.
func (o *Orchestrator) step(ctx context.Context, req ModelRequest, emit Emitter) (string, []ToolCall, error) {
	var text strings.Builder
	var calls []ToolCall
	for chunk, err := range o.model.Stream(ctx, req) {
		if err != nil {
			return "", nil, err
		}
		if chunk.Text != "" {
			text.WriteString(chunk.Text)
			emit(Event{Type: EventTextDelta, Delta: chunk.Text})
		}
		calls = append(calls, chunk.Calls...)
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	return text.String(), calls, nil
}

func (o *Orchestrator) fail(ctx context.Context, emit Emitter, err error) TurnStatus {
	msg := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		msg = "timeout"
	case errors.Is(err, context.Canceled):
		msg = "canceled"
	}
	o.log.ErrorContext(ctx, "assistant.turn_failed", slog.String("error", err.Error()))
	emit(Event{Type: EventError, ErrorText: msg})
	return TurnFailed
}

func errorText(out map[string]any) string {
	if s, ok := out["error"].(string); ok && s != "" {
		return s
	}
	return "tool failed"
}
