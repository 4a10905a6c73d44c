// Package assistant runs chat turns against an inference engine that may call
// the presence tools (findMonth, createPresence) a bounded number of times.
package assistant

import (
	"context"
	"iter"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	// RoleTool carries tool results back to the engine.
	RoleTool Role = "tool"
)

// Message is one provider-neutral conversation entry.
type Message struct {
	Role  Role
	Parts []Part
}

// Part holds exactly one of Text, Call or Result.
type Part struct {
	Text   string
	Call   *ToolCall
	Result *ToolResult
}

type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
	// Signature is an opaque provider token that must be echoed back with the call.
	Signature []byte
}

type ToolResult struct {
	ID     string
	Name   string
	Output map[string]any
}

type ToolMode int

const (
	ToolsAuto ToolMode = iota
	// ToolsNone disables function calling; used to force a final answer.
	ToolsNone
)

type ModelRequest struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
	Mode     ToolMode
}

// ModelChunk is one increment of a streamed model reply.
type ModelChunk struct {
	Text  string
	Calls []ToolCall
}

// Model is the inference engine: given a request it yields text and tool
// calls as they are produced. Iteration stops at the first error.
type Model interface {
	Stream(ctx context.Context, req ModelRequest) iter.Seq2[ModelChunk, error]
}

func TextMessage(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{{Text: text}}}
}
