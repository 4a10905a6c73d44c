package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PONTO-backend/internal/presence"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestOrchestrator(m Model, svc PresenceService, opts Options) *Orchestrator {
	return NewOrchestrator(m, NewRegistry(svc), NewPromptSource("", quiet), opts, quiet)
}

func userTurn(text string) []Message { return []Message{TextMessage(RoleUser, text)} }

func findCall(id string) ModelChunk {
	return ModelChunk{Calls: []ToolCall{{ID: id, Name: ToolFindMonth, Args: map[string]any{"month": 11.0, "year": 2025.0}}}}
}

func TestRun_TextOnly(t *testing.T) {
	m := &scriptedModel{script: func(int, ModelRequest) ([]ModelChunk, error) {
		return []ModelChunk{{Text: "Olá"}, {Text: ", tudo bem?"}}, nil
	}}
	rec := &recorder{}

	status := newTestOrchestrator(m, &fakePresence{}, Options{}).Run(context.Background(), userTurn("oi"), rec.emit)

	assert.Equal(t, TurnDone, status)
	assert.Equal(t, []EventType{EventStart, EventTextDelta, EventTextDelta, EventFinish}, rec.types())
	assert.Equal(t, "Olá", rec.events[1].Delta)
	assert.Equal(t, TurnDone, rec.events[3].Status)
	assert.Equal(t, rec.events[0].MessageID, rec.events[3].MessageID)
	assert.NotEmpty(t, rec.events[0].MessageID)

	reqs := m.calls()
	require.Len(t, reqs, 1)
	assert.Equal(t, ToolsAuto, reqs[0].Mode)
	assert.Equal(t, defaultPrompt, reqs[0].System)
	assert.Len(t, reqs[0].Tools, 2)
}

func TestRun_SixToolRequestsAreCappedAtFive(t *testing.T) {
	m := &scriptedModel{script: func(n int, req ModelRequest) ([]ModelChunk, error) {
		if req.Mode == ToolsNone {
			// still asking for a tool: must be ignored
			return []ModelChunk{{Text: "resposta final"}, findCall("ignored")}, nil
		}
		return []ModelChunk{findCall("")}, nil
	}}
	svc := &fakePresence{}
	rec := &recorder{}

	status := newTestOrchestrator(m, svc, Options{MaxToolRounds: 5}).Run(context.Background(), userTurn("liste"), rec.emit)

	assert.Equal(t, TurnDone, status)
	assert.Equal(t, 5, svc.findCount())
	assert.Len(t, rec.ofType(EventToolCallStart), 5)
	assert.Len(t, rec.ofType(EventToolCallResult), 5)

	reqs := m.calls()
	require.Len(t, reqs, 6)
	for i := 0; i < 5; i++ {
		assert.Equal(t, ToolsAuto, reqs[i].Mode, "round %d", i)
	}
	assert.Equal(t, ToolsNone, reqs[5].Mode)
	// user + 5 x (model call, tool result)
	assert.Len(t, reqs[5].Messages, 11)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventFinish, last.Type)
	deltas := rec.ofType(EventTextDelta)
	require.Len(t, deltas, 1)
	assert.Equal(t, "resposta final", deltas[0].Delta)
}

func TestRun_ToolResultsFeedTheNextCall(t *testing.T) {
	m := &scriptedModel{script: func(n int, req ModelRequest) ([]ModelChunk, error) {
		if n == 0 {
			return []ModelChunk{{Text: "Vou verificar."}, {Calls: []ToolCall{
				{Name: ToolFindMonth, Args: map[string]any{"month": 11.0, "year": 2025.0}, Signature: []byte("sig")},
				{Name: ToolFindMonth, Args: map[string]any{"month": 10.0, "year": 2025.0}},
			}}}, nil
		}
		return []ModelChunk{{Text: "Nenhum registro."}}, nil
	}}
	rec := &recorder{}

	status := newTestOrchestrator(m, &fakePresence{}, Options{}).Run(context.Background(), userTurn("novembro"), rec.emit)
	require.Equal(t, TurnDone, status)

	reqs := m.calls()
	require.Len(t, reqs, 2)
	msgs := reqs[1].Messages
	require.Len(t, msgs, 3)

	model := msgs[1]
	assert.Equal(t, RoleModel, model.Role)
	require.Len(t, model.Parts, 3)
	assert.Equal(t, "Vou verificar.", model.Parts[0].Text)
	assert.Equal(t, []byte("sig"), model.Parts[1].Call.Signature)

	tool := msgs[2]
	assert.Equal(t, RoleTool, tool.Role)
	require.Len(t, tool.Parts, 2)
	for i, p := range tool.Parts {
		require.NotNil(t, p.Result)
		assert.Equal(t, model.Parts[i+1].Call.ID, p.Result.ID)
		assert.NotEmpty(t, p.Result.ID, "missing ids are generated")
		assert.Equal(t, true, p.Result.Output["success"])
	}

	starts := rec.ofType(EventToolCallStart)
	results := rec.ofType(EventToolCallResult)
	require.Len(t, starts, 2)
	require.Len(t, results, 2)
	assert.Equal(t, starts[0].ToolCallID, results[0].ToolCallID)
}

func TestRun_ToolFailureEndsDoneWithError(t *testing.T) {
	m := &scriptedModel{script: func(n int, req ModelRequest) ([]ModelChunk, error) {
		if n == 0 {
			return []ModelChunk{{Calls: []ToolCall{{ID: "c1", Name: ToolCreatePresence, Args: map[string]any{
				"day": 3.0, "month": 11.0, "year": 2025.0, "hour": 24.0, "minute": 0.0, "status": "entrada",
			}}}}}, nil
		}
		return []ModelChunk{{Text: "Hora inválida."}}, nil
	}}
	svc := &fakePresence{create: presence.CreateResult{
		Success: false,
		Error:   "Hora inválida. Hora deve estar entre 0-23 e minuto entre 0-59.",
	}}
	rec := &recorder{}

	status := newTestOrchestrator(m, svc, Options{}).Run(context.Background(), userTurn("entrada 24h"), rec.emit)

	assert.Equal(t, TurnDoneWithError, status)
	errs := rec.ofType(EventToolCallError)
	require.Len(t, errs, 1)
	assert.Equal(t, "c1", errs[0].ToolCallID)
	assert.Equal(t, "Hora inválida. Hora deve estar entre 0-23 e minuto entre 0-59.", errs[0].ErrorText)
	assert.Equal(t, false, errs[0].Output["success"])

	require.Len(t, svc.creates, 1)
	assert.Equal(t, 24, svc.creates[0].Hour)

	// the failure went back to the engine as data
	reqs := m.calls()
	require.Len(t, reqs, 2)
	assert.Equal(t, false, reqs[1].Messages[2].Parts[0].Result.Output["success"])

	finish := rec.ofType(EventFinish)
	require.Len(t, finish, 1)
	assert.Equal(t, TurnDoneWithError, finish[0].Status)
}

func TestRun_InvalidArgsAreToolErrors(t *testing.T) {
	m := &scriptedModel{script: func(n int, req ModelRequest) ([]ModelChunk, error) {
		if n == 0 {
			return []ModelChunk{{Calls: []ToolCall{
				{ID: "a", Name: "deleteEverything", Args: map[string]any{}},
				{ID: "b", Name: ToolFindMonth, Args: map[string]any{"month": 11.5, "year": 2025.0}},
			}}}, nil
		}
		return []ModelChunk{{Text: "ok"}}, nil
	}}
	svc := &fakePresence{}
	rec := &recorder{}

	status := newTestOrchestrator(m, svc, Options{}).Run(context.Background(), userTurn("x"), rec.emit)

	assert.Equal(t, TurnDoneWithError, status)
	assert.Len(t, rec.ofType(EventToolCallError), 2)
	assert.Zero(t, svc.findCount())
}

func TestRun_Timeout(t *testing.T) {
	blocking := modelFunc(func(ctx context.Context, req ModelRequest) ([]ModelChunk, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	rec := &recorder{}

	start := time.Now()
	status := newTestOrchestrator(blocking, &fakePresence{}, Options{MaxDuration: 20 * time.Millisecond}).
		Run(context.Background(), userTurn("x"), rec.emit)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, TurnFailed, status)
	assert.Equal(t, []EventType{EventStart, EventError}, rec.types())
	assert.Equal(t, "timeout", rec.events[1].ErrorText)
	assert.Empty(t, rec.ofType(EventFinish))
}

func TestRun_EngineError(t *testing.T) {
	m := &scriptedModel{script: func(int, ModelRequest) ([]ModelChunk, error) {
		return []ModelChunk{{Text: "parcial"}}, errors.New("upstream 503")
	}}
	rec := &recorder{}

	status := newTestOrchestrator(m, &fakePresence{}, Options{}).Run(context.Background(), userTurn("x"), rec.emit)

	assert.Equal(t, TurnFailed, status)
	assert.Equal(t, []EventType{EventStart, EventTextDelta, EventError}, rec.types())
	assert.Equal(t, "upstream 503", rec.events[2].ErrorText)
}

func TestRun_PromptFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Seja breve.\n"), 0o600))

	m := &scriptedModel{script: func(int, ModelRequest) ([]ModelChunk, error) {
		return []ModelChunk{{Text: "ok"}}, nil
	}}
	orc := NewOrchestrator(m, NewRegistry(&fakePresence{}), NewPromptSource(path, quiet), Options{}, quiet)
	orc.Run(context.Background(), userTurn("x"), (&recorder{}).emit)

	// edits are picked up on the next turn
	require.NoError(t, os.WriteFile(path, []byte("Seja detalhado."), 0o600))
	orc.Run(context.Background(), userTurn("x"), (&recorder{}).emit)

	reqs := m.calls()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Seja breve.", reqs[0].System)
	assert.Equal(t, "Seja detalhado.", reqs[1].System)
}

func TestPromptSource_Fallback(t *testing.T) {
	assert.Equal(t, defaultPrompt, NewPromptSource(filepath.Join(t.TempDir(), "missing.txt"), quiet).Load())

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	assert.Equal(t, defaultPrompt, NewPromptSource(empty, quiet).Load())
	assert.NotEmpty(t, defaultPrompt)
}
