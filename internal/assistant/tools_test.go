package assistant

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PONTO-backend/internal/platform/db/dbtest"
	"PONTO-backend/internal/presence"
)

func TestDecodeCall(t *testing.T) {
	obs := "home office"
	tests := []struct {
		name string
		tool string
		args map[string]any
		want ToolInput
	}{
		{"find month", ToolFindMonth, map[string]any{"month": 11.0, "year": 2025.0}, FindMonthInput{Month: 11, Year: 2025}},
		{"find month ints", ToolFindMonth, map[string]any{"month": 1, "year": 2024}, FindMonthInput{Month: 1, Year: 2024}},
		{"create", ToolCreatePresence, map[string]any{
			"day": 3.0, "month": 11.0, "year": 2025.0, "hour": 8.0, "minute": 5.0,
			"status": "entrada", "observation": obs,
		}, CreatePresenceInput{Day: 3, Month: 11, Year: 2025, Hour: 8, Minute: 5, Status: presence.StatusEntrada, Observation: &obs}},
		{"create folded status", ToolCreatePresence, map[string]any{
			"day": 3.0, "month": 11.0, "year": 2025.0, "hour": 18.0, "minute": 0.0, "status": "Saída",
		}, CreatePresenceInput{Day: 3, Month: 11, Year: 2025, Hour: 18, Minute: 0, Status: presence.StatusSaida}},
		// range checks belong to the services, not to decoding
		{"out of range passes decode", ToolFindMonth, map[string]any{"month": 13.0, "year": 2025.0}, FindMonthInput{Month: 13, Year: 2025}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCall(tt.tool, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.tool, got.ToolName())
		})
	}
}

func TestDecodeCall_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		errPart string
	}{
		{"unknown tool", "dropTable", map[string]any{}, "unknown tool"},
		{"missing field", ToolFindMonth, map[string]any{"month": 11.0}, "year"},
		{"null field", ToolFindMonth, map[string]any{"month": nil, "year": 2025.0}, "month"},
		{"fractional", ToolFindMonth, map[string]any{"month": 11.5, "year": 2025.0}, "argumentos inválidos"},
		{"string number", ToolFindMonth, map[string]any{"month": "11", "year": 2025.0}, "argumentos inválidos"},
		{"unknown field", ToolFindMonth, map[string]any{"month": 11.0, "year": 2025.0, "user": "x"}, "argumentos inválidos"},
		{"bad status", ToolCreatePresence, map[string]any{
			"day": 3.0, "month": 11.0, "year": 2025.0, "hour": 8.0, "minute": 5.0, "status": "almoço",
		}, "Status inválido"},
		{"create missing several", ToolCreatePresence, map[string]any{"day": 3.0}, "month, year, hour, minute, status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCall(tt.tool, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestRegistry_Specs(t *testing.T) {
	specs := NewRegistry(&fakePresence{}).Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, ToolFindMonth, specs[0].Name)
	assert.Equal(t, ToolCreatePresence, specs[1].Name)

	var status Param
	for _, p := range specs[1].Params {
		if p.Name == "status" {
			status = p
		}
	}
	assert.Equal(t, []string{"entrada", "saida-intervalo", "entrada-intervalo", "saida", "falta"}, status.Enum)
	assert.True(t, status.Required)
}

func TestRegistry_AgainstPresenceService(t *testing.T) {
	conn, dialect := dbtest.NewSQLite(t)
	loc := time.FixedZone("BRT", -3*60*60)
	svc := presence.NewService(presence.NewStore(conn, dialect, loc), nil, loc,
		presence.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	reg := NewRegistry(svc)
	ctx := context.Background()

	out := reg.Call(ctx, ToolFindMonth, map[string]any{"month": 11.0, "year": 2025.0})
	require.False(t, out.Failed)
	assert.Equal(t, "Nenhum registro encontrado para 11/2025", out.Output["message"])
	assert.Equal(t, map[string]any{"start": "2025-11-01", "end": "2025-11-30"}, out.Output["period"])

	out = reg.Call(ctx, ToolCreatePresence, map[string]any{
		"day": 3.0, "month": 11.0, "year": 2025.0, "hour": 8.0, "minute": 5.0, "status": "entrada",
	})
	require.False(t, out.Failed, out.Output)
	data := out.Output["data"].(map[string]any)
	assert.Equal(t, "03/11/2025", data["date"])
	assert.Equal(t, "08:05", data["time"])
	assert.Equal(t, "Nenhuma", data["observation"])

	out = reg.Call(ctx, ToolFindMonth, map[string]any{"month": 11.0, "year": 2025.0})
	require.False(t, out.Failed)
	assert.Len(t, out.Output["data"], 1)

	out = reg.Call(ctx, ToolCreatePresence, map[string]any{
		"day": 30.0, "month": 2.0, "year": 2025.0, "hour": 8.0, "minute": 0.0, "status": "entrada",
	})
	assert.True(t, out.Failed)
	assert.Equal(t, false, out.Output["success"])
	assert.Equal(t, "Data inválida. 30/02/2025 não existe.", out.Output["error"])
}

func TestRegistry_CallFailureCarriesOnlyTheMessage(t *testing.T) {
	reg := NewRegistry(nil)

	out := reg.Call(context.Background(), ToolCreatePresence, map[string]any{
		"day": 3.0, "month": 11.0, "year": 2025.0, "hour": 8.0, "minute": 0.0, "status": "almoço",
	})
	require.True(t, out.Failed)
	assert.Equal(t, false, out.Output["success"])
	assert.Equal(t,
		`Status inválido: "almoço". Use entrada, saida-intervalo, entrada-intervalo, saida ou falta.`,
		out.Output["error"])
	assert.NotContains(t, out.Output["error"], string(presence.CodeInvalidArgument))

	out = reg.Call(context.Background(), "deletePresence", map[string]any{})
	require.True(t, out.Failed)
	assert.Contains(t, out.Output["error"], "deletePresence")
}
