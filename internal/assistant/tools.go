package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"PONTO-backend/internal/presence"
)

const (
	ToolFindMonth      = "findMonth"
	ToolCreatePresence = "createPresence"
)

type ParamType string

const (
	TypeInteger ParamType = "integer"
	TypeString  ParamType = "string"
)

type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string
	Min, Max    *float64
}

// ToolSpec is the engine-facing declaration of one tool.
type ToolSpec struct {
	Name        string
	Description string
	Params      []Param
}

func bound(v float64) *float64 { return &v }

var toolSpecs = []ToolSpec{
	{
		Name:        ToolFindMonth,
		Description: "Retorna todos os registros de presença, faltas e horas extras do usuário para o mês e ano solicitado.",
		Params: []Param{
			{Name: "month", Type: TypeInteger, Required: true, Min: bound(1), Max: bound(12),
				Description: "O mês (1-12: 1=Janeiro, 2=Fevereiro, ..., 12=Dezembro)"},
			{Name: "year", Type: TypeInteger, Required: true, Description: "O ano (ex: 2025)"},
		},
	},
	{
		Name:        ToolCreatePresence,
		Description: "Cria um novo registro de presença/falta com data, hora, status e observação. Use para registrar entrada, saída, intervalo ou falta.",
		Params: []Param{
			{Name: "day", Type: TypeInteger, Required: true, Min: bound(1), Max: bound(31), Description: "Dia do mês (1-31)"},
			{Name: "month", Type: TypeInteger, Required: true, Min: bound(1), Max: bound(12), Description: "Mês (1-12, onde 1=janeiro, 12=dezembro)"},
			{Name: "year", Type: TypeInteger, Required: true, Description: "Ano (ex: 2025)"},
			{Name: "hour", Type: TypeInteger, Required: true, Min: bound(0), Max: bound(23), Description: "Hora (0-23)"},
			{Name: "minute", Type: TypeInteger, Required: true, Min: bound(0), Max: bound(59), Description: "Minuto (0-59)"},
			{Name: "status", Type: TypeString, Required: true, Enum: statusNames(),
				Description: "Status do registro: entrada, saida-intervalo, entrada-intervalo, saida ou falta"},
			{Name: "observation", Type: TypeString, Description: "Observação opcional sobre o registro"},
		},
	},
}

func statusNames() []string {
	out := make([]string, 0, len(presence.Statuses))
	for _, s := range presence.Statuses {
		out = append(out, string(s))
	}
	return out
}

// ===== decoded inputs (closed set) =====

// ToolInput is implemented only by the input types of this package.
type ToolInput interface {
	ToolName() string
	sealed()
}

type FindMonthInput struct {
	Month int
	Year  int
}

type CreatePresenceInput struct {
	Day         int
	Month       int
	Year        int
	Hour        int
	Minute      int
	Status      presence.Status
	Observation *string
}

func (FindMonthInput) ToolName() string      { return ToolFindMonth }
func (CreatePresenceInput) ToolName() string { return ToolCreatePresence }
func (FindMonthInput) sealed()               {}
func (CreatePresenceInput) sealed()          {}

var ErrUnknownTool = errors.New("unknown tool")

type findMonthArgs struct {
	Month *int `json:"month"`
	Year  *int `json:"year"`
}

type createPresenceArgs struct {
	Day         *int    `json:"day"`
	Month       *int    `json:"month"`
	Year        *int    `json:"year"`
	Hour        *int    `json:"hour"`
	Minute      *int    `json:"minute"`
	Status      *string `json:"status"`
	Observation *string `json:"observation"`
}

// DecodeCall turns raw engine arguments into a typed input. Unknown tools,
// unknown or missing fields, fractional numbers and out-of-enum statuses fail.
func DecodeCall(name string, args map[string]any) (ToolInput, error) {
	switch name {
	case ToolFindMonth:
		var a findMonthArgs
		if err := strictDecode(args, &a); err != nil {
			return nil, err
		}
		if err := requireFields(field{"month", a.Month != nil}, field{"year", a.Year != nil}); err != nil {
			return nil, err
		}
		return FindMonthInput{Month: *a.Month, Year: *a.Year}, nil

	case ToolCreatePresence:
		var a createPresenceArgs
		if err := strictDecode(args, &a); err != nil {
			return nil, err
		}
		if err := requireFields(
			field{"day", a.Day != nil}, field{"month", a.Month != nil}, field{"year", a.Year != nil},
			field{"hour", a.Hour != nil}, field{"minute", a.Minute != nil}, field{"status", a.Status != nil},
		); err != nil {
			return nil, err
		}
		status, err := presence.ParseStatus(*a.Status)
		if err != nil {
			return nil, err
		}
		return CreatePresenceInput{
			Day: *a.Day, Month: *a.Month, Year: *a.Year,
			Hour: *a.Hour, Minute: *a.Minute,
			Status:      status,
			Observation: a.Observation,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

func strictDecode(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("argumentos inválidos: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("argumentos inválidos: %w", err)
	}
	return nil
}

type field struct {
	name string
	set  bool
}

func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if !f.set {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("argumentos obrigatórios ausentes: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ===== registry =====

// PresenceService is what the tools need from the presence package.
type PresenceService interface {
	FindMonth(ctx context.Context, month, year int) presence.FindMonthResult
	CreateRecord(ctx context.Context, in presence.CreateInput) presence.CreateResult
}

type Registry struct {
	svc PresenceService
}

func NewRegistry(svc PresenceService) *Registry {
	return &Registry{svc: svc}
}

func (r *Registry) Specs() []ToolSpec { return toolSpecs }

// Outcome is a tool result as handed back to the engine. Failed marks a
// success:false payload; it is data, not an abort.
type Outcome struct {
	Output map[string]any
	Failed bool
}

func (r *Registry) Execute(ctx context.Context, in ToolInput) Outcome {
	switch v := in.(type) {
	case FindMonthInput:
		res := r.svc.FindMonth(ctx, v.Month, v.Year)
		return Outcome{Output: toPayload(res), Failed: !res.Success}
	case CreatePresenceInput:
		res := r.svc.CreateRecord(ctx, presence.CreateInput{
			Day: v.Day, Month: v.Month, Year: v.Year,
			Hour: v.Hour, Minute: v.Minute,
			Status:      string(v.Status),
			Observation: v.Observation,
		})
		return Outcome{Output: toPayload(res), Failed: !res.Success}
	default:
		panic(fmt.Sprintf("assistant: unhandled tool input %T", in))
	}
}

// Call decodes and executes; decode failures become failure payloads.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) Outcome {
	in, err := DecodeCall(name, args)
	if err != nil {
		return Outcome{Output: map[string]any{"success": false, "error": errMessage(err)}, Failed: true}
	}
	return r.Execute(ctx, in)
}

// errMessage drops the code prefix of presence errors so every failure
// payload carries only the user-facing message.
func errMessage(err error) string {
	var api *presence.APIError
	if errors.As(err, &api) {
		return api.Message
	}
	return err.Error()
}

func toPayload(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"success": false, "error": err.Error()}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"success": false, "error": err.Error()}
	}
	return out
}
