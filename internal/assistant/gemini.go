package assistant

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"google.golang.org/genai"
)

// Gemini adapts the Google GenAI client to Model.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGemini(ctx context.Context, apiKey, model string, temperature float32) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Gemini{client: client, model: model, temperature: temperature}, nil
}

func (g *Gemini) Stream(ctx context.Context, req ModelRequest) iter.Seq2[ModelChunk, error] {
	return func(yield func(ModelChunk, error) bool) {
		contents := toContents(req.Messages)
		cfg := g.config(req)
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
			if err != nil {
				yield(ModelChunk{}, fmt.Errorf("gemini: %w", err))
				return
			}
			chunk, ok := fromResponse(resp)
			if !ok {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func (g *Gemini) config(req ModelRequest) *genai.GenerateContentConfig {
	temp := g.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
		Tools:       toTools(req.Tools),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	mode := genai.FunctionCallingConfigModeAuto
	if req.Mode == ToolsNone {
		mode = genai.FunctionCallingConfigModeNone
	}
	if len(cfg.Tools) > 0 {
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode},
		}
	}
	return cfg
}

// ===== conversion =====

func toTools(specs []ToolSpec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, s := range specs {
		params := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(s.Params)),
		}
		for _, p := range s.Params {
			prop := &genai.Schema{
				Type:        genai.TypeString,
				Description: p.Description,
				Enum:        p.Enum,
				Minimum:     p.Min,
				Maximum:     p.Max,
			}
			if p.Type == TypeInteger {
				prop.Type = genai.TypeInteger
			}
			params.Properties[p.Name] = prop
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  params,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func toContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		c := &genai.Content{Role: genai.RoleUser}
		if m.Role == RoleModel {
			c.Role = genai.RoleModel
		}
		for _, p := range m.Parts {
			switch {
			case p.Call != nil:
				c.Parts = append(c.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   p.Call.ID,
						Name: p.Call.Name,
						Args: p.Call.Args,
					},
					ThoughtSignature: p.Call.Signature,
				})
			case p.Result != nil:
				c.Parts = append(c.Parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       p.Result.ID,
						Name:     p.Result.Name,
						Response: p.Result.Output,
					},
				})
			case p.Text != "":
				c.Parts = append(c.Parts, genai.NewPartFromText(p.Text))
			}
		}
		if len(c.Parts) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// fromResponse reads the first candidate; thought parts are skipped.
func fromResponse(resp *genai.GenerateContentResponse) (ModelChunk, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ModelChunk{}, false
	}
	var chunk ModelChunk
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		if p.FunctionCall != nil {
			chunk.Calls = append(chunk.Calls, ToolCall{
				ID:        p.FunctionCall.ID,
				Name:      p.FunctionCall.Name,
				Args:      p.FunctionCall.Args,
				Signature: p.ThoughtSignature,
			})
			continue
		}
		chunk.Text += p.Text
	}
	return chunk, chunk.Text != "" || len(chunk.Calls) > 0
}
