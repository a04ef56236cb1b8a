package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/MikeSquared-Agency/vani/internal/session"
	"github.com/MikeSquared-Agency/vani/internal/tools"
)

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Gemini calls Google's Gemini API through the genai SDK.
type Gemini struct {
	model    string
	tools    []*genai.Tool
	generate generateFunc
}

func NewGemini(ctx context.Context, apiKey, model string, specs []tools.Spec) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{
		model:    model,
		tools:    geminiTools(specs),
		generate: client.Models.GenerateContent,
	}, nil
}

func (g *Gemini) Respond(ctx context.Context, req Request) (Response, error) {
	temp := float32(temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: SystemPrompt(req.Language, req.Context, req.UserConfirmed)}},
		},
		Temperature:     &temp,
		MaxOutputTokens: maxTokens,
		Tools:           g.tools,
	}

	result, err := g.generate(ctx, g.model, geminiContents(req.History), cfg)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate: %w", err)
	}
	return fromGemini(result)
}

func geminiContents(history []session.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == session.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return contents
}

func geminiTools(specs []tools.Spec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, s := range specs {
		props := make(map[string]*genai.Schema, len(s.Params))
		var required []string
		for _, p := range s.Params {
			schema := &genai.Schema{
				Type:        genai.TypeString,
				Description: p.Description,
				Enum:        p.Enum,
			}
			if p.Type == tools.TypeInteger {
				schema.Type = genai.TypeInteger
				if p.Max > p.Min {
					lo, hi := float64(p.Min), float64(p.Max)
					schema.Minimum = &lo
					schema.Maximum = &hi
				}
			}
			props[p.Name] = schema
			if p.Required {
				required = append(required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func fromGemini(result *genai.GenerateContentResponse) (Response, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return Response{}, fmt.Errorf("gemini response has no candidates")
	}

	var (
		resp Response
		text strings.Builder
	)
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if fc := part.FunctionCall; fc != nil {
			fnArgs := fc.Args
			if fnArgs == nil {
				fnArgs = map[string]any{}
			}
			args, err := json.Marshal(fnArgs)
			if err != nil {
				return Response{}, fmt.Errorf("encode function args: %w", err)
			}
			resp.ToolCalls = append(resp.ToolCalls, tools.Call{Name: fc.Name, Arguments: string(args)})
		}
	}
	resp.Content = strings.TrimSpace(text.String())
	return resp, nil
}
