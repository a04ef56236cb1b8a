package reasoning

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/MikeSquared-Agency/vani/internal/session"
)

func TestGemini_Respond(t *testing.T) {
	var gotContents []*genai.Content
	var gotCfg *genai.GenerateContentConfig
	g := &Gemini{
		model: "gemini-test",
		tools: geminiTools(testSpecs),
		generate: func(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			if model != "gemini-test" {
				t.Errorf("expected model gemini-test, got %s", model)
			}
			gotContents, gotCfg = contents, cfg
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{
						Role: "model",
						Parts: []*genai.Part{
							{Text: "Shall I register "},
							{Text: "this? "},
							{FunctionCall: &genai.FunctionCall{Name: "check_status", Args: map[string]any{"ticket_id": "DEL-ABC123"}}},
						},
					},
				}},
			}, nil
		},
	}

	resp, err := g.Respond(context.Background(), Request{
		History: []session.Message{
			{Role: session.RoleAssistant, Content: "Hello"},
			{Role: session.RoleUser, Content: "Water problem"},
		},
		Language: "punjabi",
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}

	if resp.Content != "Shall I register this?" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Arguments != `{"ticket_id":"DEL-ABC123"}` {
		t.Errorf("unexpected tool calls: %+v", resp.ToolCalls)
	}
	if len(gotContents) != 2 || gotContents[0].Role != "model" || gotContents[1].Role != "user" {
		t.Errorf("expected model/user roles, got %+v", gotContents)
	}
	if gotCfg.SystemInstruction == nil || !strings.Contains(gotCfg.SystemInstruction.Parts[0].Text, "PUNGLISH") {
		t.Error("expected punjabi system instruction")
	}
}

func TestGemini_Error(t *testing.T) {
	g := &Gemini{generate: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("quota exceeded")
	}}
	if _, err := g.Respond(context.Background(), Request{}); err == nil {
		t.Error("expected error")
	}
}

func TestFromGemini_NoCandidates(t *testing.T) {
	if _, err := fromGemini(&genai.GenerateContentResponse{}); err == nil {
		t.Error("expected error for empty response")
	}
}

func TestGeminiTools(t *testing.T) {
	gt := geminiTools(testSpecs)
	if len(gt) != 1 || len(gt[0].FunctionDeclarations) != 1 {
		t.Fatalf("expected one tool with one declaration, got %+v", gt)
	}
	decl := gt[0].FunctionDeclarations[0]
	if decl.Parameters.Properties["rating"].Type != genai.TypeInteger {
		t.Error("expected integer rating schema")
	}
	if len(decl.Parameters.Required) != 1 || decl.Parameters.Required[0] != "name" {
		t.Errorf("expected required [name], got %v", decl.Parameters.Required)
	}
	if geminiTools(nil) != nil {
		t.Error("expected nil tools for no specs")
	}
}
