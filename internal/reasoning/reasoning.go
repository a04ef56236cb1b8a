// Package reasoning turns conversation history into a spoken reply plus
// structured tool calls by calling a hosted language model.
package reasoning

import (
	"context"

	"github.com/MikeSquared-Agency/vani/internal/session"
	"github.com/MikeSquared-Agency/vani/internal/tools"
)

type Request struct {
	History       []session.Message
	Context       string
	UserConfirmed bool
	Language      string
}

type Response struct {
	Content   string
	ToolCalls []tools.Call
}

// Reasoner produces the assistant's next move.
type Reasoner interface {
	Respond(ctx context.Context, req Request) (Response, error)
}

const (
	temperature = 0.3
	maxTokens   = 250
)
