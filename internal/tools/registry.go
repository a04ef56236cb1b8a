package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Call is one tool invocation emitted by the reasoner. Arguments is the raw
// JSON object text.
type Call struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
)

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Enum        []string
	Required    bool
	// Aliases are alternative argument names accepted on input.
	Aliases []string
	// Label is how the field is named when asking the caller for it.
	Label string
	// Min and Max bound integer params when Max > Min.
	Min, Max int
	// Normalize rewrites string values after trimming.
	Normalize func(string) string
}

// Spec is the declaration handed to a reasoner.
type Spec struct {
	Name        string
	Description string
	Params      []Param
}

// Invocation carries validated arguments into a handler.
type Invocation struct {
	CallID   string
	Language string
	Args     Args
}

// Result is a handler's outcome. Reply overrides the model's text; Fallback
// is only used when the model said nothing. NotFound marks a lookup miss
// that is answered but not recorded as a completed intent.
type Result struct {
	Reply    string
	Fallback string
	TicketID string
	NotFound bool
}

type HandlerFunc func(ctx context.Context, inv Invocation) (Result, error)

// Tool is a registered, data-driven tool definition.
type Tool struct {
	Name        string
	Aliases     []string
	Description string
	Params      []Param
	// Gated tools only run on a turn where the caller confirmed.
	Gated bool
	// IdentityFields make up the idempotency key. Tools without identity
	// fields are never deduplicated.
	IdentityFields []string
	Handler        HandlerFunc
}

func (t *Tool) Spec() Spec {
	return Spec{Name: t.Name, Description: t.Description, Params: t.Params}
}

type Registry struct {
	byName map[string]*Tool
	order  []*Tool
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Tool)}
}

// Register adds a tool under its name and every alias.
func (r *Registry) Register(t Tool) error {
	names := append([]string{t.Name}, t.Aliases...)
	for _, n := range names {
		if _, exists := r.byName[canonical(n)]; exists {
			return fmt.Errorf("tool %q already registered", n)
		}
	}
	tool := &t
	for _, n := range names {
		r.byName[canonical(n)] = tool
	}
	r.order = append(r.order, tool)
	return nil
}

// Lookup resolves a tool by name or alias, case-insensitively.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.byName[canonical(name)]
	return t, ok
}

// Specs lists the canonical declarations in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, t.Spec())
	}
	return out
}

func canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Args holds validated arguments keyed by canonical param name. Strings are
// trimmed; integers are stored as int.
type Args map[string]any

func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

// parseArgs decodes the raw arguments text into a JSON object.
func parseArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parse tool arguments: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("parse tool arguments: not an object")
	}
	return m, nil
}

// validate coerces raw arguments to the tool's params. It returns the
// labels of required params that are missing or unusable.
func (t *Tool) validate(raw map[string]any) (Args, []string) {
	args := make(Args, len(t.Params))
	var missing []string
	for _, p := range t.Params {
		v, present := lookupArg(raw, p)
		var (
			val any
			ok  bool
		)
		if present {
			val, ok = coerce(v, p)
		}
		if ok {
			args[p.Name] = val
			continue
		}
		if p.Required {
			missing = append(missing, p.label())
		}
	}
	return args, missing
}

func lookupArg(raw map[string]any, p Param) (any, bool) {
	if v, ok := raw[p.Name]; ok && v != nil {
		return v, true
	}
	for _, a := range p.Aliases {
		if v, ok := raw[a]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func coerce(v any, p Param) (any, bool) {
	switch p.Type {
	case TypeInteger:
		var n int
		switch x := v.(type) {
		case float64:
			if x != math.Trunc(x) {
				return nil, false
			}
			n = int(x)
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(x))
			if err != nil {
				return nil, false
			}
			n = parsed
		default:
			return nil, false
		}
		if p.Max > p.Min && (n < p.Min || n > p.Max) {
			return nil, false
		}
		return n, true
	default:
		var s string
		switch x := v.(type) {
		case string:
			s = strings.TrimSpace(x)
		case float64:
			s = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			return nil, false
		}
		if p.Normalize != nil {
			s = p.Normalize(s)
		}
		if s == "" {
			return nil, false
		}
		return s, true
	}
}

func (p Param) label() string {
	if p.Label != "" {
		return p.Label
	}
	return strings.ReplaceAll(p.Name, "_", " ")
}
