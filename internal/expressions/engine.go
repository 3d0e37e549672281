package expressions

import (
	"context"
	"fmt"
	"sort"
)

// Engine evaluates an expression against generic JSON data.
// CEL backs document assertions, jq backs document queries and expr backs
// configuration lint rules.
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Set holds one instance of every engine, keyed by name.
type Set struct {
	engines map[string]Engine
}

// NewSet builds the CEL, jq and expr engines.
func NewSet() (*Set, error) {
	cel, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	s := &Set{engines: make(map[string]Engine, 3)}
	for _, e := range []Engine{cel, NewGoJQEngine(), NewExprEngine()} {
		s.engines[e.Name()] = e
	}
	return s, nil
}

// Get returns the engine registered under name.
func (s *Set) Get(name string) (Engine, error) {
	e, ok := s.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown expression engine %q (have %v)", name, s.Names())
	}
	return e, nil
}

// Names lists registered engine names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.engines))
	for n := range s.engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EvaluateBool runs expression on e and requires a boolean result.
func EvaluateBool(ctx context.Context, e Engine, expression string, data map[string]any) (bool, error) {
	out, err := e.Evaluate(ctx, expression, data)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%s expression %q returned %T, want bool", e.Name(), expression, out)
	}
	return b, nil
}
