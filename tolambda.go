package tolambda

import (
	"github.com/tos-network/tolambda/tol/codegen"
	"github.com/tos-network/tolambda/tol/lower"
	"github.com/tos-network/tolambda/tol/sema"
)

// Generator accumulates inferred contract state across DSL bodies and renders
// it. It performs no synchronization; callers sharing one Generator must
// serialize the whole process/stage/render sequence.
type Generator struct {
	state sema.State
}

// New returns a Generator seeded with the calling-context locals.
func New() *Generator {
	return &Generator{state: sema.NewState()}
}

// ProcessBody applies body line by line. On failure the lines before the
// failing one stay applied.
func (g *Generator) ProcessBody(body string) error {
	next, diags := sema.Apply(g.state, body)
	g.state = next
	return diags.Err()
}

// RenderGlobalState returns the state-variable block, one declaration per line.
func (g *Generator) RenderGlobalState() string {
	return codegen.GlobalState(g.Program())
}

// RenderDispatcher returns the gateway function forwarding to the lambda.
func (g *Generator) RenderDispatcher() string {
	return codegen.Dispatcher(g.Program())
}

// SetVisibility records the visibility of name. name need not be a known global.
func (g *Generator) SetVisibility(name string, v sema.Visibility) {
	g.state.SetVisibility(name, v)
}

// Clear empties all state, the calling-context locals included.
func (g *Generator) Clear() {
	g.state.Clear()
}

// Reset restores the state of a fresh Generator.
func (g *Generator) Reset() {
	g.state = sema.NewState()
}

// State returns a copy of the accumulated state.
func (g *Generator) State() sema.State {
	return g.state.Clone()
}

// Program lowers the current state into its render-ready form.
func (g *Generator) Program() *lower.Program {
	return lower.FromState(g.state)
}

// Manifest describes the current state. source is hashed when non-empty.
func (g *Generator) Manifest(source []byte) codegen.Manifest {
	m := codegen.BuildManifest(g.Program(), source)
	m.Generator = PackageName + " " + PackageVersion
	return m
}
