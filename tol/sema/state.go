package sema

import (
	"fmt"
	"strings"

	"github.com/tos-network/tolambda/tol/parser"
	"github.com/tos-network/tolambda/tol/types"
)

// Visibility is the access modifier attached to a global variable.
type Visibility uint8

const (
	Public Visibility = iota
	Private
	Immutable
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Private:
		return "private"
	case Immutable:
		return "immutable"
	}
	return fmt.Sprintf("visibility(%d)", uint8(v))
}

// ParseVisibility accepts public, private or immutable (case-insensitive).
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return Public, nil
	case "private":
		return Private, nil
	case "immutable":
		return Immutable, nil
	}
	return Public, fmt.Errorf("unknown visibility %q (expected public|private|immutable)", s)
}

// Calling-context locals present in every fresh state.
var seedLocals = map[string]types.Type{
	"msg.sender": types.Address,
	"msg.value":  types.Uint(256),
	"msg.data":   types.Bytes,
}

// State is the accumulated analysis result: local scratch variables, the
// lambda parameters, inferred contract-level globals and their visibilities.
// Visibilities have their own lifecycle and are never pruned.
type State struct {
	Locals       map[string]types.Type
	Lambda       parser.Params
	Globals      map[string]types.Type
	Visibilities map[string]Visibility
}

// NewState returns a state seeded with the calling-context locals.
func NewState() State {
	st := emptyState()
	for name, ty := range seedLocals {
		st.Locals[name] = ty
	}
	return st
}

func emptyState() State {
	return State{
		Locals:       map[string]types.Type{},
		Lambda:       parser.Params{ByName: map[string]types.Type{}},
		Globals:      map[string]types.Type{},
		Visibilities: map[string]Visibility{},
	}
}

// Clone returns a deep copy. Types are immutable and shared.
func (s State) Clone() State {
	out := emptyState()
	for k, v := range s.Locals {
		out.Locals[k] = v
	}
	for k, v := range s.Lambda.ByName {
		out.Lambda.ByName[k] = v
	}
	out.Lambda.Order = append([]string(nil), s.Lambda.Order...)
	for k, v := range s.Globals {
		out.Globals[k] = v
	}
	for k, v := range s.Visibilities {
		out.Visibilities[k] = v
	}
	return out
}

// Clear empties every map, seeded locals included.
func (s *State) Clear() {
	*s = emptyState()
}

// SetVisibility records v for name whether or not name is a known global.
func (s *State) SetVisibility(name string, v Visibility) {
	if s.Visibilities == nil {
		s.Visibilities = map[string]Visibility{}
	}
	s.Visibilities[name] = v
}

// VisibilityOf returns the recorded visibility, Public when absent.
func (s State) VisibilityOf(name string) Visibility {
	if v, ok := s.Visibilities[name]; ok {
		return v
	}
	return Public
}

// Lookup resolves a variable across locals, lambda parameters and globals,
// in that order.
func (s State) Lookup(name string) (types.Type, bool) {
	if ty, ok := s.Locals[name]; ok {
		return ty, true
	}
	if ty, ok := s.Lambda.ByName[name]; ok {
		return ty, true
	}
	if ty, ok := s.Globals[name]; ok {
		return ty, true
	}
	return types.Type{}, false
}

func (s State) isLocalOrParam(name string) bool {
	if _, ok := s.Locals[name]; ok {
		return true
	}
	_, ok := s.Lambda.ByName[name]
	return ok
}
