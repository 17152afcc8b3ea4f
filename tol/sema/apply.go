package sema

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tos-network/tolambda/tol/diag"
	"github.com/tos-network/tolambda/tol/parser"
	"github.com/tos-network/tolambda/tol/types"
)

// Apply folds body into a copy of st, one physical line at a time. The input
// state is never modified. Processing stops at the first failing line; the
// returned state then holds every line applied before it.
func Apply(st State, body string) (State, diag.Diagnostics) {
	next := st.Clone()
	for i, raw := range strings.Split(body, "\n") {
		line := stripComment(raw)
		if line == "" {
			continue
		}
		if err := next.applyLine(line); err != nil {
			return next, diag.Diagnostics{asDiagnostic(err).WithLine(i+1, line)}
		}
	}
	return next, nil
}

// stripComment drops everything from the first "//". A "//" inside a string
// literal is treated as a comment start too.
func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func (s *State) applyLine(line string) error {
	if parser.IsLambdaSignature(line) {
		params, err := parser.ParseSignature(line)
		if err != nil {
			return err
		}
		s.Lambda = params
		return nil
	}

	words := strings.Fields(line)
	if ty, ok := types.Parse(words[0]); ok {
		return s.declareLocal(ty, words[1:])
	}
	if strings.Contains(line, "=") {
		return s.assign(line)
	}
	return nil
}

// declareLocal handles `<type> [location] <name> [= expr];`. The right-hand
// side is not evaluated.
func (s *State) declareLocal(ty types.Type, rest []string) error {
	if ty.Kind() == types.KindAddress && len(rest) > 0 && strings.TrimSuffix(rest[0], ";") == "payable" {
		ty = types.AddressPayable
		rest = rest[1:]
	}
	if len(rest) > 1 && parser.IsDataLocation(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return diag.New(diag.CodeMalformedDeclaration, "declaration of %s has no variable name", ty)
	}
	name, _, _ := strings.Cut(rest[0], "=")
	name = strings.TrimRight(name, ";")
	if name == "" {
		return diag.New(diag.CodeMalformedDeclaration, "declaration of %s has no variable name", ty)
	}
	s.Locals[name] = ty
	return nil
}

func (s *State) assign(line string) error {
	if n := strings.Count(line, "="); n != 1 {
		return diag.New(diag.CodeMalformedAssignment, "assignment must contain exactly one '=' (found %d)", n)
	}
	left, right, _ := strings.Cut(line, "=")
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(right), ";"))
	if left == "" {
		return diag.New(diag.CodeMalformedAssignment, "assignment has no target")
	}

	if !strings.Contains(left, "[") {
		ty, err := Infer(right, s)
		if err != nil {
			return err
		}
		s.recordGlobal(left, ty)
		return nil
	}

	base, keys, err := indexParts(left)
	if err != nil {
		return err
	}
	if cur, ok := s.Globals[base]; ok && cur.Kind() == types.KindNested {
		return nil
	}
	if len(keys) != 1 || keys[0] == "" {
		s.recordGlobal(base, types.Nested)
		return nil
	}

	keyType, err := Infer(keys[0], s)
	if err != nil {
		return err
	}
	valueType, err := Infer(right, s)
	if err != nil {
		return err
	}
	if idx, err := strconv.ParseUint(keys[0], 10, 64); err == nil && idx >= 1 && idx <= maxStaticLen {
		s.recordGlobal(base, types.ArrayOf(valueType, int(idx)))
		return nil
	}
	s.recordGlobal(base, types.Mapping(keyType, valueType))
	return nil
}

// recordGlobal overwrites any prior entry. Targets that are locals or lambda
// parameters are not contract state.
func (s *State) recordGlobal(name string, ty types.Type) {
	if s.isLocalOrParam(name) {
		return
	}
	s.Globals[name] = ty
}

// indexParts splits `base[k1][k2]...` into the base name and the bracket
// contents. Text after the last bracket group (member access) is ignored.
func indexParts(left string) (string, []string, error) {
	open := strings.IndexByte(left, '[')
	base := strings.TrimSpace(left[:open])
	if base == "" {
		return "", nil, diag.New(diag.CodeMalformedAssignment, "indexed assignment has no base name")
	}
	var keys []string
	rest := left[open:]
	for {
		rest = strings.TrimSpace(rest)
		if rest == "" || rest[0] != '[' {
			break
		}
		depth, end := 0, -1
		for i := 0; i < len(rest) && end < 0; i++ {
			switch rest[i] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					end = i
				}
			}
		}
		if end < 0 {
			return "", nil, diag.New(diag.CodeMalformedAssignment, "unbalanced brackets in %q", left)
		}
		keys = append(keys, strings.TrimSpace(rest[1:end]))
		rest = rest[end+1:]
	}
	return base, keys, nil
}

func asDiagnostic(err error) diag.Diagnostic {
	var d diag.Diagnostic
	if errors.As(err, &d) {
		return d
	}
	return diag.New(diag.CodeMalformedAssignment, "%v", err)
}
