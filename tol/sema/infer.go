package sema

import (
	"strconv"
	"strings"

	"github.com/tos-network/tolambda/tol/diag"
	"github.com/tos-network/tolambda/tol/types"
)

// maxStaticLen bounds fixed-size arrays and fixed-width byte strings.
const maxStaticLen = 32

// Scope resolves identifiers during inference.
type Scope interface {
	Lookup(name string) (types.Type, bool)
}

// Infer classifies a literal or identifier. Rules are tried in a fixed order
// and the first match wins; several of them overlap syntactically.
func Infer(text string, scope Scope) (types.Type, error) {
	v := strings.TrimSpace(text)

	if v == "true" || v == "false" {
		return types.Bool, nil
	}
	if isAddressLiteral(v) {
		return types.Address, nil
	}
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return types.String, nil
	}
	if strings.HasPrefix(v, "0x") {
		n := (len(v) - 2) / 2
		if n >= 1 && n <= maxStaticLen {
			return types.FixedBytes(n), nil
		}
		return types.Bytes, nil
	}
	if len(v) >= 2 && v[0] == '[' && v[len(v)-1] == ']' {
		elems := splitTopLevel(strings.TrimSpace(v[1:len(v)-1]), ',')
		elem, err := Infer(elems[0], scope)
		if err != nil {
			return types.Type{}, err
		}
		if len(elems) <= maxStaticLen {
			return types.ArrayOf(elem, len(elems)), nil
		}
		return types.DynamicArrayOf(elem), nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n < 0 {
			return types.Int(256), nil
		}
		return types.Uint(256), nil
	}
	if scope != nil {
		if ty, ok := scope.Lookup(v); ok {
			return ty, nil
		}
	}
	return types.Type{}, diag.New(diag.CodeUnresolvedExpression,
		"%q is neither a recognized literal nor a known variable", v)
}

func isAddressLiteral(v string) bool {
	if len(v) != 42 || !strings.HasPrefix(v, "0x") {
		return false
	}
	for i := 2; i < len(v); i++ {
		ch := v[i]
		isHex := (ch >= '0' && ch <= '9') ||
			(ch >= 'a' && ch <= 'f') ||
			(ch >= 'A' && ch <= 'F')
		if !isHex {
			return false
		}
	}
	return true
}

// splitTopLevel splits s on sep outside of brackets, parentheses and
// double-quoted strings. It always returns at least one element.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '[' || ch == '(':
			depth++
		case ch == ']' || ch == ')':
			depth--
		case ch == sep && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}
