package parser

import (
	"strings"

	"github.com/tos-network/tolambda/tol/diag"
	"github.com/tos-network/tolambda/tol/types"
)

// LambdaName is the function identifier that marks the dispatch signature.
const LambdaName = "lambda"

// Param is one declared function parameter.
type Param struct {
	Name string
	Type types.Type
}

// Params holds parsed parameters keyed by name. Order records first
// appearance so dispatch code can forward arguments positionally; duplicate
// names keep their first position and the last declared type.
type Params struct {
	ByName map[string]types.Type
	Order  []string
}

// List returns the parameters in declaration order.
func (p Params) List() []Param {
	out := make([]Param, 0, len(p.Order))
	for _, name := range p.Order {
		out = append(out, Param{Name: name, Type: p.ByName[name]})
	}
	return out
}

// IsDataLocation reports whether tok is a data location keyword.
func IsDataLocation(tok string) bool {
	switch tok {
	case "memory", "storage", "calldata":
		return true
	}
	return false
}

// IsLambdaSignature reports whether line declares the function named lambda.
func IsLambdaSignature(line string) bool {
	return FunctionName(line) == LambdaName
}

// FunctionName returns the identifier of a `function <name>(...)` line, or
// "" when line is not a function signature.
func FunctionName(line string) string {
	words := strings.Fields(line)
	if len(words) < 2 || words[0] != "function" {
		return ""
	}
	name, _, _ := strings.Cut(words[1], "(")
	return name
}

// ParseSignature extracts the parameters between the first '(' and the
// first ')' of a function signature line.
func ParseSignature(line string) (Params, error) {
	out := Params{ByName: map[string]types.Type{}}

	open := strings.IndexByte(line, '(')
	closing := strings.IndexByte(line, ')')
	if open < 0 || closing < 0 || closing < open {
		return out, diag.New(diag.CodeMalformedSignature, "function signature has no parameter list")
	}
	inner := strings.TrimSpace(line[open+1 : closing])
	if inner == "" {
		return out, nil
	}

	for _, group := range strings.Split(inner, ",") {
		name, ty, err := parseParamGroup(group)
		if err != nil {
			return Params{ByName: map[string]types.Type{}}, err
		}
		if _, seen := out.ByName[name]; !seen {
			out.Order = append(out.Order, name)
		}
		out.ByName[name] = ty
	}
	return out, nil
}

func parseParamGroup(group string) (string, types.Type, error) {
	words := strings.Fields(group)
	if len(words) >= 2 && words[0] == "address" && words[1] == "payable" {
		words = append([]string{"address payable"}, words[2:]...)
	}
	if len(words) == 3 && IsDataLocation(words[1]) {
		words = []string{words[0], words[2]}
	}
	if len(words) != 2 {
		return "", types.Type{}, diag.New(diag.CodeMalformedSignature,
			"parameter %q must be '<type> <name>'", strings.TrimSpace(group))
	}
	ty, ok := types.Parse(words[0])
	if !ok {
		return "", types.Type{}, diag.New(diag.CodeMalformedSignature,
			"parameter %q has unknown type %q", strings.TrimSpace(group), words[0])
	}
	return words[1], ty, nil
}
