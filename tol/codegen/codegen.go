package codegen

import (
	"fmt"
	"strings"

	"github.com/tos-network/tolambda/tol/lower"
	"github.com/tos-network/tolambda/tol/parser"
)

// Placeholders spliced by the template stage.
const (
	LambdaPlaceholder = "//lambda_here"
	StatesPlaceholder = "//states_here"
)

// DispatcherName is the gateway entry point forwarding to the lambda contract.
const DispatcherName = "callLambda"

// GlobalState renders one `<type> <visibility> <name>;` line per slot.
func GlobalState(p *lower.Program) string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	for _, s := range p.StorageSlots {
		// Nested has no spelling, so its line starts with the visibility.
		fmt.Fprintf(&sb, "%s %s %s;\n", s.Type.String(), s.Visibility, s.Name)
	}
	return sb.String()
}

// Dispatcher renders the gateway function that forwards every lambda
// parameter, in signature order, to the deployed lambda contract.
func Dispatcher(p *lower.Program) string {
	var params []parser.Param
	if p != nil {
		params = p.LambdaParams
	}
	formals := make([]string, 0, len(params)+1)
	formals = append(formals, "address lambdaAddress")
	args := make([]string, 0, len(params))
	for _, prm := range params {
		formals = append(formals, formalParam(prm))
		args = append(args, prm.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s(\n", DispatcherName)
	fmt.Fprintf(&sb, "    %s\n", strings.Join(formals, ", "))
	sb.WriteString(") public preExecutionChecks async {\n")
	sb.WriteString("    Lambda lambda = Lambda(lambdaAddress);\n")
	fmt.Fprintf(&sb, "    lambda.%s(%s);\n", parser.LambdaName, strings.Join(args, ", "))
	sb.WriteString("}")
	return sb.String()
}

func formalParam(p parser.Param) string {
	if p.Type.IsReference() {
		return fmt.Sprintf("%s memory %s", p.Type.String(), p.Name)
	}
	return fmt.Sprintf("%s %s", p.Type.String(), p.Name)
}
