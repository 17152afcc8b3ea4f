package diag

import "fmt"

const (
	CodeMalformedSignature   = "LMB1001"
	CodeMalformedDeclaration = "LMB1002"
	CodeMalformedAssignment  = "LMB1003"
	CodeUnresolvedExpression = "LMB1004"
	CodeStageTemplate        = "LMB2001"
	CodeStagePlaceholder     = "LMB2002"
	CodeCompileFailed        = "LMB3001"
	CodeCompileMissingABI    = "LMB3002"
)

var codeKinds = map[string]string{
	CodeMalformedSignature:   "MalformedSignature",
	CodeMalformedDeclaration: "MalformedDeclaration",
	CodeMalformedAssignment:  "MalformedAssignment",
	CodeUnresolvedExpression: "UnresolvedExpression",
	CodeStageTemplate:        "StageTemplate",
	CodeStagePlaceholder:     "StagePlaceholder",
	CodeCompileFailed:        "CompileFailed",
	CodeCompileMissingABI:    "CompileMissingABI",
}

// Kind returns the symbolic name of a diagnostic code.
func Kind(code string) string {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	return code
}

// Position describes a line/column position in a DSL body.
type Position struct {
	Line   int
	Column int
}

// Span describes a source range.
type Span struct {
	File  string
	Start Position
	End   Position
}

// Diagnostic is a structured processing error. Text carries the offending
// DSL line when one is known.
type Diagnostic struct {
	Code    string
	Message string
	Text    string
	Span    Span
}

func (d Diagnostic) Error() string {
	msg := d.Message
	if d.Text != "" {
		msg = fmt.Sprintf("%s: %q", msg, d.Text)
	}
	if d.Span.Start.Line <= 0 {
		return fmt.Sprintf("[%s] %s", d.Code, msg)
	}
	file := d.Span.File
	if file == "" {
		file = "<body>"
	}
	col := d.Span.Start.Column
	if col <= 0 {
		col = 1
	}
	return fmt.Sprintf("%s:%d:%d: [%s] %s", file, d.Span.Start.Line, col, d.Code, msg)
}

// Is matches diagnostics by code so callers can write
// errors.Is(err, diag.Diagnostic{Code: diag.CodeMalformedAssignment}).
func (d Diagnostic) Is(target error) bool {
	t, ok := target.(Diagnostic)
	return ok && t.Code == d.Code
}

// New builds a diagnostic without a source position.
func New(code, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AtLine builds a diagnostic attached to a 1-based body line.
func AtLine(code string, line int, text, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Text:    text,
		Span: Span{
			Start: Position{Line: line, Column: 1},
			End:   Position{Line: line, Column: len(text) + 1},
		},
	}
}

// WithLine returns a copy of d positioned on a 1-based body line.
func (d Diagnostic) WithLine(line int, text string) Diagnostic {
	d.Text = text
	d.Span.Start = Position{Line: line, Column: 1}
	d.Span.End = Position{Line: line, Column: len(text) + 1}
	return d
}

// Diagnostics is an ordered diagnostic list.
type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return ""
	}
	if len(ds) == 1 {
		return ds[0].Error()
	}
	return fmt.Sprintf("%s (and %d more error(s))", ds[0].Error(), len(ds)-1)
}

func (ds Diagnostics) HasErrors() bool { return len(ds) > 0 }

func (ds Diagnostics) Unwrap() []error {
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = d
	}
	return errs
}

// Err returns ds as an error, or nil when empty.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return ds
}
