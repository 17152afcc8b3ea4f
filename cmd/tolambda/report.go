package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/tos-network/tolambda/tol/diag"
)

// formatError renders err with the offending body line when it carries a
// diagnostic position.
func formatError(err error, name, source string) string {
	var d diag.Diagnostic
	if !errors.As(err, &d) || d.Span.Start.Line <= 0 {
		return color.New(color.FgRed).Sprint(err.Error()) + "\n"
	}
	line := d.Span.Start.Line
	header := color.New(color.Bold).Sprintf("%s:%d", name, line)

	var sb strings.Builder
	sb.WriteString(header + "\n")
	sb.WriteString(color.New(color.FgRed).Sprintf("%s [%s] %s", diag.Kind(d.Code), d.Code, d.Message) + "\n")

	lines := strings.Split(source, "\n")
	if line <= len(lines) {
		text := strings.TrimRight(lines[line-1], "\r")
		numWidth := len(fmt.Sprintf("%d", line))
		sb.WriteString(fmt.Sprintf("%*d | %s\n", numWidth, line, text))
		indent := len(text) - len(strings.TrimLeft(text, " \t"))
		width := len(strings.TrimSpace(text))
		if width < 1 {
			width = 1
		}
		underline := strings.Repeat(" ", numWidth+3+indent)
		underline += color.New(color.FgRed).Sprint(strings.Repeat("^", width))
		sb.WriteString(underline + "\n")
	}
	return sb.String()
}
