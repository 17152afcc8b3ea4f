package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/tos-network/tolambda"
	"github.com/tos-network/tolambda/tol/sema"
)

const replHelp = `Enter DSL lines; a line ending in '{' continues until the matching '}'.
Commands:
  :state              print the state-variable block
  :dispatcher         print the gateway dispatcher
  :vars               list locals, lambda parameters and globals
  :vis <name> <vis>   set visibility (public|private|immutable)
  :clear              empty all state
  :reset              restore a fresh state
  :help               show this help
  :quit               leave`

func doREPL(gen *tolambda.Generator) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()
	for {
		body, err := loadBody(rl)
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if quit := evalREPL(rl.Stdout(), gen, body); quit {
			return nil
		}
	}
}

// loadBody reads one line, or several while braces stay unbalanced.
func loadBody(rl *readline.Instance) (string, error) {
	rl.SetPrompt("> ")
	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	body := line
	for braceDepth(body) > 0 {
		rl.SetPrompt(">> ")
		next, err := rl.Readline()
		if err != nil {
			return "", err
		}
		body += "\n" + next
	}
	return body, nil
}

func braceDepth(s string) int {
	return strings.Count(s, "{") - strings.Count(s, "}")
}

// evalREPL handles one REPL input and reports whether to quit.
func evalREPL(w io.Writer, gen *tolambda.Generator, input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}
	if !strings.HasPrefix(trimmed, ":") {
		if err := gen.ProcessBody(input); err != nil {
			fmt.Fprint(w, formatError(err, "<repl>", input))
		}
		return false
	}

	fields := strings.Fields(trimmed)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(w, replHelp)
	case ":state":
		fmt.Fprint(w, gen.RenderGlobalState())
	case ":dispatcher":
		fmt.Fprintln(w, gen.RenderDispatcher())
	case ":vars":
		printVars(w, gen.State())
	case ":clear":
		gen.Clear()
	case ":reset":
		gen.Reset()
	case ":vis":
		if len(fields) != 3 {
			fmt.Fprintln(w, "usage: :vis <name> <public|private|immutable>")
			return false
		}
		v, err := sema.ParseVisibility(fields[2])
		if err != nil {
			fmt.Fprintln(w, err.Error())
			return false
		}
		gen.SetVisibility(fields[1], v)
	default:
		fmt.Fprintf(w, "unknown command %s (try :help)\n", fields[0])
	}
	return false
}

func printVars(w io.Writer, st sema.State) {
	section := func(title string, names []string, typeOf func(string) string) {
		fmt.Fprintf(w, "%s:\n", title)
		for _, n := range names {
			fmt.Fprintf(w, "  %s %s\n", typeOf(n), n)
		}
	}
	section("locals", sortedKeys(st.Locals), func(n string) string { return st.Locals[n].String() })
	section("lambda", st.Lambda.Order, func(n string) string { return st.Lambda.ByName[n].String() })
	section("globals", sortedKeys(st.Globals), func(n string) string {
		return st.Globals[n].String() + " " + st.VisibilityOf(n).String()
	})
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
