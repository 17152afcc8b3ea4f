package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/tos-network/tolambda"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	os.Exit(mainAux(os.Args[1:]))
}

func mainAux(args []string) int {
	if handled, code := dispatchSubcommand(args); handled {
		return code
	}

	fs := flag.NewFlagSet("tolambda", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var optE string
	var optI, optV bool
	fs.StringVar(&optE, "e", "", "")
	fs.BoolVar(&optI, "i", false, "")
	fs.BoolVar(&optV, "v", false, "")
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: tolambda [options] [body files...]
	Available options are:
	  -e body  process the DSL text 'body'
	  -i       enter interactive mode after processing inputs
	  -v       show version information
	With no inputs, a piped stdin is read as the body.

Run 'tolambda help' for subcommands.`)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	piped := false
	if len(optE) == 0 && !optI && !optV && fs.NArg() == 0 {
		if stdinIsTerminal() {
			optI = true
		} else {
			piped = true
		}
	}
	if optV || optI {
		fmt.Fprintln(stdout, tolambda.PackageCopyRight)
	}

	gen := tolambda.New()
	status := 0
	if len(optE) > 0 {
		if err := gen.ProcessBody(optE); err != nil {
			fmt.Fprint(stderr, formatError(err, "<e>", optE))
			status = 1
		}
	}
	for _, path := range fs.Args() {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			status = 1
			continue
		}
		if err := gen.ProcessBody(string(src)); err != nil {
			fmt.Fprint(stderr, formatError(err, path, string(src)))
			status = 1
		}
	}
	if piped {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		if err := gen.ProcessBody(string(src)); err != nil {
			fmt.Fprint(stderr, formatError(err, "<stdin>", string(src)))
			status = 1
		}
	}
	if len(optE) > 0 || fs.NArg() > 0 || piped {
		printRendered(stdout, gen)
	}
	if optI {
		if err := doREPL(gen); err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
	}
	return status
}

var stdinIsTerminal = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printRendered(w io.Writer, gen *tolambda.Generator) {
	states := gen.RenderGlobalState()
	if strings.TrimSpace(states) != "" {
		fmt.Fprint(w, states)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, gen.RenderDispatcher())
}
