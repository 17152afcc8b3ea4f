package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/tos-network/tolambda"
	"github.com/tos-network/tolambda/internal/config"
	"github.com/tos-network/tolambda/internal/forge"
	"github.com/tos-network/tolambda/internal/server"
	"github.com/tos-network/tolambda/internal/stage"
	"github.com/tos-network/tolambda/tol/sema"
	"go.uber.org/zap"
)

func dispatchSubcommand(args []string) (bool, int) {
	if len(args) == 0 {
		return false, 0
	}
	switch args[0] {
	case "infer":
		return true, cmdInfer(args[1:])
	case "stage":
		return true, cmdStage(args[1:])
	case "compile":
		return true, cmdCompile(args[1:])
	case "serve":
		return true, cmdServe(args[1:])
	case "--version", "version":
		fmt.Fprintln(stdout, tolambda.PackageCopyRight)
		return true, 0
	case "--help", "-h", "help":
		printRootSubcommandUsage()
		return true, 0
	default:
		return false, 0
	}
}

func printRootSubcommandUsage() {
	fmt.Fprint(stdout, `Usage:
  tolambda <subcommand> [flags] <inputs...>
  tolambda [options] [body files...]

Subcommands:
  infer     infer contract state from DSL bodies and print the generated code
  stage     infer, then write a staged copy of the template project
  compile   build a staged project with forge and print bytecode/ABI JSON
  serve     run the HTTP service

Global:
  --version print version
  --help    print this help
`)
}

// visFlags collects repeated -vis name=visibility options.
type visFlags []visSetting

type visSetting struct {
	name string
	vis  sema.Visibility
}

func (v *visFlags) String() string {
	parts := make([]string, 0, len(*v))
	for _, s := range *v {
		parts = append(parts, s.name+"="+s.vis.String())
	}
	return strings.Join(parts, ",")
}

func (v *visFlags) Set(raw string) error {
	name, vis, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("expected name=visibility, got %q", raw)
	}
	parsed, err := sema.ParseVisibility(vis)
	if err != nil {
		return err
	}
	*v = append(*v, visSetting{name: strings.TrimSpace(name), vis: parsed})
	return nil
}

func (v visFlags) apply(gen *tolambda.Generator) {
	for _, s := range v {
		gen.SetVisibility(s.name, s.vis)
	}
}

// processFiles feeds each input into gen in order and returns the
// concatenated source text.
func processFiles(gen *tolambda.Generator, inputs []string) (string, bool) {
	var all []string
	for _, path := range inputs {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return "", false
		}
		if err := gen.ProcessBody(string(src)); err != nil {
			fmt.Fprint(stderr, formatError(err, path, string(src)))
			return "", false
		}
		all = append(all, string(src))
	}
	return strings.Join(all, "\n"), true
}

func cmdInfer(args []string) int {
	fs := flag.NewFlagSet("infer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var vis visFlags
	var asJSON bool
	fs.Var(&vis, "vis", "set visibility name=public|private|immutable (repeatable)")
	fs.BoolVar(&asJSON, "json", false, "print the lambda manifest as JSON")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: tolambda infer [-vis name=visibility] [-json] <body...>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "infer requires at least one input body")
		fs.Usage()
		return 1
	}

	gen := tolambda.New()
	vis.apply(gen)
	source, ok := processFiles(gen, fs.Args())
	if !ok {
		return 1
	}
	if asJSON {
		body, err := gen.Manifest([]byte(source)).Encode()
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		stdout.Write(body)
		return 0
	}
	printRendered(stdout, gen)
	return 0
}

func cmdStage(args []string) int {
	fs := flag.NewFlagSet("stage", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfg := config.FromEnv()
	var vis visFlags
	var templateDir, outputDir, name string
	fs.Var(&vis, "vis", "set visibility name=public|private|immutable (repeatable)")
	fs.StringVar(&templateDir, "template", cfg.TemplateDir, "template project directory")
	fs.StringVar(&outputDir, "output", cfg.OutputDir, "directory receiving staged projects")
	fs.StringVar(&name, "name", "", "lambda name (default: input file stem)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: tolambda stage [-template dir] [-output dir] [-name lambda] [-vis name=visibility] <function.sol>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "stage requires exactly one input function")
		fs.Usage()
		return 1
	}
	input := fs.Arg(0)
	if strings.TrimSpace(name) == "" {
		name = inputStem(input)
	}

	gen := tolambda.New()
	vis.apply(gen)
	function, ok := processFiles(gen, []string{input})
	if !ok {
		return 1
	}

	ws := stage.NewWorkspace(templateDir, outputDir)
	dirname, err := ws.Stage(name, time.Now())
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if err := ws.WriteLambda(dirname, function, gen.RenderGlobalState()); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if err := ws.WriteGateway(dirname, gen.RenderDispatcher()); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if err := ws.WriteManifest(dirname, gen.Manifest([]byte(function))); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	fmt.Fprintln(stdout, dirname)
	return 0
}

func cmdCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfg := config.FromEnv()
	var outputDir, forgeBin string
	var timeout time.Duration
	fs.StringVar(&outputDir, "output", cfg.OutputDir, "directory holding staged projects")
	fs.StringVar(&forgeBin, "forge", cfg.ForgeBin, "forge executable")
	fs.DurationVar(&timeout, "timeout", 5*time.Minute, "build timeout")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: tolambda compile [-output dir] [-forge bin] [-timeout d] <dirname>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "compile requires exactly one staged directory name")
		fs.Usage()
		return 1
	}

	dir, err := stage.NewWorkspace("", outputDir).Path(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	out, err := forge.NewCompiler(forgeBin, nil).Build(ctx, dir)
	if err != nil {
		fmt.Fprint(stderr, formatError(err, dir, ""))
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

func cmdServe(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "listen address")
	fs.StringVar(&cfg.TemplateDir, "template", cfg.TemplateDir, "template project directory")
	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "directory receiving staged projects")
	fs.StringVar(&cfg.ForgeBin, "forge", cfg.ForgeBin, "forge executable")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "emit JSON logs")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	logger, err := newLogger(cfg.LogJSON)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	defer func() { _ = logger.Sync() }()

	svc, err := server.NewService(
		stage.NewWorkspace(cfg.TemplateDir, cfg.OutputDir),
		forge.NewCompiler(cfg.ForgeBin, logger.Named("forge")),
		cfg.CompileCacheSize,
		logger.Named("service"),
	)
	if err != nil {
		logger.Error("init service", zap.Error(err))
		return 1
	}
	srv := server.New(cfg.Port, server.NewMux(svc), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.String("env", cfg.Env))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("shutdown", zap.Error(err))
		return 1
	}
	return 0
}

func inputStem(input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimSuffix(base, ext)
}
