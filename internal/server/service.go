package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tos-network/tolambda"
	"github.com/tos-network/tolambda/internal/forge"
	"github.com/tos-network/tolambda/internal/stage"
	"github.com/tos-network/tolambda/tol/sema"
	"go.uber.org/zap"
)

// Compiler builds a staged project directory.
type Compiler interface {
	Build(ctx context.Context, dir string) (*forge.Output, error)
}

// ErrUnknownDir reports a compile request for a directory that was never staged.
var ErrUnknownDir = errors.New("unknown staged directory")

// Service owns the shared Generator. mu is held across the whole
// process -> stage -> render sequence so concurrent submissions never
// observe each other's half-applied state.
type Service struct {
	mu       sync.Mutex
	gen      *tolambda.Generator
	ws       *stage.Workspace
	compiler Compiler
	cache    *lru.Cache[string, *forge.Output]
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(ws *stage.Workspace, compiler Compiler, cacheSize int, logger *zap.Logger) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, *forge.Output](cacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gen:      tolambda.New(),
		ws:       ws,
		compiler: compiler,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// LambdaResult is the outcome of one submission.
type LambdaResult struct {
	Dirname     string
	StateString string
}

// Submit processes function into the shared state, stages a template copy
// and writes the generated sources into it.
func (s *Service) Submit(function, lambdaName string, reset bool) (LambdaResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reset {
		s.gen.Reset()
	}
	if err := s.gen.ProcessBody(function); err != nil {
		return LambdaResult{StateString: s.gen.RenderGlobalState()}, fmt.Errorf("failed to process lambda: %w", err)
	}
	states := s.gen.RenderGlobalState()
	res := LambdaResult{StateString: states}

	dirname, err := s.ws.Stage(lambdaName, s.now())
	if err != nil {
		return res, fmt.Errorf("failed to write lambda: %w", err)
	}
	res.Dirname = dirname
	if err := s.ws.WriteLambda(dirname, function, states); err != nil {
		return res, fmt.Errorf("failed to write lambda: %w", err)
	}
	if err := s.ws.WriteGateway(dirname, s.gen.RenderDispatcher()); err != nil {
		return res, fmt.Errorf("failed to write gateway: %w", err)
	}
	if err := s.ws.WriteManifest(dirname, s.gen.Manifest([]byte(function))); err != nil {
		return res, fmt.Errorf("failed to write manifest: %w", err)
	}
	return res, nil
}

// Compile builds a staged directory, serving repeated requests from cache.
func (s *Service) Compile(ctx context.Context, dirname string) (*forge.Output, error) {
	if out, ok := s.cache.Get(dirname); ok {
		return out, nil
	}
	dir, err := s.ws.Path(dirname)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownDir, err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDir, dirname)
	}
	out, err := s.compiler.Build(ctx, dir)
	if err != nil {
		return nil, err
	}
	s.cache.Add(dirname, out)
	return out, nil
}

// SetVisibility records a visibility and returns the re-rendered state block.
func (s *Service) SetVisibility(name string, v sema.Visibility) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.SetVisibility(name, v)
	return s.gen.RenderGlobalState()
}

// Snapshot is a read-only view of the shared state.
type Snapshot struct {
	StateString  string            `json:"state_string"`
	Dispatcher   string            `json:"dispatcher"`
	Globals      map[string]string `json:"globals"`
	LambdaParams []ParamView       `json:"lambda_params"`
}

type ParamView struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	prog := s.gen.Program()
	snap := Snapshot{
		StateString:  s.gen.RenderGlobalState(),
		Dispatcher:   s.gen.RenderDispatcher(),
		Globals:      make(map[string]string, len(prog.StorageSlots)),
		LambdaParams: make([]ParamView, 0, len(prog.LambdaParams)),
	}
	for _, slot := range prog.StorageSlots {
		snap.Globals[slot.Name] = slot.Type.String()
	}
	for _, p := range prog.LambdaParams {
		snap.LambdaParams = append(snap.LambdaParams, ParamView{Name: p.Name, Type: p.Type.String()})
	}
	return snap
}

// Reset restores a fresh Generator.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Reset()
}
