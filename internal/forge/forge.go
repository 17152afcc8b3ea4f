package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tos-network/tolambda/tol/diag"
	"go.uber.org/zap"
)

// Contracts inspected after a successful build.
const (
	GatewayContract  = "LambdaAppGateway"
	DeployerContract = "LambdaDeployer"
)

// Runner executes a toolchain command with dir as its working directory.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout []byte, err error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			return stdout.Bytes(), fmt.Errorf("%w: %s", err, msg)
		}
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

// Output holds the deployable artifacts of a staged project.
type Output struct {
	AppGatewayBytecode string          `json:"appgateway_bytecode"`
	DeployerBytecode   string          `json:"deployer_bytecode"`
	AppGatewayABI      json.RawMessage `json:"appgateway_abi"`
	DeployerABI        json.RawMessage `json:"deployer_abi"`
}

// Compiler drives forge over a staged project directory.
type Compiler struct {
	Bin    string
	Runner Runner
	Logger *zap.Logger
}

func NewCompiler(bin string, logger *zap.Logger) *Compiler {
	if bin == "" {
		bin = "forge"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{Bin: bin, Runner: ExecRunner{}, Logger: logger}
}

// Build runs `forge build` in dir, then inspects the gateway and deployer
// bytecode and reads both ABIs from the build output.
func (c *Compiler) Build(ctx context.Context, dir string) (*Output, error) {
	if _, err := c.run(ctx, dir, "build"); err != nil {
		return nil, diag.New(diag.CodeCompileFailed, "forge build failed in %s: %v", filepath.Base(dir), err)
	}
	gateway, err := c.bytecode(ctx, dir, GatewayContract)
	if err != nil {
		return nil, err
	}
	deployer, err := c.bytecode(ctx, dir, DeployerContract)
	if err != nil {
		return nil, err
	}
	gatewayABI, err := ReadABI(dir, GatewayContract)
	if err != nil {
		return nil, err
	}
	deployerABI, err := ReadABI(dir, DeployerContract)
	if err != nil {
		return nil, err
	}
	return &Output{
		AppGatewayBytecode: gateway,
		DeployerBytecode:   deployer,
		AppGatewayABI:      gatewayABI,
		DeployerABI:        deployerABI,
	}, nil
}

func (c *Compiler) bytecode(ctx context.Context, dir, contract string) (string, error) {
	out, err := c.run(ctx, dir, "inspect", contract, "bytecode")
	if err != nil {
		return "", diag.New(diag.CodeCompileFailed, "forge inspect %s failed: %v", contract, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *Compiler) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("forge", zap.String("dir", dir), zap.Strings("args", args))
	return runner.Run(ctx, dir, c.Bin, args...)
}

// ArtifactPath is out/<C>.sol/<C>.json under dir.
func ArtifactPath(dir, contract string) string {
	return filepath.Join(dir, "out", contract+".sol", contract+".json")
}

// ReadABI returns the abi field of a contract's build artifact.
func ReadABI(dir, contract string) (json.RawMessage, error) {
	raw, err := os.ReadFile(ArtifactPath(dir, contract))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, diag.New(diag.CodeCompileMissingABI, "no build artifact for %s", contract)
		}
		return nil, err
	}
	var artifact map[string]json.RawMessage
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("decode %s artifact: %w", contract, err)
	}
	abi, ok := artifact["abi"]
	if !ok {
		return nil, diag.New(diag.CodeCompileMissingABI, "ABI field not found in %s artifact", contract)
	}
	return abi, nil
}
