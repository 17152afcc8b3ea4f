package forge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/tolambda/tol/diag"
	"go.uber.org/zap"
)

type call struct {
	dir  string
	name string
	args []string
}

type fakeRunner struct {
	calls   []call
	outputs map[string]string
	fail    map[string]error
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{dir: dir, name: name, args: args})
	key := strings.Join(args, " ")
	if err, ok := f.fail[key]; ok {
		return nil, err
	}
	return []byte(f.outputs[key]), nil
}

func writeArtifact(t *testing.T, dir, contract, body string) {
	t.Helper()
	path := ArtifactPath(dir, contract)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func newCompiler(r Runner) *Compiler {
	return &Compiler{Bin: "forge", Runner: r, Logger: zap.NewNop()}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, GatewayContract, `{"abi":[{"type":"function","name":"callLambda"}],"bytecode":{}}`)
	writeArtifact(t, dir, DeployerContract, `{"abi":[]}`)
	r := &fakeRunner{outputs: map[string]string{
		"inspect LambdaAppGateway bytecode": "0x6080\n",
		"inspect LambdaDeployer bytecode":   "  0x6090  ",
	}}

	out, err := newCompiler(r).Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "0x6080", out.AppGatewayBytecode)
	assert.Equal(t, "0x6090", out.DeployerBytecode)
	assert.JSONEq(t, `[{"type":"function","name":"callLambda"}]`, string(out.AppGatewayABI))
	assert.JSONEq(t, `[]`, string(out.DeployerABI))

	require.Len(t, r.calls, 3)
	assert.Equal(t, []string{"build"}, r.calls[0].args)
	for _, c := range r.calls {
		assert.Equal(t, dir, c.dir)
		assert.Equal(t, "forge", c.name)
	}
}

func TestBuildFailure(t *testing.T) {
	r := &fakeRunner{fail: map[string]error{"build": errors.New("exit status 1: compiler error")}}
	_, err := newCompiler(r).Build(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.Diagnostic{Code: diag.CodeCompileFailed}))
	assert.Contains(t, err.Error(), "compiler error")
	assert.Len(t, r.calls, 1)
}

func TestBuildInspectFailure(t *testing.T) {
	r := &fakeRunner{fail: map[string]error{"inspect LambdaDeployer bytecode": errors.New("no such contract")}}
	_, err := newCompiler(r).Build(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.Diagnostic{Code: diag.CodeCompileFailed}))
}

func TestReadABIMissingField(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, GatewayContract, `{"bytecode":{}}`)
	_, err := ReadABI(dir, GatewayContract)
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.Diagnostic{Code: diag.CodeCompileMissingABI}))
}

func TestReadABIMissingArtifact(t *testing.T) {
	_, err := ReadABI(t.TempDir(), DeployerContract)
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.Diagnostic{Code: diag.CodeCompileMissingABI}))
}

func TestReadABIMalformed(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, GatewayContract, `{not json`)
	_, err := ReadABI(dir, GatewayContract)
	require.Error(t, err)
}

func TestNewCompilerDefaults(t *testing.T) {
	c := NewCompiler("", nil)
	assert.Equal(t, "forge", c.Bin)
	assert.NotNil(t, c.Logger)
	assert.IsType(t, ExecRunner{}, c.Runner)
}
