package stage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/tolambda/tol/codegen"
	"github.com/tos-network/tolambda/tol/diag"
	"github.com/tos-network/tolambda/tol/lower"
)

const lambdaTemplate = `contract Lambda {
    //states_here

    //lambda_here
}
`

const gatewayTemplate = `contract LambdaAppGateway {
    //lambda_here
}
`

func writeTemplate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib", "deps"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Lambda.sol"), []byte(lambdaTemplate), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "LambdaAppGateway.sol"), []byte(gatewayTemplate), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "deps", "Dep.sol"), []byte("// dep\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "foundry.toml"), []byte("[profile.default]\n"), 0o644))
	return root
}

func TestDirName(t *testing.T) {
	now := time.Unix(1733606850, 0)
	a := DirName("counter", now)
	b := DirName("counter", now)
	c := DirName("other", now)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^lambda_1733606850_\d+$`, a)
	assert.True(t, ValidDirName(a))
}

func TestValidDirName(t *testing.T) {
	assert.True(t, ValidDirName("lambda_1733606850_17175605408039259592"))
	for _, bad := range []string{"", "lambda_", "lambda_1", "lambda_x_1", "lambda_1_y", "../lambda_1_2", "lambda_1_2/..", "other_1_2"} {
		assert.False(t, ValidDirName(bad), bad)
	}
}

func TestCopyDir(t *testing.T) {
	src := writeTemplate(t)
	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, CopyDir(src, dst))

	body, err := os.ReadFile(filepath.Join(dst, "lib", "deps", "Dep.sol"))
	require.NoError(t, err)
	assert.Equal(t, "// dep\n", string(body))
	_, err = os.Stat(filepath.Join(dst, "foundry.toml"))
	require.NoError(t, err)
}

func TestCopyDirRejectsFile(t *testing.T) {
	src := writeTemplate(t)
	err := CopyDir(filepath.Join(src, "foundry.toml"), t.TempDir())
	require.Error(t, err)
}

func TestStageAndWrite(t *testing.T) {
	ws := NewWorkspace(writeTemplate(t), filepath.Join(t.TempDir(), "output"))
	dirname, err := ws.Stage("counter", time.Unix(1700000000, 0))
	require.NoError(t, err)

	fn := "function lambda(address user) public {\n    counter = 1;\n}"
	require.NoError(t, ws.WriteLambda(dirname, fn, "uint256 public counter;\n"))
	require.NoError(t, ws.WriteGateway(dirname, "function callLambda(address lambdaAddress) {}"))

	dir, err := ws.Path(dirname)
	require.NoError(t, err)
	lambda, err := os.ReadFile(filepath.Join(dir, LambdaSource))
	require.NoError(t, err)
	assert.Contains(t, string(lambda), "uint256 public counter;")
	assert.Contains(t, string(lambda), "function lambda(address user) public {")
	assert.NotContains(t, string(lambda), codegen.LambdaPlaceholder)
	assert.NotContains(t, string(lambda), codegen.StatesPlaceholder)

	gateway, err := os.ReadFile(filepath.Join(dir, GatewaySource))
	require.NoError(t, err)
	assert.Contains(t, string(gateway), "function callLambda(address lambdaAddress) {}")

	// The template itself stays pristine.
	orig, err := os.ReadFile(filepath.Join(ws.TemplateDir, LambdaSource))
	require.NoError(t, err)
	assert.Equal(t, lambdaTemplate, string(orig))
}

func TestWriteLambdaKeepsPlaceholderTextInFunction(t *testing.T) {
	ws := NewWorkspace(writeTemplate(t), t.TempDir())
	dirname, err := ws.Stage("marker", time.Unix(1700000001, 0))
	require.NoError(t, err)

	fn := "function lambda() {\n    //states_here\n}"
	require.NoError(t, ws.WriteLambda(dirname, fn, "bool public flag;\n"))
	dir, _ := ws.Path(dirname)
	lambda, err := os.ReadFile(filepath.Join(dir, LambdaSource))
	require.NoError(t, err)
	assert.Contains(t, string(lambda), "    //states_here\n}")
}

func TestStageTwiceSameSecondFails(t *testing.T) {
	ws := NewWorkspace(writeTemplate(t), t.TempDir())
	now := time.Unix(1700000002, 0)
	_, err := ws.Stage("dup", now)
	require.NoError(t, err)
	_, err = ws.Stage("dup", now)
	require.Error(t, err)
}

func TestStageMissingTemplate(t *testing.T) {
	ws := NewWorkspace(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	_, err := ws.Stage("x", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.Diagnostic{Code: diag.CodeStageTemplate}))
}

func TestWriteGatewayMissingPlaceholder(t *testing.T) {
	tmpl := writeTemplate(t)
	require.NoError(t, os.WriteFile(filepath.Join(tmpl, "src", "LambdaAppGateway.sol"), []byte("contract G {}\n"), 0o644))
	ws := NewWorkspace(tmpl, t.TempDir())
	dirname, err := ws.Stage("x", time.Unix(1700000003, 0))
	require.NoError(t, err)

	err = ws.WriteGateway(dirname, "function callLambda() {}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.Diagnostic{Code: diag.CodeStagePlaceholder}))
}

func TestWriteRejectsInvalidDirName(t *testing.T) {
	ws := NewWorkspace(writeTemplate(t), t.TempDir())
	require.Error(t, ws.WriteLambda("../escape", "", ""))
	require.Error(t, ws.WriteGateway("nope", ""))
}

func TestWriteAndReadManifest(t *testing.T) {
	ws := NewWorkspace(writeTemplate(t), t.TempDir())
	dirname, err := ws.Stage("m", time.Unix(1700000004, 0))
	require.NoError(t, err)

	m := codegen.BuildManifest(&lower.Program{ContractName: lower.DefaultContractName}, nil)
	require.NoError(t, ws.WriteManifest(dirname, m))

	raw, err := ws.ReadManifest(dirname)
	require.NoError(t, err)
	var decoded codegen.Manifest
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, m.Lambda.Selector, decoded.Lambda.Selector)
	assert.Equal(t, lower.DefaultContractName, decoded.Contract)
}
