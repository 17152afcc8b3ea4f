package stage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tos-network/tolambda/tol/codegen"
	"github.com/tos-network/tolambda/tol/diag"
	"golang.org/x/crypto/sha3"
)

// Template-relative files spliced during staging.
const (
	LambdaSource  = "src/Lambda.sol"
	GatewaySource = "src/LambdaAppGateway.sol"
	ManifestFile  = "lambda.json"
)

const dirPrefix = "lambda_"

// Workspace stages copies of a template project under an output directory.
type Workspace struct {
	TemplateDir string
	OutputDir   string
}

func NewWorkspace(templateDir, outputDir string) *Workspace {
	return &Workspace{TemplateDir: templateDir, OutputDir: outputDir}
}

// DirName derives the staged directory name lambda_<unix>_<hash>, where hash
// is taken from the keccak digest of the lambda name and the timestamp.
func DirName(lambdaName string, now time.Time) string {
	ts := now.Unix()
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(lambdaName))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(ts))
	_, _ = h.Write(buf[:])
	sum := h.Sum(nil)
	return fmt.Sprintf("%s%d_%d", dirPrefix, ts, binary.BigEndian.Uint64(sum[:8]))
}

// ValidDirName reports whether name has the lambda_<unix>_<hash> shape.
func ValidDirName(name string) bool {
	rest, ok := strings.CutPrefix(name, dirPrefix)
	if !ok {
		return false
	}
	ts, hash, ok := strings.Cut(rest, "_")
	if !ok {
		return false
	}
	if _, err := strconv.ParseInt(ts, 10, 64); err != nil {
		return false
	}
	_, err := strconv.ParseUint(hash, 10, 64)
	return err == nil
}

// Path resolves a staged directory name inside the output directory.
func (w *Workspace) Path(dirname string) (string, error) {
	if !ValidDirName(dirname) {
		return "", fmt.Errorf("invalid staged directory name %q", dirname)
	}
	return filepath.Join(w.OutputDir, dirname), nil
}

// Stage copies the template into a fresh directory and returns its name.
func (w *Workspace) Stage(lambdaName string, now time.Time) (string, error) {
	info, err := os.Stat(w.TemplateDir)
	if err != nil || !info.IsDir() {
		return "", diag.New(diag.CodeStageTemplate, "template directory %q is not readable", w.TemplateDir)
	}
	dirname := DirName(lambdaName, now)
	dst := filepath.Join(w.OutputDir, dirname)
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("staged directory %s already exists", dirname)
	}
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return "", err
	}
	if err := CopyDir(w.TemplateDir, dst); err != nil {
		return "", fmt.Errorf("copy template: %w", err)
	}
	return dirname, nil
}

// WriteLambda splices the submitted function at //lambda_here and the state
// block at //states_here in the lambda contract.
func (w *Workspace) WriteLambda(dirname, function, states string) error {
	return w.splice(dirname, LambdaSource, []replacement{
		{codegen.StatesPlaceholder, states},
		{codegen.LambdaPlaceholder, function},
	})
}

// WriteGateway splices the dispatcher at //lambda_here in the gateway contract.
func (w *Workspace) WriteGateway(dirname, dispatcher string) error {
	return w.splice(dirname, GatewaySource, []replacement{
		{codegen.LambdaPlaceholder, dispatcher},
	})
}

// WriteManifest writes lambda.json at the staged directory root.
func (w *Workspace) WriteManifest(dirname string, m codegen.Manifest) error {
	dir, err := w.Path(dirname)
	if err != nil {
		return err
	}
	body, err := m.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), body, 0o644)
}

// ReadManifest loads the lambda.json of a staged directory.
func (w *Workspace) ReadManifest(dirname string) ([]byte, error) {
	dir, err := w.Path(dirname)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(dir, ManifestFile))
}

type replacement struct {
	marker string
	value  string
}

// splice checks every marker before replacing any, so a missing placeholder
// leaves the file untouched. Replacements apply in order.
func (w *Workspace) splice(dirname, rel string, repl []replacement) error {
	dir, err := w.Path(dirname)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, filepath.FromSlash(rel))
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return diag.New(diag.CodeStageTemplate, "template file %s is missing", rel)
		}
		return err
	}
	text := string(content)
	for _, r := range repl {
		if !strings.Contains(text, r.marker) {
			return diag.New(diag.CodeStagePlaceholder, "%s has no %s placeholder", rel, r.marker)
		}
	}
	for _, r := range repl {
		text = strings.ReplaceAll(text, r.marker, r.value)
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
