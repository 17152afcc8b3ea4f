package codegen

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tos-network/tolambda/tol/lower"
	"github.com/tos-network/tolambda/tol/parser"
	"golang.org/x/crypto/sha3"
)

// ManifestVersion is the schema version of lambda.json.
const ManifestVersion = 1

// Manifest describes a generated lambda project: its storage layout and the
// selectors of the lambda entry point and the gateway dispatcher.
type Manifest struct {
	Version    int              `json:"version"`
	Generator  string           `json:"generator,omitempty"`
	Contract   string           `json:"contract"`
	Lambda     ManifestFunction `json:"lambda"`
	Dispatcher ManifestFunction `json:"dispatcher"`
	Storage    []ManifestSlot   `json:"storage"`
	SourceHash string           `json:"source_hash,omitempty"`
}

type ManifestFunction struct {
	Name      string   `json:"name"`
	Signature string   `json:"signature"`
	Selector  string   `json:"selector"`
	Params    []string `json:"params,omitempty"`
}

type ManifestSlot struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	Type          string `json:"type"`
	Visibility    string `json:"visibility"`
	CanonicalHash string `json:"canonical_hash"`
}

// BuildManifest derives the manifest of p. source, when non-empty, is the
// submitted DSL body and is recorded by hash only.
func BuildManifest(p *lower.Program, source []byte) Manifest {
	if p == nil {
		p = &lower.Program{ContractName: lower.DefaultContractName}
	}
	paramTypes := make([]string, 0, len(p.LambdaParams))
	for _, prm := range p.LambdaParams {
		paramTypes = append(paramTypes, prm.Type.String())
	}
	lambdaSig := Signature(parser.LambdaName, paramTypes)
	dispatchTypes := append([]string{"address"}, paramTypes...)
	dispatchSig := Signature(DispatcherName, dispatchTypes)

	m := Manifest{
		Version:  ManifestVersion,
		Contract: p.ContractName,
		Lambda: ManifestFunction{
			Name:      parser.LambdaName,
			Signature: lambdaSig,
			Selector:  SelectorHex(lambdaSig),
			Params:    paramTypes,
		},
		Dispatcher: ManifestFunction{
			Name:      DispatcherName,
			Signature: dispatchSig,
			Selector:  SelectorHex(dispatchSig),
			Params:    dispatchTypes,
		},
		Storage: make([]ManifestSlot, 0, len(p.StorageSlots)),
	}
	for _, s := range p.StorageSlots {
		m.Storage = append(m.Storage, ManifestSlot{
			Name:          s.Name,
			Kind:          s.Type.Kind().String(),
			Type:          s.Type.String(),
			Visibility:    s.Visibility.String(),
			CanonicalHash: Keccak256Hex([]byte(fmt.Sprintf("tolambda.slot.%s.%s", p.ContractName, s.Name))),
		})
	}
	if len(source) > 0 {
		m.SourceHash = Keccak256Hex(source)
	}
	return m
}

// Encode renders m as indented JSON.
func (m Manifest) Encode() ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Signature builds the canonical `name(type1,type2)` form.
func Signature(name string, paramTypes []string) string {
	return fmt.Sprintf("%s(%s)", name, strings.Join(paramTypes, ","))
}

// SelectorHex returns the 4-byte function selector of sig as 0x-prefixed hex.
func SelectorHex(sig string) string {
	sum := keccak256([]byte(sig))
	return "0x" + hex.EncodeToString(sum[:4])
}

// Keccak256Hex hashes data and returns 0x-prefixed hex.
func Keccak256Hex(data []byte) string {
	return "0x" + hex.EncodeToString(keccak256(data))
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	return h.Sum(nil)
}
