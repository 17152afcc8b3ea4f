package sema

import (
	"errors"
	"strings"
	"testing"

	"github.com/tos-network/tolambda/tol/diag"
	"github.com/tos-network/tolambda/tol/types"
)

type mapScope map[string]types.Type

func (m mapScope) Lookup(name string) (types.Type, bool) {
	ty, ok := m[name]
	return ty, ok
}

func TestInferLiterals(t *testing.T) {
	zeroAddr := "0x" + strings.Repeat("0", 40)
	longHex := "0x" + strings.Repeat("ab", 33)
	cases := []struct {
		in   string
		want types.Type
	}{
		{"true", types.Bool},
		{"false", types.Bool},
		{zeroAddr, types.Address},
		{"0x742d35Cc6634C0532925a3b844Bc454e4438f44e", types.Address},
		{`"hello"`, types.String},
		{`""`, types.String},
		{"0x00", types.FixedBytes(1)},
		{"0x" + strings.Repeat("ff", 32), types.FixedBytes(32)},
		{longHex, types.Bytes},
		{"0x", types.Bytes},
		{"0x123", types.FixedBytes(1)},
		{"5", types.Uint(256)},
		{"0", types.Uint(256)},
		{"-1", types.Int(256)},
		{"[1, 2, 3]", types.ArrayOf(types.Uint(256), 3)},
		{"[true]", types.ArrayOf(types.Bool, 1)},
		{"[-1, 2]", types.ArrayOf(types.Int(256), 2)},
		{"[[1, 2], [3, 4]]", types.ArrayOf(types.ArrayOf(types.Uint(256), 2), 2)},
		{"  42  ", types.Uint(256)},
	}
	for _, tc := range cases {
		got, err := Infer(tc.in, nil)
		if err != nil {
			t.Fatalf("Infer(%q): unexpected error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("Infer(%q): got=%s want=%s", tc.in, got, tc.want)
		}
	}
}

func TestInferAddressNeedsHexDigits(t *testing.T) {
	notHex := "0x" + strings.Repeat("z", 40)
	got, err := Infer(notHex, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(types.FixedBytes(20)) {
		t.Fatalf("non-hex 42-char literal: got=%s want=bytes20", got)
	}
}

func TestInferLongArrayLiteralIsDynamic(t *testing.T) {
	elems := make([]string, 33)
	for i := range elems {
		elems[i] = "1"
	}
	got, err := Infer("["+strings.Join(elems, ",")+"]", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(types.DynamicArrayOf(types.Uint(256))) {
		t.Fatalf("got=%s want=uint256[]", got)
	}
}

func TestInferArraySamplesFirstElementOnly(t *testing.T) {
	got, err := Infer(`[true, "x", 3]`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(types.ArrayOf(types.Bool, 3)) {
		t.Fatalf("got=%s want=bool[3]", got)
	}
}

func TestInferIdentifiers(t *testing.T) {
	scope := mapScope{"amount": types.Uint(128), "owner": types.Address}
	got, err := Infer("amount", scope)
	if err != nil || !got.Equal(types.Uint(128)) {
		t.Fatalf("amount: got=%s err=%v", got, err)
	}
	got, err = Infer("[owner, owner]", scope)
	if err != nil || !got.Equal(types.ArrayOf(types.Address, 2)) {
		t.Fatalf("[owner, owner]: got=%s err=%v", got, err)
	}
}

func TestInferLiteralRulesWinOverIdentifiers(t *testing.T) {
	scope := mapScope{"true": types.String, "7": types.Address}
	if got, _ := Infer("true", scope); !got.Equal(types.Bool) {
		t.Fatalf("true: got=%s want=bool", got)
	}
	if got, _ := Infer("7", scope); !got.Equal(types.Uint(256)) {
		t.Fatalf("7: got=%s want=uint256", got)
	}
}

func TestInferUnresolved(t *testing.T) {
	for _, in := range []string{"unknown", "a + b", "[]", "foo(1)", "99999999999999999999"} {
		_, err := Infer(in, mapScope{})
		if err == nil {
			t.Fatalf("Infer(%q): expected error", in)
		}
		if !errors.Is(err, diag.Diagnostic{Code: diag.CodeUnresolvedExpression}) {
			t.Fatalf("Infer(%q): unexpected error kind: %v", in, err)
		}
	}
}

func TestStateLookupPrecedence(t *testing.T) {
	st := NewState()
	st.Globals["x"] = types.Bool
	st.Lambda.ByName["x"] = types.String
	st.Locals["x"] = types.Address
	if got, _ := st.Lookup("x"); !got.Equal(types.Address) {
		t.Fatalf("locals first: got=%s", got)
	}
	delete(st.Locals, "x")
	if got, _ := st.Lookup("x"); !got.Equal(types.String) {
		t.Fatalf("lambda params second: got=%s", got)
	}
	delete(st.Lambda.ByName, "x")
	if got, _ := st.Lookup("x"); !got.Equal(types.Bool) {
		t.Fatalf("globals last: got=%s", got)
	}
}
