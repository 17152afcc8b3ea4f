package lower

import (
	"sort"

	"github.com/tos-network/tolambda/tol/parser"
	"github.com/tos-network/tolambda/tol/sema"
	"github.com/tos-network/tolambda/tol/types"
)

// Program is the render-ready form of an analysis state.
type Program struct {
	ContractName string
	StorageSlots []StorageSlot
	LambdaParams []parser.Param
}

type StorageSlot struct {
	Name       string
	Type       types.Type
	Visibility sema.Visibility
}

// DefaultContractName is the contract the generated state block lives in.
const DefaultContractName = "Lambda"

// FromState snapshots st. Storage slots are sorted by name; lambda
// parameters keep their signature order.
func FromState(st sema.State) *Program {
	out := &Program{
		ContractName: DefaultContractName,
		StorageSlots: make([]StorageSlot, 0, len(st.Globals)),
		LambdaParams: cloneParams(st.Lambda),
	}
	for name, ty := range st.Globals {
		out.StorageSlots = append(out.StorageSlots, StorageSlot{
			Name:       name,
			Type:       ty,
			Visibility: st.VisibilityOf(name),
		})
	}
	sort.Slice(out.StorageSlots, func(i, j int) bool {
		return out.StorageSlots[i].Name < out.StorageSlots[j].Name
	})
	return out
}

func cloneParams(p parser.Params) []parser.Param {
	if len(p.ByName) == 0 {
		return nil
	}
	out := p.List()
	// Params built by hand may carry names missing from Order.
	if len(out) != len(p.ByName) {
		seen := make(map[string]struct{}, len(out))
		for _, prm := range out {
			seen[prm.Name] = struct{}{}
		}
		var extra []string
		for name := range p.ByName {
			if _, ok := seen[name]; !ok {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		for _, name := range extra {
			out = append(out, parser.Param{Name: name, Type: p.ByName[name]})
		}
	}
	return out
}
