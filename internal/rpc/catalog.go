package rpc

import (
	"github.com/invopop/jsonschema"
)

// ProcedureInfo describes one procedure for the catalog endpoint.
type ProcedureInfo struct {
	Path  string             `json:"path"`
	Kind  string             `json:"kind"`
	Input *jsonschema.Schema `json:"input,omitempty"`
}

// Catalog lists every procedure with the JSON schema of its input, sorted by path.
func (a *App) Catalog() []ProcedureInfo {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}

	paths := a.Paths()
	infos := make([]ProcedureInfo, 0, len(paths))
	for _, path := range paths {
		proc := a.procedures[path]
		info := ProcedureInfo{Path: path, Kind: proc.kind.String()}
		if proc.inputType != nil {
			info.Input = reflector.ReflectFromType(proc.inputType)
		}
		infos = append(infos, info)
	}
	return infos
}
