package domain

import (
	"sort"
	"strings"
)

// Module is a capability a non-admin user may be granted.
type Module string

const (
	ModuleEstoque    Module = "estoque"
	ModuleFinanceiro Module = "financeiro"
	ModuleCompras    Module = "compras"
	ModuleVendas     Module = "vendas"
	ModuleProducao   Module = "producao"
	ModuleRelatorios Module = "relatorios"
	ModuleCadastros  Module = "cadastros"
	ModuleUsuarios   Module = "usuarios"
	ModuleChat       Module = "chat"
)

var knownModules = map[Module]struct{}{
	ModuleEstoque:    {},
	ModuleFinanceiro: {},
	ModuleCompras:    {},
	ModuleVendas:     {},
	ModuleProducao:   {},
	ModuleRelatorios: {},
	ModuleCadastros:  {},
	ModuleUsuarios:   {},
	ModuleChat:       {},
}

// Known reports whether m is one of the declared modules.
func (m Module) Known() bool {
	_, ok := knownModules[m]
	return ok
}

// ParseModule normalises s and checks it against the declared modules.
func ParseModule(s string) (Module, error) {
	m := Module(strings.ToLower(strings.TrimSpace(s)))
	if !m.Known() {
		return "", &ModuleError{Name: s}
	}
	return m, nil
}

// PermissionSet is the unordered set of modules the backend granted a user.
type PermissionSet struct {
	modules map[Module]struct{}
}

// NewPermissionSet builds a set from the backend's string list. Duplicates
// and blank entries collapse; unrecognised names are kept because the
// backend is authoritative.
func NewPermissionSet(names []string) PermissionSet {
	ps := PermissionSet{modules: make(map[Module]struct{}, len(names))}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		ps.modules[Module(n)] = struct{}{}
	}
	return ps
}

// Has reports whether m was granted.
func (ps PermissionSet) Has(m Module) bool {
	_, ok := ps.modules[m]
	return ok
}

// Len is the number of distinct granted names.
func (ps PermissionSet) Len() int { return len(ps.modules) }

// Unknown lists granted names that are not declared modules, sorted.
func (ps PermissionSet) Unknown() []string {
	var out []string
	for m := range ps.modules {
		if !m.Known() {
			out = append(out, string(m))
		}
	}
	sort.Strings(out)
	return out
}

// Modules returns the granted modules sorted by name.
func (ps PermissionSet) Modules() []Module {
	out := make([]Module, 0, len(ps.modules))
	for m := range ps.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
