// Package rbac defines the permission matrix used for role-based access control.
//
// A role grants permissions as a matrix of module x action booleans. Both sets
// are closed: the modules cover the functional areas of the cooperative backend
// and the actions are the five operation kinds the API distinguishes. Unknown
// modules or actions never grant access.
package rbac

// Module is a protected functional area of the application.
type Module string

const (
	// ModuleUsers covers user account management.
	ModuleUsers Module = "users"
	// ModuleMembers covers the cooperative member registry.
	ModuleMembers Module = "members"
	// ModulePlots covers land plot records.
	ModulePlots Module = "plots"
	// ModuleCrops covers the crop catalogue.
	ModuleCrops Module = "crops"
	// ModuleCropCycles covers crop cycle records (sowing to harvest).
	ModuleCropCycles Module = "crop_cycles"
	// ModuleHarvests covers harvest records.
	ModuleHarvests Module = "harvests"
	// ModuleTreatments covers plot treatment records.
	ModuleTreatments Module = "treatments"
	// ModuleSoilAnalyses covers soil analysis records.
	ModuleSoilAnalyses Module = "soil_analyses"
	// ModuleTransfers covers plot transfer requests.
	ModuleTransfers Module = "transfers"
	// ModuleReports covers report generation.
	ModuleReports Module = "reports"
	// ModuleAuditLog covers the audit log.
	ModuleAuditLog Module = "audit_log"
	// ModuleConfiguration covers application-wide settings.
	ModuleConfiguration Module = "configuration"
)

// Action is an operation kind within a module.
type Action string

const (
	// ActionView allows reading records of a module.
	ActionView Action = "view"
	// ActionCreate allows creating records.
	ActionCreate Action = "create"
	// ActionEdit allows updating records.
	ActionEdit Action = "edit"
	// ActionDelete allows deleting records.
	ActionDelete Action = "delete"
	// ActionApprove allows approving records that require sign-off.
	ActionApprove Action = "approve"
)

// Modules returns the closed module set in stable order.
func Modules() []Module {
	return []Module{
		ModuleUsers,
		ModuleMembers,
		ModulePlots,
		ModuleCrops,
		ModuleCropCycles,
		ModuleHarvests,
		ModuleTreatments,
		ModuleSoilAnalyses,
		ModuleTransfers,
		ModuleReports,
		ModuleAuditLog,
		ModuleConfiguration,
	}
}

// Actions returns the closed action set in stable order.
func Actions() []Action {
	return []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApprove}
}

// KnownModule reports whether m is part of the closed module set.
func KnownModule(m Module) bool {
	for _, known := range Modules() {
		if m == known {
			return true
		}
	}

	return false
}

// Grants is the fixed set of action booleans for one module.
// The action set is closed, so it is a struct rather than an open map:
// a Grants value can never hold a partial or unknown action.
type Grants struct {
	View    bool `json:"view"`
	Create  bool `json:"create"`
	Edit    bool `json:"edit"`
	Delete  bool `json:"delete"`
	Approve bool `json:"approve"`
}

// AllGrants returns a Grants value with every action allowed.
func AllGrants() Grants {
	return Grants{View: true, Create: true, Edit: true, Delete: true, Approve: true}
}

// Has reports whether the given action is granted.
// Unknown actions are never granted.
func (g Grants) Has(action Action) bool {
	switch action {
	case ActionView:
		return g.View
	case ActionCreate:
		return g.Create
	case ActionEdit:
		return g.Edit
	case ActionDelete:
		return g.Delete
	case ActionApprove:
		return g.Approve
	default:
		return false
	}
}

// Any reports whether at least one action is granted.
func (g Grants) Any() bool {
	return g.View || g.Create || g.Edit || g.Delete || g.Approve
}

// Union returns the logical OR of two grant sets.
func (g Grants) Union(other Grants) Grants {
	return Grants{
		View:    g.View || other.View,
		Create:  g.Create || other.Create,
		Edit:    g.Edit || other.Edit,
		Delete:  g.Delete || other.Delete,
		Approve: g.Approve || other.Approve,
	}
}

// Granted returns the granted actions in stable order.
func (g Grants) Granted() []Action {
	var actions []Action

	for _, action := range Actions() {
		if g.Has(action) {
			actions = append(actions, action)
		}
	}

	return actions
}

// Matrix maps every module of the closed set to its grants.
// A normalized matrix always contains exactly the closed module set;
// use New, Normalize or Normalized to obtain one.
type Matrix map[Module]Grants

// New returns a matrix covering the closed module set with nothing granted.
func New() Matrix {
	m := make(Matrix, len(Modules()))
	for _, module := range Modules() {
		m[module] = Grants{}
	}

	return m
}

// AllGranted returns a matrix with every action of every module allowed.
func AllGranted() Matrix {
	m := make(Matrix, len(Modules()))
	for _, module := range Modules() {
		m[module] = AllGrants()
	}

	return m
}

// Normalize converts an externally supplied, possibly partial permission
// mapping into a complete matrix. Omitted modules and omitted actions default
// to false; modules and actions outside the closed sets are dropped. Already
// granted values are preserved. Normalize never fails: it only fills gaps.
func Normalize(raw map[string]map[string]bool) Matrix {
	m := New()

	for name, actions := range raw {
		module := Module(name)
		if !KnownModule(module) {
			continue
		}

		var g Grants
		for action, allowed := range actions {
			switch Action(action) {
			case ActionView:
				g.View = allowed
			case ActionCreate:
				g.Create = allowed
			case ActionEdit:
				g.Edit = allowed
			case ActionDelete:
				g.Delete = allowed
			case ActionApprove:
				g.Approve = allowed
			}
		}

		m[module] = g
	}

	return m
}

// Normalized returns a copy of the matrix covering the full closed module set.
// Modules outside the closed set are dropped, missing ones filled with no
// grants. Normalizing a normalized matrix is a no-op.
func (m Matrix) Normalized() Matrix {
	out := New()

	for _, module := range Modules() {
		if g, ok := m[module]; ok {
			out[module] = g
		}
	}

	return out
}

// Has reports whether the matrix grants the given action on the given module.
// Modules or actions outside the closed sets yield false.
func (m Matrix) Has(module Module, action Action) bool {
	g, ok := m[module]
	if !ok {
		return false
	}

	return g.Has(action)
}

// Union returns the logical OR of both matrices over the closed module set.
// This is the consolidation rule for users holding multiple roles: permissions
// are additive, holding an extra role never reduces access.
func (m Matrix) Union(other Matrix) Matrix {
	out := New()

	for _, module := range Modules() {
		out[module] = m[module].Union(other[module])
	}

	return out
}

// Describe lists only the granted actions grouped by module, omitting modules
// without any grant. It is meant for display, not for authorization checks.
func (m Matrix) Describe() map[Module][]Action {
	out := make(map[Module][]Action)

	for _, module := range Modules() {
		if g, ok := m[module]; ok && g.Any() {
			out[module] = g.Granted()
		}
	}

	return out
}
