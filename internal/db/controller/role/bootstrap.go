package role

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
)

// Built-in role names.
const (
	// NameAdministrator is the system role with full permissions.
	NameAdministrator = "Administrator"
	// NameMember is the system role for cooperative members, scoped to
	// managing their own records.
	NameMember = "Member"
	// NameOperator is the system role for operational staff with
	// intermediate management permissions.
	NameOperator = "Operator"
)

// AdministratorMatrix returns the grant table of the Administrator role:
// every action of every module.
func AdministratorMatrix() rbac.Matrix {
	return rbac.AllGranted()
}

// MemberMatrix returns the grant table of the Member role. Members view and
// manage only the modules relevant to their own data and have no access to
// users, the audit log or configuration.
func MemberMatrix() rbac.Matrix {
	return rbac.Matrix{
		rbac.ModuleUsers:         {},
		rbac.ModuleMembers:       {View: true, Edit: true},
		rbac.ModulePlots:         {View: true, Create: true, Edit: true},
		rbac.ModuleCrops:         {View: true, Create: true, Edit: true, Delete: true},
		rbac.ModuleCropCycles:    {View: true, Create: true, Edit: true, Delete: true},
		rbac.ModuleHarvests:      {View: true, Create: true, Edit: true, Delete: true},
		rbac.ModuleTreatments:    {View: true, Create: true, Edit: true, Delete: true},
		rbac.ModuleSoilAnalyses:  {View: true, Create: true, Edit: true, Delete: true},
		rbac.ModuleTransfers:     {View: true, Create: true},
		rbac.ModuleReports:       {View: true},
		rbac.ModuleAuditLog:      {},
		rbac.ModuleConfiguration: {},
	}
}

// OperatorMatrix returns the grant table of the Operator role: broad view,
// create and edit access, narrower delete, selective approve.
func OperatorMatrix() rbac.Matrix {
	return rbac.Matrix{
		rbac.ModuleUsers:         {View: true},
		rbac.ModuleMembers:       {View: true, Create: true, Edit: true, Approve: true},
		rbac.ModulePlots:         {View: true, Create: true, Edit: true, Approve: true},
		rbac.ModuleCrops:         {View: true, Create: true, Edit: true, Delete: true, Approve: true},
		rbac.ModuleCropCycles:    {View: true, Create: true, Edit: true, Delete: true, Approve: true},
		rbac.ModuleHarvests:      {View: true, Create: true, Edit: true, Delete: true, Approve: true},
		rbac.ModuleTreatments:    {View: true, Create: true, Edit: true, Delete: true, Approve: true},
		rbac.ModuleSoilAnalyses:  {View: true, Create: true, Edit: true, Delete: true, Approve: true},
		rbac.ModuleTransfers:     {View: true, Create: true, Edit: true, Approve: true},
		rbac.ModuleReports:       {View: true, Create: true, Edit: true},
		rbac.ModuleAuditLog:      {View: true},
		rbac.ModuleConfiguration: {View: true},
	}
}

// EnsureSystemRoles creates or refreshes the three built-in system roles.
// The operation is idempotent and safe to re-run: an existing role keeps its
// identity but has its description, permission matrix and system flag reset
// to the built-in definition.
func EnsureSystemRoles(db *gorm.DB) error {
	if db == nil {
		return ErrDBNil
	}

	builtins := []struct {
		name        string
		description string
		matrix      rbac.Matrix
	}{
		{
			name:        NameAdministrator,
			description: "Full administrative access to every module",
			matrix:      AdministratorMatrix(),
		},
		{
			name:        NameMember,
			description: "Cooperative member with access limited to their own records",
			matrix:      MemberMatrix(),
		},
		{
			name:        NameOperator,
			description: "Operational staff with intermediate management permissions",
			matrix:      OperatorMatrix(),
		},
	}

	for _, builtin := range builtins {
		if err := ensureSystemRole(db, builtin.name, builtin.description, builtin.matrix); err != nil {
			return err
		}
	}

	return nil
}

func ensureSystemRole(db *gorm.DB, name, description string, matrix rbac.Matrix) error {
	existing, err := Get(db, name)

	switch {
	case err == nil:
		existing.Description = description
		existing.Permissions = matrix.Normalized()
		existing.IsSystem = true

		if err = db.Save(existing).Error; err != nil {
			return err
		}

		log.Debug().Str("role", name).Msg("system role refreshed")
	case errors.Is(err, ErrRoleNotFound):
		if _, err = Create(db, name, description, matrix, true); err != nil {
			return err
		}

		log.Info().Str("role", name).Msg("system role created")
	default:
		return err
	}

	return nil
}
