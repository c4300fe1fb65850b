package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
)

func TestEnsureSystemRoles(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, EnsureSystemRoles(db))

	roles, err := GetAll(db)
	require.NoError(t, err)
	require.Len(t, roles, 3)

	for _, r := range roles {
		assert.True(t, r.IsSystem, "built-in role %s must be a system role", r.Name)
		assert.Len(t, r.Permissions, len(rbac.Modules()))
	}
}

func TestEnsureSystemRolesIdempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, EnsureSystemRoles(db))

	first, err := Get(db, NameAdministrator)
	require.NoError(t, err)

	require.NoError(t, EnsureSystemRoles(db))

	second, err := Get(db, NameAdministrator)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "re-running the bootstrap must keep role identity")

	roles, err := GetAll(db)
	require.NoError(t, err)
	assert.Len(t, roles, 3)
}

func TestEnsureSystemRolesRefreshesPermissions(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, EnsureSystemRoles(db))

	// tamper with the Member grants
	member, err := Get(db, NameMember)
	require.NoError(t, err)

	tampered := rbac.AllGranted()
	_, err = Update(db, member.ID, Patch{Permissions: &tampered})
	require.NoError(t, err)

	require.NoError(t, EnsureSystemRoles(db))

	member, err = Get(db, NameMember)
	require.NoError(t, err)
	assert.False(t, member.Permissions.Has(rbac.ModuleUsers, rbac.ActionView),
		"bootstrap must reset built-in grants")
	assert.Equal(t, MemberMatrix().Normalized(), member.Permissions)
}

func TestBuiltinMatrices(t *testing.T) {
	t.Run("administrator has everything", func(t *testing.T) {
		m := AdministratorMatrix()
		for _, module := range rbac.Modules() {
			for _, action := range rbac.Actions() {
				assert.True(t, m.Has(module, action))
			}
		}
	})

	t.Run("member is scoped to own data", func(t *testing.T) {
		m := MemberMatrix().Normalized()

		assert.True(t, m.Has(rbac.ModulePlots, rbac.ActionCreate))
		assert.False(t, m.Has(rbac.ModulePlots, rbac.ActionDelete))
		assert.False(t, m.Has(rbac.ModuleUsers, rbac.ActionView))
		assert.False(t, m.Has(rbac.ModuleAuditLog, rbac.ActionView))
		assert.False(t, m.Has(rbac.ModuleConfiguration, rbac.ActionView))
	})

	t.Run("operator has intermediate access", func(t *testing.T) {
		m := OperatorMatrix().Normalized()

		assert.True(t, m.Has(rbac.ModuleUsers, rbac.ActionView))
		assert.False(t, m.Has(rbac.ModuleUsers, rbac.ActionCreate))
		assert.True(t, m.Has(rbac.ModuleMembers, rbac.ActionApprove))
		assert.False(t, m.Has(rbac.ModuleMembers, rbac.ActionDelete))
		assert.True(t, m.Has(rbac.ModuleAuditLog, rbac.ActionView))
		assert.False(t, m.Has(rbac.ModuleReports, rbac.ActionDelete))
	})
}
