package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRaw(t *testing.T) {
	testCases := []struct {
		name    string
		raw     map[string]map[string]bool
		wantErr string
	}{
		{
			name: "nil payload",
		},
		{
			name: "valid payload",
			raw: map[string]map[string]bool{
				"members": {"view": true, "edit": false},
				"plots":   {"create": true},
			},
		},
		{
			name: "unknown module",
			raw: map[string]map[string]bool{
				"members":   {"view": true},
				"campaigns": {"view": true},
			},
			wantErr: "unknown permission keys: campaigns",
		},
		{
			name: "unknown action",
			raw: map[string]map[string]bool{
				"members": {"view": true, "export": true},
			},
			wantErr: "unknown permission keys: members.export",
		},
		{
			name: "multiple unknown keys sorted",
			raw: map[string]map[string]bool{
				"zzz":     {"view": true},
				"members": {"export": true},
			},
			wantErr: "unknown permission keys: members.export, zzz",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRaw(tc.raw)

			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Equal(t, tc.wantErr, err.Error())
		})
	}
}

func TestKnownAction(t *testing.T) {
	for _, action := range Actions() {
		assert.True(t, KnownAction(action))
	}

	assert.False(t, KnownAction("export"))
	assert.False(t, KnownAction(""))
}
